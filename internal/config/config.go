package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/hookrt/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "hookrt.json"

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"

	// DefaultMaxPassesPerFlush is the default re-render limit per instance
	// and flush.
	DefaultMaxPassesPerFlush = 50

	// DefaultQueueSize is the default host dispatch queue capacity.
	DefaultQueueSize = 256

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7070"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "hookrt"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "github.com/vango-dev/hookrt"
)

// FileNames lists the configuration file names Load looks for, in order.
var FileNames = []string{ConfigFileName, "hookrt.yaml", "hookrt.yml"}

// Config represents the complete hookrt configuration.
type Config struct {
	// Debug enables debug logging regardless of Log.Level.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`

	// MaxPassesPerFlush bounds how often one instance may re-render in a
	// single flush.
	MaxPassesPerFlush int `json:"maxPassesPerFlush,omitempty" yaml:"max_passes_per_flush,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Host contains host event loop configuration.
	Host HostConfig `json:"host,omitempty" yaml:"host,omitempty"`

	// Devtools contains devtools server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty" yaml:"devtools,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// HostConfig contains host event loop settings.
type HostConfig struct {
	// QueueSize is the dispatch queue capacity.
	QueueSize int `json:"queueSize,omitempty" yaml:"queue_size,omitempty"`
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracer_name,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		MaxPassesPerFlush: DefaultMaxPassesPerFlush,
		Log:               LogConfig{Level: DefaultLogLevel},
		Host:              HostConfig{QueueSize: DefaultQueueSize},
		Devtools:          DevtoolsConfig{Addr: DefaultDevtoolsAddr},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{TracerName: DefaultTracerName},
	}
}

// Load reads configuration from the first of FileNames present in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if Exists(path) {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigRead).
		WithDetail("No " + strings.Join(FileNames, ", ") + " found in " + dir)
}

// LoadOptional is like Load but returns the defaults when dir holds no
// configuration file.
func LoadOptional(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if Exists(path) {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.CodeConfigParse).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path, as YAML or JSON depending on
// the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from, or "" for
// defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.MaxPassesPerFlush == 0 {
		c.MaxPassesPerFlush = DefaultMaxPassesPerFlush
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Host.QueueSize == 0 {
		c.Host.QueueSize = DefaultQueueSize
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.MaxPassesPerFlush < 1 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("max_passes_per_flush must be at least 1, got " + strconv.Itoa(c.MaxPassesPerFlush))
	}
	if c.Host.QueueSize < 1 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("host.queue_size must be at least 1, got " + strconv.Itoa(c.Host.QueueSize))
	}
	return nil
}

// SlogLevel returns the configured log level. Debug forces slog.LevelDebug.
func (c *Config) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.New(errors.CodeConfigInvalid).
		WithDetail("Unknown log level " + strconv.Quote(name) + "; use debug, info, warn or error")
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
