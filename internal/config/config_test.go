package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/hookrt/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.MaxPassesPerFlush != DefaultMaxPassesPerFlush {
		t.Errorf("MaxPassesPerFlush = %d, want %d", cfg.MaxPassesPerFlush, DefaultMaxPassesPerFlush)
	}
	if cfg.Host.QueueSize != DefaultQueueSize {
		t.Errorf("Host.QueueSize = %d, want %d", cfg.Host.QueueSize, DefaultQueueSize)
	}
	if cfg.Devtools.Addr != DefaultDevtoolsAddr {
		t.Errorf("Devtools.Addr = %q, want %q", cfg.Devtools.Addr, DefaultDevtoolsAddr)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled by default")
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	want := New()
	want.Debug = true
	want.MaxPassesPerFlush = 10
	want.Log.Level = "warn"
	want.Host.QueueSize = 32
	want.Devtools.Addr = ":9000"
	want.Metrics.Enabled = false
	want.Tracing.Enabled = true

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "hookrt.json",
			content: `{
  "debug": true,
  "maxPassesPerFlush": 10,
  "log": {"level": "WARN"},
  "host": {"queueSize": 32},
  "devtools": {"addr": ":9000"},
  "metrics": {"enabled": false},
  "tracing": {"enabled": true}
}
`,
		},
		{
			name: "yaml",
			file: "hookrt.yaml",
			content: `debug: true
max_passes_per_flush: 10
log:
  level: WARN
host:
  queue_size: 32
devtools:
  addr: ":9000"
metrics:
  enabled: false
tracing:
  enabled: true
`,
		},
		{
			name: "yml",
			file: "hookrt.yml",
			content: `debug: true
max_passes_per_flush: 10
log: {level: warn}
host: {queue_size: 32}
devtools: {addr: ":9000"}
metrics: {enabled: false}
tracing: {enabled: true}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, tt.file, tt.content)

			cfg, err := Load(dir)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}
			if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hookrt.yaml", "devtools:\n  addr: yaml:1\n")
	writeFile(t, dir, ConfigFileName, `{"devtools": {"addr": "json:1"}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Devtools.Addr != "json:1" {
		t.Errorf("Devtools.Addr = %q, want %q", cfg.Devtools.Addr, "json:1")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assertCode(t, err, errors.CodeConfigRead)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assertCode(t, err, errors.CodeConfigRead)
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(New(), cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("LoadOptional without file should return defaults (-want +got):\n%s", diff)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}

	dir := t.TempDir()
	writeFile(t, dir, "hookrt.yml", "host:\n  queue_size: 8\n")
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Host.QueueSize != 8 {
		t.Errorf("Host.QueueSize = %d, want 8", cfg.Host.QueueSize)
	}
}

func TestLoadFileInvalidSyntax(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(writeFile(t, dir, "hookrt.json", `{invalid`))
	assertCode(t, err, errors.CodeConfigParse)

	_, err = LoadFile(writeFile(t, dir, "hookrt.yaml", "log: [unclosed"))
	assertCode(t, err, errors.CodeConfigParse)
}

func TestLoadFileInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative passes", "max_passes_per_flush: -1\n"},
		{"negative queue", "host:\n  queue_size: -4\n"},
		{"unknown level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, t.TempDir(), "hookrt.yaml", tt.content))
			assertCode(t, err, errors.CodeConfigInvalid)
		})
	}
}

func TestSaveTo(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Devtools.Addr = "127.0.0.1:8123"
			cfg.Tracing.Enabled = true

			path := filepath.Join(t.TempDir(), name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatal(err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
				t.Errorf("saved config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		want  slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"warning", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
	}
	for _, tt := range tests {
		cfg := New()
		cfg.Log.Level = tt.level
		cfg.Debug = tt.debug
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q, debug=%v) = %v, want %v", tt.level, tt.debug, got, tt.want)
		}
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists should be false for a directory")
	}
	path := writeFile(t, dir, ConfigFileName, "{}")
	if !Exists(path) {
		t.Error("Exists should be true for a file")
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got nil", code)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %T is not *errors.Error: %v", err, err)
	}
	if e.Code != code {
		t.Errorf("Code = %s, want %s (%v)", e.Code, code, err)
	}
}
