package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "hookrt").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass and effect durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "hookrt",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a hooks.Observer recording Prometheus metrics.
//
// Metrics collected:
//   - hookrt_passes_total: passes by component and result (ok, failed)
//   - hookrt_pass_duration_seconds: pass duration by component
//   - hookrt_effects_total: effect runs by component and result (ok, error)
//   - hookrt_effect_duration_seconds: effect duration by component
//   - hookrt_errors_total: errors by registry code
//   - hookrt_mounted_instances: currently mounted instances
//   - hookrt_unmounts_total: torn down instances
type Metrics struct {
	passesTotal    *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	effectsTotal   *prometheus.CounterVec
	effectDuration *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	mounted        prometheus.Gauge
	unmountsTotal  prometheus.Counter
}

// NewMetrics creates the metrics and registers them with the configured
// registry. Creating two Metrics on the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of render passes",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "result"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Render pass duration in seconds, from render to commit",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		effectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "result"}),

		effectDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total runtime errors by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		mounted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_instances",
			Help:        "Number of currently mounted instances",
			ConstLabels: config.ConstLabels,
		}),

		unmountsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "unmounts_total",
			Help:        "Total number of unmounted instances",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// InstanceMounted implements hooks.Observer.
func (m *Metrics) InstanceMounted(*hooks.Instance) {
	m.mounted.Inc()
}

// InstanceUnmounted implements hooks.Observer.
func (m *Metrics) InstanceUnmounted(*hooks.Instance) {
	m.mounted.Dec()
	m.unmountsTotal.Inc()
}

// PassStarted implements hooks.Observer.
func (m *Metrics) PassStarted(inst *hooks.Instance) func(error) {
	start := time.Now()
	component := inst.Kind()
	return func(err error) {
		m.passDuration.WithLabelValues(component).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "failed"
			m.RecordError(err)
		}
		m.passesTotal.WithLabelValues(component, result).Inc()
	}
}

// EffectRan implements hooks.Observer.
func (m *Metrics) EffectRan(inst *hooks.Instance, _ int, d time.Duration, err error) {
	m.effectDuration.WithLabelValues(inst.Kind()).Observe(d.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
		m.RecordError(err)
	}
	m.effectsTotal.WithLabelValues(inst.Kind(), result).Inc()
}

// RecordError counts err under its registry code. The observer methods
// already count pass and effect failures; hosts call RecordError for
// errors only Flush returns, such as *hooks.UpdateDepthError.
func (m *Metrics) RecordError(err error) {
	m.errorsTotal.WithLabelValues(errorCode(err)).Inc()
}

// errorCode returns the registry code of err, or "unknown". The label set
// stays bounded because only the codes are used.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return "unknown"
}
