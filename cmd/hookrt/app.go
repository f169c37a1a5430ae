package main

import (
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/hookrt/internal/config"
	"github.com/vango-dev/hookrt/internal/errors"
	"github.com/vango-dev/hookrt/pkg/hooks"
	"github.com/vango-dev/hookrt/pkg/host"
	"github.com/vango-dev/hookrt/pkg/telemetry"
)

// app wires a host to the telemetry the configuration enables.
type app struct {
	logger   *slog.Logger
	host     *host.Host
	registry *prometheus.Registry
	metrics  *telemetry.Metrics

	mu       sync.Mutex
	reported []error
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	a := &app{logger: logger}

	var observers []hooks.Observer
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(a.registry),
		)
		observers = append(observers, a.metrics)
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, telemetry.NewTracer(telemetry.WithTracerName(cfg.Tracing.TracerName)))
	}

	a.host = host.New(host.Config{
		QueueSize:         cfg.Host.QueueSize,
		Logger:            logger,
		Observer:          hooks.MultiObserver(observers...),
		MaxPassesPerFlush: cfg.MaxPassesPerFlush,
		OnError:           a.onError,
	})
	return a
}

// onError runs on the host loop for every failed pass, exceeded update
// depth and failed effect.
func (a *app) onError(err error) {
	var depth *hooks.UpdateDepthError
	if a.metrics != nil && stderrors.As(err, &depth) {
		a.metrics.RecordError(err)
	}

	e := errors.FromError(err, errors.CodeInternal)
	attrs := []any{"code", e.Code, "error", err}
	if e.Location != nil {
		attrs = append(attrs, "location", e.Location.String())
	}
	a.logger.Error(e.Message, attrs...)

	a.mu.Lock()
	a.reported = append(a.reported, err)
	a.mu.Unlock()
}

// errs returns the errors reported so far.
func (a *app) errs() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]error(nil), a.reported...)
}
