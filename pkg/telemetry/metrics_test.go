package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	rt := hooks.New(hooks.Options{Observer: m, Logger: discardLogger()})

	var set *hooks.Setter[bool]
	inst, err := rt.Mount(nil, "Widget", func(s *hooks.Scope) any {
		ok, setter := hooks.UseState(s, true)
		set = setter
		hooks.OnMount(s, func() {})
		if ok {
			hooks.UseRef(s, 0)
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	if got := metricCounterValue(t, m.passesTotal.WithLabelValues("Widget", "ok")); got != 1 {
		t.Errorf("passes_total(ok)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.effectsTotal.WithLabelValues("Widget", "ok")); got != 1 {
		t.Errorf("effects_total(ok)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.passDuration.WithLabelValues("Widget")); got != 1 {
		t.Errorf("pass_duration_seconds count=%v, want 1", got)
	}
	if got := metricGaugeValue(t, m.mounted); got != 1 {
		t.Errorf("mounted_instances=%v, want 1", got)
	}

	set.Set(false)
	if err := rt.Flush(); err == nil {
		t.Fatal("expected structural error")
	}
	if got := metricCounterValue(t, m.passesTotal.WithLabelValues("Widget", "failed")); got != 1 {
		t.Errorf("passes_total(failed)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.errorsTotal.WithLabelValues(hooks.CodeCellCount)); got != 1 {
		t.Errorf("errors_total(%s)=%v, want 1", hooks.CodeCellCount, got)
	}

	if err := rt.Unmount(inst); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}
	if got := metricGaugeValue(t, m.mounted); got != 0 {
		t.Errorf("mounted_instances=%v, want 0", got)
	}
	if got := metricCounterValue(t, m.unmountsTotal); got != 1 {
		t.Errorf("unmounts_total=%v, want 1", got)
	}
}

func TestMetricsEffectErrors(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
	rt := hooks.New(hooks.Options{Observer: m, Logger: discardLogger()})

	if _, err := rt.Mount(nil, "Faulty", func(s *hooks.Scope) any {
		hooks.OnMount(s, func() { panic("boom") })
		return nil
	}, nil); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	if got := metricCounterValue(t, m.effectsTotal.WithLabelValues("Faulty", "error")); got != 1 {
		t.Errorf("effects_total(error)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.errorsTotal.WithLabelValues(hooks.CodeEffect)); got != 1 {
		t.Errorf("errors_total(%s)=%v, want 1", hooks.CodeEffect, got)
	}
}

func TestMetricsRecordError(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.RecordError(&hooks.UpdateDepthError{Component: "Loop", Passes: 50})
	m.RecordError(errors.New("plain"))

	if got := metricCounterValue(t, m.errorsTotal.WithLabelValues(hooks.CodeUpdateDepth)); got != 1 {
		t.Errorf("errors_total(%s)=%v, want 1", hooks.CodeUpdateDepth, got)
	}
	if got := metricCounterValue(t, m.errorsTotal.WithLabelValues("unknown")); got != 1 {
		t.Errorf("errors_total(unknown)=%v, want 1", got)
	}
}

func TestMetricsRegistersWithConfiguredRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.001, 0.01}),
	).InstanceMounted(nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "app_ui_mounted_instances" {
			found = true
			if got := f.GetMetric()[0].GetGauge().GetValue(); got != 1 {
				t.Errorf("app_ui_mounted_instances=%v, want 1", got)
			}
		}
	}
	if !found {
		t.Error("expected app_ui_mounted_instances to be registered")
	}
}
