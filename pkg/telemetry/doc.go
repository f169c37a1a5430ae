// Package telemetry provides hooks.Observer implementations that export
// runtime activity as Prometheus metrics and OpenTelemetry spans.
//
//	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	tracer := telemetry.NewTracer(telemetry.WithTracerName("hookrt"))
//
//	h := host.New(host.Config{
//	    Observer: hooks.MultiObserver(metrics, tracer),
//	})
package telemetry
