package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// Default tracer name for hookrt spans.
const defaultTracerName = "hookrt"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "hookrt").
	TracerName string

	// Provider is the tracer provider.
	// Default: the global provider from otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Attributes are added to every span, e.g. the host ID.
	Attributes []attribute.KeyValue
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = provider
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer is a hooks.Observer that records one span per render pass and
// one per effect run.
//
// Span names:
//   - "hookrt.pass <component>": render through commit
//   - "hookrt.effect <component>": one effect invocation or failed cleanup
//   - "hookrt.mount <component>" and "hookrt.unmount <component>": instant
//     spans marking lifecycle transitions
type Tracer struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

// NewTracer creates a tracing observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer: config.Provider.Tracer(config.TracerName),
		attrs:  config.Attributes,
	}
}

func (t *Tracer) instanceAttrs(inst *hooks.Instance, extra ...attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(t.attrs)+3+len(extra))
	attrs = append(attrs, t.attrs...)
	attrs = append(attrs,
		attribute.Int64("hookrt.instance", int64(inst.ID())),
		attribute.String("hookrt.component", inst.Kind()),
		attribute.Int("hookrt.depth", inst.Depth()),
	)
	return append(attrs, extra...)
}

// InstanceMounted implements hooks.Observer.
func (t *Tracer) InstanceMounted(inst *hooks.Instance) {
	t.instant("hookrt.mount", inst)
}

// InstanceUnmounted implements hooks.Observer.
func (t *Tracer) InstanceUnmounted(inst *hooks.Instance) {
	t.instant("hookrt.unmount", inst)
}

func (t *Tracer) instant(name string, inst *hooks.Instance) {
	now := time.Now()
	_, span := t.tracer.Start(context.Background(),
		fmt.Sprintf("%s %s", name, inst.Kind()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.instanceAttrs(inst)...),
		trace.WithTimestamp(now),
	)
	span.End(trace.WithTimestamp(now))
}

// PassStarted implements hooks.Observer.
func (t *Tracer) PassStarted(inst *hooks.Instance) func(error) {
	_, span := t.tracer.Start(context.Background(),
		fmt.Sprintf("hookrt.pass %s", inst.Kind()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.instanceAttrs(inst, attribute.Int("hookrt.pass", inst.Passes()+1))...),
		trace.WithTimestamp(time.Now()),
	)
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("hookrt.error_code", errorCode(err)))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// EffectRan implements hooks.Observer. The span is back-dated by d since
// the observer is only told about the effect once it finished.
func (t *Tracer) EffectRan(inst *hooks.Instance, position int, d time.Duration, err error) {
	end := time.Now()
	_, span := t.tracer.Start(context.Background(),
		fmt.Sprintf("hookrt.effect %s", inst.Kind()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.instanceAttrs(inst, attribute.Int("hookrt.position", position))...),
		trace.WithTimestamp(end.Add(-d)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("hookrt.error_code", errorCode(err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
