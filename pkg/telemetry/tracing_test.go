package telemetry

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

type recordedSpan struct {
	noop.Span

	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

type recordingTracer struct {
	noop.Tracer

	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	config := trace.NewSpanStartConfig(opts...)
	span := &recordedSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	span.SetAttributes(config.Attributes()...)

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	return ctx, span
}

func (t *recordingTracer) named(name string) []*recordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*recordedSpan
	for _, s := range t.spans {
		if s.name == name {
			out = append(out, s)
		}
	}
	return out
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
	name   string
}

func (p *recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.name = name
	return p.tracer
}

func TestTracerRecordsPassesAndEffects(t *testing.T) {
	provider := &recordingProvider{tracer: &recordingTracer{}}
	tracer := NewTracer(
		WithTracerProvider(provider),
		WithTracerName("test"),
		WithAttributes(attribute.String("hookrt.host", "h1")),
	)
	rt := hooks.New(hooks.Options{Observer: tracer, Logger: discardLogger()})

	var set *hooks.Setter[int]
	inst, err := rt.Mount(nil, "Clock", func(s *hooks.Scope) any {
		n, setter := hooks.UseState(s, 0)
		set = setter
		hooks.UseEffect(s, func() hooks.Cleanup {
			if n == 1 {
				panic("tick failed")
			}
			return nil
		}, hooks.On(n))
		return n
	}, nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	set.Set(1)
	if err := rt.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := rt.Unmount(inst); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}

	if provider.name != "test" {
		t.Errorf("expected tracer name %q, got %q", "test", provider.name)
	}

	passes := provider.tracer.named("hookrt.pass Clock")
	if len(passes) != 2 {
		t.Fatalf("expected 2 pass spans, got %d", len(passes))
	}
	for i, span := range passes {
		if !span.ended || span.status != codes.Ok {
			t.Errorf("pass span %d: ended=%v status=%v", i, span.ended, span.status)
		}
		if got := span.attrs["hookrt.pass"].AsInt64(); got != int64(i+1) {
			t.Errorf("pass span %d: hookrt.pass=%d", i, got)
		}
		if got := span.attrs["hookrt.host"].AsString(); got != "h1" {
			t.Errorf("pass span %d: missing host attribute", i)
		}
	}

	effects := provider.tracer.named("hookrt.effect Clock")
	if len(effects) != 2 {
		t.Fatalf("expected 2 effect spans, got %d", len(effects))
	}
	if effects[0].status != codes.Ok {
		t.Errorf("first effect status = %v, want Ok", effects[0].status)
	}
	failed := effects[1]
	if failed.status != codes.Error || len(failed.errs) != 1 {
		t.Errorf("failed effect: status=%v errors=%d", failed.status, len(failed.errs))
	}
	if got := failed.attrs["hookrt.error_code"].AsString(); got != hooks.CodeEffect {
		t.Errorf("error code attribute = %q, want %q", got, hooks.CodeEffect)
	}
	if got := failed.attrs["hookrt.position"].AsInt64(); got != 1 {
		t.Errorf("position attribute = %d, want 1", got)
	}

	if len(provider.tracer.named("hookrt.mount Clock")) != 1 || len(provider.tracer.named("hookrt.unmount Clock")) != 1 {
		t.Error("expected one mount and one unmount span")
	}
}

func TestTracerRecordsFailedPass(t *testing.T) {
	provider := &recordingProvider{tracer: &recordingTracer{}}
	rt := hooks.New(hooks.Options{
		Observer: NewTracer(WithTracerProvider(provider)),
		Logger:   discardLogger(),
	})

	if _, err := rt.Mount(nil, "Broken", func(*hooks.Scope) any { panic("nope") }, nil); err == nil {
		t.Fatal("expected render panic")
	}

	passes := provider.tracer.named("hookrt.pass Broken")
	if len(passes) != 1 {
		t.Fatalf("expected 1 pass span, got %d", len(passes))
	}
	if passes[0].status != codes.Error || passes[0].attrs["hookrt.error_code"].AsString() != hooks.CodeRenderPanic {
		t.Errorf("unexpected failed pass span: %+v", passes[0])
	}
	if provider.name != defaultTracerName {
		t.Errorf("expected default tracer name, got %q", provider.name)
	}
}

func TestTracerDefaultsToGlobalProvider(t *testing.T) {
	tracer := NewTracer()
	rt := hooks.New(hooks.Options{Observer: tracer, Logger: discardLogger()})

	if _, err := rt.Mount(nil, "Quiet", func(*hooks.Scope) any { return nil }, nil); err != nil {
		t.Fatalf("Mount with the global provider failed: %v", err)
	}
}
