package hooks

import (
	"io"
	"log/slog"
	"testing"
)

type commitRecord struct {
	id     uint64
	output any
}

// recordingRenderer keeps every commit and unmount it receives.
type recordingRenderer struct {
	commits   []commitRecord
	unmounted []uint64
	onCommit  func(inst *Instance)
}

func (r *recordingRenderer) Commit(inst *Instance, output any) {
	r.commits = append(r.commits, commitRecord{id: inst.ID(), output: output})
	if r.onCommit != nil {
		r.onCommit(inst)
	}
}

func (r *recordingRenderer) Unmounted(inst *Instance) {
	r.unmounted = append(r.unmounted, inst.ID())
}

func (r *recordingRenderer) commitsFor(inst *Instance) int {
	n := 0
	for _, c := range r.commits {
		if c.id == inst.ID() {
			n++
		}
	}
	return n
}

func newTestRuntime(t *testing.T, configure ...func(*Options)) (*Runtime, *recordingRenderer) {
	t.Helper()
	rec := &recordingRenderer{}
	opts := Options{
		Renderer: rec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range configure {
		fn(&opts)
	}
	return New(opts), rec
}

func mustMount(t *testing.T, rt *Runtime, parent *Instance, kind string, render RenderFunc, props any) *Instance {
	t.Helper()
	inst, err := rt.Mount(parent, kind, render, props)
	if err != nil {
		t.Fatalf("Mount(%s) failed: %v", kind, err)
	}
	return inst
}

func mustFlush(t *testing.T, rt *Runtime) {
	t.Helper()
	if err := rt.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

func inc(n int) int { return n + 1 }
