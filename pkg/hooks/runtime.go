package hooks

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultMaxPassesPerFlush bounds how many passes one instance may run in
// a single Flush before Flush gives up with an UpdateDepthError.
const DefaultMaxPassesPerFlush = 50

// RenderFunc is a component. It is called once per pass with a fresh
// Scope, must call Use* functions in the same order every pass, and
// returns a description of the output for the Renderer.
type RenderFunc func(s *Scope) any

// Renderer is the presentation layer fed by the Runtime. It receives the
// committed output of every successful pass.
type Renderer interface {
	// Commit is called after a pass and before its effects run.
	Commit(inst *Instance, output any)

	// Unmounted is called once an instance has been torn down.
	Unmounted(inst *Instance)
}

// Options configures a Runtime.
type Options struct {
	// Renderer receives committed output. Optional.
	Renderer Renderer

	// Observer receives lifecycle notifications. Default: NopObserver.
	Observer Observer

	// Logger is the structured logger.
	// Default: slog.Default().With("component", "hooks").
	Logger *slog.Logger

	// MaxPassesPerFlush bounds re-render loops.
	// Default: DefaultMaxPassesPerFlush.
	MaxPassesPerFlush int

	// OnSchedule is called every time an instance is added to the update
	// queue. Hosts use it to wake their loop; it may be called from any
	// goroutine and must not block.
	OnSchedule func()

	// OnEffectError receives effect and cleanup failures in addition to
	// the log line. Optional.
	OnEffectError func(*EffectExecutionError)
}

// Runtime is the render coordinator. It mounts instances, runs their
// passes, commits output, runs effects and tears instances down.
//
// # Threading
//
// ScheduleUpdate and the Setter methods are safe for concurrent use. Every
// other method must be called from one goroutine at a time (pkg/host
// provides such a loop). Passes never overlap: updates requested while a
// pass or effect is running are queued and picked up by Flush.
type Runtime struct {
	renderer      Renderer
	observer      Observer
	logger        *slog.Logger
	maxPasses     int
	onSchedule    func()
	onEffectError func(*EffectExecutionError)

	registry *registry

	mu    sync.Mutex
	queue map[*Instance]struct{}

	roots    []*Instance
	inPass   bool
	flushing bool

	// effectDepth is non-zero while effects or cleanups run.
	effectDepth int
}

// New creates a Runtime.
func New(opts Options) *Runtime {
	rt := &Runtime{
		renderer:      opts.Renderer,
		observer:      opts.Observer,
		logger:        opts.Logger,
		maxPasses:     opts.MaxPassesPerFlush,
		onSchedule:    opts.OnSchedule,
		onEffectError: opts.OnEffectError,
		registry:      newRegistry(),
		queue:         make(map[*Instance]struct{}),
	}
	if rt.observer == nil {
		rt.observer = NopObserver{}
	}
	if rt.logger == nil {
		rt.logger = slog.Default().With("component", "hooks")
	}
	if rt.maxPasses <= 0 {
		rt.maxPasses = DefaultMaxPassesPerFlush
	}
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Mount creates an instance of render under parent (nil for a root), runs
// its first pass, commits the output and runs its effects. Updates queued
// by those effects wait for the next Flush.
//
// If the first pass fails the instance is returned in StatusFailed along
// with the error; the caller decides whether to unmount it.
func (rt *Runtime) Mount(parent *Instance, kind string, render RenderFunc, props any) (*Instance, error) {
	if rt.inPass {
		return nil, ErrReentrant
	}
	if render == nil {
		return nil, fmt.Errorf("hooks: mount %q: nil render function", kind)
	}
	if parent != nil {
		if parent.rt != rt {
			return nil, fmt.Errorf("hooks: mount %q: parent belongs to another runtime", kind)
		}
		if parent.Status() == StatusUnmounted {
			return nil, fmt.Errorf("hooks: mount %q: %w", kind, ErrUnmounted)
		}
	}

	inst := &Instance{
		id:     nextID(),
		kind:   kind,
		rt:     rt,
		render: render,
		props:  props,
		parent: parent,
	}
	inst.setStatus(StatusIdle)

	if parent != nil {
		inst.depth = parent.depth + 1
		parent.children = append(parent.children, inst)
	} else {
		rt.roots = append(rt.roots, inst)
	}

	rt.observer.InstanceMounted(inst)
	rt.logger.Debug("instance mounted", "instance", inst.id, "component", kind, "depth", inst.depth)

	if err := rt.pass(inst); err != nil {
		return inst, err
	}
	return inst, nil
}

// ScheduleUpdate queues a pass for inst. Requests for an instance that is
// already queued coalesce into one pass. Requests for unmounted or failed
// instances are ignored. Safe to call from any goroutine.
func (rt *Runtime) ScheduleUpdate(inst *Instance) {
	if inst == nil || !inst.Status().acceptsUpdates() {
		return
	}

	rt.mu.Lock()
	if _, queued := rt.queue[inst]; queued {
		rt.mu.Unlock()
		return
	}
	rt.queue[inst] = struct{}{}
	rt.mu.Unlock()

	if rt.onSchedule != nil {
		rt.onSchedule()
	}
}

// Pending returns the number of instances waiting for a pass.
func (rt *Runtime) Pending() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.queue)
}

// Flush runs queued passes until the queue is empty. Shallower instances
// render first, so a provider re-renders before its consumers. Passes
// scheduled by effects during the flush are run by the same flush.
//
// Structural failures of individual instances are collected and returned
// joined; they do not stop other instances. If one instance exceeds
// MaxPassesPerFlush, its pending pass is dropped, an *UpdateDepthError is
// added, and the rest of the queue is still processed.
//
// Calling Flush from an effect is a no-op: the running flush, or the
// caller's next Flush, picks the work up.
func (rt *Runtime) Flush() error {
	if rt.inPass {
		return ErrReentrant
	}
	if rt.flushing || rt.effectDepth > 0 {
		return nil
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	counts := make(map[*Instance]int)
	var errs []error
	for {
		inst := rt.popShallowest()
		if inst == nil {
			return errors.Join(errs...)
		}
		if inst.Status() != StatusIdle {
			continue
		}

		counts[inst]++
		if counts[inst] > rt.maxPasses {
			err := &UpdateDepthError{Instance: inst.id, Component: inst.kind, Passes: counts[inst] - 1}
			rt.logger.Error("update depth exceeded", "instance", inst.id, "component", inst.kind, "passes", counts[inst]-1)
			errs = append(errs, err)
			continue
		}

		if err := rt.pass(inst); err != nil {
			errs = append(errs, err)
		}
	}
}

// popShallowest removes and returns the queued instance closest to the
// root, breaking ties by mount order.
func (rt *Runtime) popShallowest() *Instance {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var best *Instance
	for inst := range rt.queue {
		if best == nil || inst.depth < best.depth || (inst.depth == best.depth && inst.id < best.id) {
			best = inst
		}
	}
	if best != nil {
		delete(rt.queue, best)
	}
	return best
}

// SetProps replaces the props of inst and schedules a pass.
func (rt *Runtime) SetProps(inst *Instance, props any) error {
	switch inst.Status() {
	case StatusUnmounted:
		return ErrUnmounted
	case StatusFailed:
		return inst.err
	}
	inst.props = props
	rt.ScheduleUpdate(inst)
	return nil
}

// Unmount tears down inst and its subtree: children first (last mounted
// first), then the instance's effect cleanups in ascending position
// order. Each cleanup runs exactly once and no effect of the instance
// runs afterwards. Unmounting an unmounted instance is a no-op.
func (rt *Runtime) Unmount(inst *Instance) error {
	if rt.inPass {
		return ErrReentrant
	}
	if inst.Status() == StatusUnmounted {
		return nil
	}

	rt.teardown(inst)

	if inst.parent != nil {
		inst.parent.removeChild(inst)
	} else {
		rt.removeRoot(inst)
	}
	return nil
}

// UnmountAll unmounts every root, last mounted first.
func (rt *Runtime) UnmountAll() error {
	roots := rt.Roots()
	var errs []error
	for i := len(roots) - 1; i >= 0; i-- {
		if err := rt.Unmount(roots[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rt *Runtime) teardown(inst *Instance) {
	inst.setStatus(StatusUnmounted)

	children := inst.children
	inst.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		rt.teardown(children[i])
	}

	for _, ec := range inst.store.effects() {
		if ec.cleanup == nil {
			continue
		}
		cleanup := ec.cleanup
		ec.cleanup = nil
		rt.invoke(inst, ec, "cleanup", func() { cleanup() })
	}

	rt.registry.drop(inst)

	rt.mu.Lock()
	delete(rt.queue, inst)
	rt.mu.Unlock()

	if rt.renderer != nil {
		rt.renderer.Unmounted(inst)
	}
	rt.observer.InstanceUnmounted(inst)
	rt.logger.Debug("instance unmounted", "instance", inst.id, "component", inst.kind)
}

func (rt *Runtime) removeRoot(inst *Instance) {
	for i, r := range rt.roots {
		if r == inst {
			rt.roots = append(rt.roots[:i], rt.roots[i+1:]...)
			return
		}
	}
}

// Roots returns a copy of the root instances in mount order.
func (rt *Runtime) Roots() []*Instance {
	return append([]*Instance(nil), rt.roots...)
}

// Find returns the mounted instance with the given ID.
func (rt *Runtime) Find(id uint64) (*Instance, bool) {
	var walk func([]*Instance) *Instance
	walk = func(list []*Instance) *Instance {
		for _, inst := range list {
			if inst.id == id {
				return inst
			}
			if found := walk(inst.children); found != nil {
				return found
			}
		}
		return nil
	}
	inst := walk(rt.roots)
	return inst, inst != nil
}

// pass runs one render pass of inst, commits it and runs due effects.
func (rt *Runtime) pass(inst *Instance) error {
	finish := rt.observer.PassStarted(inst)
	inst.setStatus(StatusRendering)

	scope := &Scope{inst: inst, rt: rt, active: true}
	rt.inPass = true
	output, err := rt.render(inst, scope)
	rt.inPass = false
	scope.active = false

	if err != nil {
		inst.err = err
		inst.setStatus(StatusFailed)
		rt.mu.Lock()
		delete(rt.queue, inst)
		rt.mu.Unlock()
		finish(err)
		rt.logger.Error("render pass failed", "instance", inst.id, "component", inst.kind, "error", err)
		return err
	}

	inst.setStatus(StatusCommitting)
	rt.withdrawStale(inst)
	inst.output = output
	if rt.renderer != nil {
		rt.renderer.Commit(inst, output)
	}
	finish(nil)

	rt.runEffects(inst)

	// Effects may have unmounted the instance.
	inst.casStatus(StatusCommitting, StatusIdle)
	return nil
}

func (rt *Runtime) render(inst *Instance, scope *Scope) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rt.renderFailure(inst, r)
		}
	}()

	inst.store.begin()
	output = inst.render(scope)
	err = inst.store.end(inst)
	return output, err
}

func (rt *Runtime) renderFailure(inst *Instance, r any) error {
	if err, ok := r.(error); ok && IsStructural(err) {
		return err
	}
	// A recovered structural panic still counts.
	if inst.store.fault != nil {
		return inst.store.fault
	}
	return &RenderPanicError{
		Instance:  inst.id,
		Component: inst.kind,
		Value:     r,
		Stack:     debug.Stack(),
	}
}

// runEffects runs the effects marked due by the last pass: first every
// pending cleanup, then every effect, both in ascending position order.
func (rt *Runtime) runEffects(inst *Instance) {
	due := inst.store.dueEffects()
	if len(due) == 0 {
		return
	}

	rt.effectDepth++
	defer func() { rt.effectDepth-- }()

	for _, ec := range due {
		if inst.Status() == StatusUnmounted {
			return
		}
		if ec.cleanup == nil {
			continue
		}
		cleanup := ec.cleanup
		ec.cleanup = nil
		rt.invoke(inst, ec, "cleanup", func() { cleanup() })
	}

	for _, ec := range due {
		if inst.Status() == StatusUnmounted {
			return
		}
		fn := ec.fn
		var cleanup Cleanup
		ok := rt.invoke(inst, ec, "effect", func() { cleanup = fn() })
		ec.runs++
		if !ok || cleanup == nil {
			continue
		}
		// The effect may have unmounted this instance or an ancestor;
		// teardown has already run, so nothing would run a stored cleanup.
		if inst.Status() == StatusUnmounted {
			rt.invoke(inst, ec, "cleanup", func() { cleanup() })
			return
		}
		ec.cleanup = cleanup
	}
}

// invoke calls fn, isolating panics as EffectExecutionErrors.
func (rt *Runtime) invoke(inst *Instance, ec *effectCell, phase string, fn func()) (ok bool) {
	start := time.Now()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := &EffectExecutionError{
			Instance:  inst.id,
			Component: inst.kind,
			Position:  ec.pos,
			Phase:     phase,
			Err:       panicError(r),
			Stack:     debug.Stack(),
		}
		rt.observer.EffectRan(inst, ec.pos, time.Since(start), err)
		rt.logger.Warn("effect failed",
			"instance", inst.id,
			"component", inst.kind,
			"position", ec.pos,
			"phase", phase,
			"error", err.Err)
		if rt.onEffectError != nil {
			rt.onEffectError(err)
		}
		ok = false
	}()

	fn()
	if phase == "effect" {
		rt.observer.EffectRan(inst, ec.pos, time.Since(start), nil)
	}
	return true
}

// invalidateConsumers schedules every descendant of provider that read
// key, without descending below nearer providers of key.
func (rt *Runtime) invalidateConsumers(provider *Instance, key contextIdentity) {
	var walk func(*Instance)
	walk = func(n *Instance) {
		for _, child := range n.children {
			if child.consumes(key) {
				rt.ScheduleUpdate(child)
			}
			if rt.registry.publishes(child, key) {
				continue
			}
			walk(child)
		}
	}
	walk(provider)
}

// withdrawStale removes the publications inst did not renew in the pass
// that just rendered and invalidates everything that read them.
func (rt *Runtime) withdrawStale(inst *Instance) {
	for _, key := range rt.registry.sweep(inst, inst.store.passes-1) {
		if inst.consumes(key) {
			rt.ScheduleUpdate(inst)
		}
		rt.invalidateConsumers(inst, key)
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
