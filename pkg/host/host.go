package host

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// ActionSource is implemented by component outputs that expose named
// actions, such as button handlers. Trigger looks actions up through it.
type ActionSource interface {
	Action(name string) (func(), bool)
}

// Host owns a hooks.Runtime and serializes access to it on one goroutine.
type Host struct {
	id     string
	rt     *hooks.Runtime
	logger *slog.Logger

	onError func(error)

	dispatchCh chan func()
	wakeCh     chan struct{}
	done       chan struct{}
	closeOnce  sync.Once

	running atomic.Bool
	closed  atomic.Bool

	subMu   sync.RWMutex
	subs    map[int]chan Commit
	nextSub int

	commits atomic.Uint64
	dropped atomic.Uint64
}

// New creates a Host. The loop does not run until Run is called.
func New(config Config) *Host {
	config = config.withDefaults()

	h := &Host{
		id:         uuid.New().String(),
		onError:    config.OnError,
		dispatchCh: make(chan func(), config.QueueSize),
		wakeCh:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		subs:       make(map[int]chan Commit),
	}
	h.logger = config.Logger.With("component", "host", "host", h.id)
	h.rt = hooks.New(hooks.Options{
		Renderer:          h,
		Observer:          config.Observer,
		Logger:            config.Logger.With("component", "hooks", "host", h.id),
		MaxPassesPerFlush: config.MaxPassesPerFlush,
		OnSchedule:        h.wake,
		OnEffectError: func(err *hooks.EffectExecutionError) {
			h.report(err)
		},
	})
	return h
}

// ID returns the host's unique identifier.
func (h *Host) ID() string {
	return h.id
}

// Run processes dispatched functions and scheduled updates until ctx is
// done or Close is called. On exit every mounted instance is unmounted on
// the loop goroutine.
func (h *Host) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	if h.closed.Load() {
		return ErrClosed
	}
	defer h.shutdown()

	h.logger.Info("host started")
	for {
		select {
		case fn := <-h.dispatchCh:
			h.executeDispatch(fn)

		case <-h.wakeCh:
			h.flush()

		case <-ctx.Done():
			return nil

		case <-h.done:
			return nil
		}
	}
}

// Close stops the loop. It is safe to call more than once and from any
// goroutine.
func (h *Host) Close() {
	h.closed.Store(true)
	h.closeOnce.Do(func() { close(h.done) })
}

// Done returns a channel that is closed when the host is closed.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

func (h *Host) shutdown() {
	h.Close()

	if err := h.rt.UnmountAll(); err != nil {
		h.logger.Error("unmount on shutdown failed", "error", err)
	}

	h.subMu.Lock()
	for key, ch := range h.subs {
		close(ch)
		delete(h.subs, key)
	}
	h.subMu.Unlock()

	h.logger.Info("host stopped",
		"commits", h.commits.Load(),
		"dropped_events", h.dropped.Load())
}

// Dispatch queues fn to run on the loop. The runtime is flushed after fn
// returns, so state written by fn is rendered before the next dispatched
// function runs. Safe to call from any goroutine.
func (h *Host) Dispatch(fn func()) error {
	if h.closed.Load() {
		return ErrClosed
	}
	select {
	case h.dispatchCh <- fn:
		return nil
	case <-h.done:
		return ErrClosed
	default:
		h.logger.Warn("dispatch queue full, discarding callback")
		return ErrQueueFull
	}
}

// Do runs fn on the loop with the runtime and waits for it and the
// resulting flush to finish. It returns fn's error.
func (h *Host) Do(ctx context.Context, fn func(rt *hooks.Runtime) error) error {
	result := make(chan error, 1)
	err := h.Dispatch(func() {
		var fnErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					fnErr = fmt.Errorf("host: panic: %v", r)
					h.logger.Error("dispatch panic", "panic", r, "stack", string(debug.Stack()))
				}
			}()
			fnErr = fn(h.rt)
		}()
		h.flush()
		result <- fnErr
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		// The loop may have run fn just before closing.
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Mount mounts render under the instance with ID parent, or as a root when
// parent is 0, and returns the new instance's ID. A failed first pass
// returns the ID of the failed instance together with the error.
func (h *Host) Mount(ctx context.Context, parent uint64, kind string, render hooks.RenderFunc, props any) (uint64, error) {
	var id uint64
	err := h.Do(ctx, func(rt *hooks.Runtime) error {
		var p *hooks.Instance
		if parent != 0 {
			var ok bool
			if p, ok = rt.Find(parent); !ok {
				return fmt.Errorf("mount %s under %d: %w", kind, parent, ErrNotFound)
			}
		}
		inst, err := rt.Mount(p, kind, render, props)
		if inst != nil {
			id = inst.ID()
		}
		return err
	})
	return id, err
}

// Unmount unmounts the instance with the given ID and its subtree.
func (h *Host) Unmount(ctx context.Context, id uint64) error {
	return h.Do(ctx, func(rt *hooks.Runtime) error {
		inst, ok := rt.Find(id)
		if !ok {
			return fmt.Errorf("unmount %d: %w", id, ErrNotFound)
		}
		return rt.Unmount(inst)
	})
}

// SetProps replaces the props of the instance with the given ID.
func (h *Host) SetProps(ctx context.Context, id uint64, props any) error {
	return h.Do(ctx, func(rt *hooks.Runtime) error {
		inst, ok := rt.Find(id)
		if !ok {
			return fmt.Errorf("set props of %d: %w", id, ErrNotFound)
		}
		return rt.SetProps(inst, props)
	})
}

// Trigger invokes the named action of the last output committed by the
// instance with the given ID. The output must implement ActionSource.
func (h *Host) Trigger(ctx context.Context, id uint64, action string) error {
	return h.Do(ctx, func(rt *hooks.Runtime) error {
		inst, ok := rt.Find(id)
		if !ok {
			return fmt.Errorf("trigger %q on %d: %w", action, id, ErrNotFound)
		}
		src, ok := inst.Output().(ActionSource)
		if !ok {
			return fmt.Errorf("trigger %q on %s#%d: %w", action, inst.Kind(), id, ErrUnknownAction)
		}
		fn, ok := src.Action(action)
		if !ok {
			return fmt.Errorf("trigger %q on %s#%d: %w", action, inst.Kind(), id, ErrUnknownAction)
		}
		h.logger.Debug("action triggered", "instance", id, "component", inst.Kind(), "action", action)
		fn()
		return nil
	})
}

// Snapshot returns the current instance tree.
func (h *Host) Snapshot(ctx context.Context) ([]hooks.InstanceInfo, error) {
	var snap []hooks.InstanceInfo
	err := h.Do(ctx, func(rt *hooks.Runtime) error {
		snap = rt.Snapshot()
		return nil
	})
	return snap, err
}

// Inspect returns the snapshot of the instance with the given ID.
func (h *Host) Inspect(ctx context.Context, id uint64) (hooks.InstanceInfo, error) {
	var info hooks.InstanceInfo
	err := h.Do(ctx, func(rt *hooks.Runtime) error {
		inst, ok := rt.Find(id)
		if !ok {
			return fmt.Errorf("inspect %d: %w", id, ErrNotFound)
		}
		info = inst.Inspect()
		return nil
	})
	return info, err
}

// Output returns the last committed output of the instance with the given
// ID.
func (h *Host) Output(ctx context.Context, id uint64) (any, error) {
	var out any
	err := h.Do(ctx, func(rt *hooks.Runtime) error {
		inst, ok := rt.Find(id)
		if !ok {
			return fmt.Errorf("output of %d: %w", id, ErrNotFound)
		}
		out = inst.Output()
		return nil
	})
	return out, err
}

// Stats reports how many commits were published and how many events were
// dropped because a subscriber was slow.
func (h *Host) Stats() (commits, dropped uint64) {
	return h.commits.Load(), h.dropped.Load()
}

// executeDispatch runs a dispatched function and flushes the runtime.
func (h *Host) executeDispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
			h.flush()
		}
	}()

	fn()
	h.flush()
}

func (h *Host) flush() {
	err := h.rt.Flush()
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			h.report(e)
		}
		return
	}
	h.report(err)
}

// wake nudges the loop after a state write from any goroutine.
func (h *Host) wake() {
	select {
	case h.wakeCh <- struct{}{}:
	default:
		// Already signalled
	}
}

func (h *Host) report(err error) {
	if h.onError != nil {
		h.onError(err)
	}
}

// Commit implements hooks.Renderer.
func (h *Host) Commit(inst *hooks.Instance, output any) {
	h.publish(Commit{
		Instance:  inst.ID(),
		Component: inst.Kind(),
		Pass:      inst.Passes(),
		Output:    output,
		Time:      time.Now(),
	})
}

// Unmounted implements hooks.Renderer.
func (h *Host) Unmounted(inst *hooks.Instance) {
	h.publish(Commit{
		Instance:  inst.ID(),
		Component: inst.Kind(),
		Pass:      inst.Passes(),
		Unmounted: true,
		Time:      time.Now(),
	})
}
