package hooks

import "time"

// Observer receives runtime lifecycle notifications. It is the extension
// point for metrics and tracing; see pkg/telemetry.
//
// All methods are called on the goroutine driving the Runtime and must not
// call back into it.
type Observer interface {
	// InstanceMounted is called before the first pass of an instance.
	InstanceMounted(inst *Instance)

	// InstanceUnmounted is called after an instance's cleanups ran.
	InstanceUnmounted(inst *Instance)

	// PassStarted is called when a pass begins. The returned function is
	// called with the pass result once the output is committed or the
	// pass failed.
	PassStarted(inst *Instance) func(err error)

	// EffectRan is called after each effect invocation, and after each
	// failed cleanup. err is nil on success, otherwise an
	// *EffectExecutionError.
	EffectRan(inst *Instance, position int, d time.Duration, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) InstanceMounted(*Instance)   {}
func (NopObserver) InstanceUnmounted(*Instance) {}

func (NopObserver) PassStarted(*Instance) func(error) {
	return func(error) {}
}

func (NopObserver) EffectRan(*Instance, int, time.Duration, error) {}

// MultiObserver fans notifications out to several observers in order.
func MultiObserver(observers ...Observer) Observer {
	var list multiObserver
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return NopObserver{}
	case 1:
		return list[0]
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) InstanceMounted(inst *Instance) {
	for _, o := range m {
		o.InstanceMounted(inst)
	}
}

func (m multiObserver) InstanceUnmounted(inst *Instance) {
	for _, o := range m {
		o.InstanceUnmounted(inst)
	}
}

func (m multiObserver) PassStarted(inst *Instance) func(error) {
	finishers := make([]func(error), len(m))
	for i, o := range m {
		finishers[i] = o.PassStarted(inst)
	}
	return func(err error) {
		for i := len(finishers) - 1; i >= 0; i-- {
			finishers[i](err)
		}
	}
}

func (m multiObserver) EffectRan(inst *Instance, position int, d time.Duration, err error) {
	for _, o := range m {
		o.EffectRan(inst, position, d, err)
	}
}
