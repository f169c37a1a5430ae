package hooks

// Cleanup is returned by an effect to undo what it started. It runs before
// the effect runs again and once when the instance unmounts.
type Cleanup func()

// UseEffect registers effect in the next cell. The effect runs after the
// pass commits: on the first pass, and on later passes when deps changed.
// Before a re-run, the cleanup returned by the previous run is called.
//
//	hooks.UseEffect(s, func() hooks.Cleanup {
//	    t := time.AfterFunc(time.Second, func() { setDone.Set(true) })
//	    return func() { t.Stop() }
//	}, hooks.Once())
//
// An effect that panics is reported as an EffectExecutionError and does
// not stop other effects.
func UseEffect(s *Scope, effect func() Cleanup, deps Deps) {
	c, created := s.next(CellEffect, func() cell {
		return &effectCell{}
	})
	ec := c.(*effectCell)

	var prev *Deps
	if !created {
		prev = &ec.deps
	}
	if Changed(prev, deps) {
		ec.fn = effect
		ec.due = true
	}
	ec.deps = deps
}

// OnMount runs fn once after the first pass commits.
func OnMount(s *Scope, fn func()) {
	UseEffect(s, func() Cleanup {
		fn()
		return nil
	}, Once())
}

// OnUnmount runs fn when the instance unmounts.
func OnUnmount(s *Scope, fn func()) {
	UseEffect(s, func() Cleanup {
		return fn
	}, Once())
}
