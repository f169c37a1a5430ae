package hooks

// Scope is the cursor handed to a render function for one pass. Every
// Use* call consumes the next cell position of the instance, so the
// sequence of calls must be the same on every pass.
//
// A Scope is only valid while its pass runs. Keeping it in a closure and
// calling a hook from an effect or event handler panics.
type Scope struct {
	inst   *Instance
	rt     *Runtime
	active bool
}

// Instance returns the instance being rendered.
func (s *Scope) Instance() *Instance {
	return s.inst
}

// Props returns the props the instance was mounted or last updated with.
func (s *Scope) Props() any {
	return s.inst.props
}

// PropsAs returns the props as T, or the zero T when the props are nil
// or hold another type.
func PropsAs[T any](s *Scope) T {
	p, _ := s.inst.props.(T)
	return p
}

func (s *Scope) check() {
	if !s.active {
		panic(&scopeError{Instance: s.inst.id, Component: s.inst.kind})
	}
}

func (s *Scope) next(kind CellKind, create func() cell) (cell, bool) {
	s.check()
	return s.inst.store.next(s.inst, kind, create)
}
