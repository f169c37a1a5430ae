package hooks

// Setter queues writes to a state cell. Writes never change the value seen
// by the pass in progress; they become visible when the next pass of the
// instance begins, applied in the order they were queued. Every write
// schedules an update.
//
// The same *Setter is returned on every pass, so it is safe to capture in
// effects and to use as a dependency. Setter methods are safe to call from
// any goroutine. Writes to an unmounted or failed instance are dropped.
type Setter[T any] struct {
	cell *stateCell
	inst *Instance
}

// Set queues v as the next value.
func (s *Setter[T]) Set(v T) {
	s.enqueue(stateUpdate{value: v})
}

// Update queues fn, which receives the value produced by all writes queued
// before it. Three Update(inc) calls in one batch yield three increments.
func (s *Setter[T]) Update(fn func(T) T) {
	s.enqueue(stateUpdate{fn: func(prev any) any {
		return fn(valueAs[T](prev))
	}})
}

func (s *Setter[T]) enqueue(u stateUpdate) {
	if !s.inst.Status().acceptsUpdates() {
		s.inst.rt.logger.Debug("state write dropped",
			"instance", s.inst.id,
			"component", s.inst.kind,
			"status", s.inst.Status())
		return
	}
	s.cell.enqueue(u)
	s.inst.rt.ScheduleUpdate(s.inst)
}

// UseState returns the current value of the next state cell and its setter.
// initial is only used on the first pass.
//
// Example:
//
//	count, setCount := hooks.UseState(s, 0)
//	onClick := func() { setCount.Update(func(n int) int { return n + 1 }) }
func UseState[T any](s *Scope, initial T) (T, *Setter[T]) {
	return useState(s, func() T { return initial })
}

// UseStateFunc is UseState with a lazily computed initial value. init runs
// on the first pass only.
func UseStateFunc[T any](s *Scope, init func() T) (T, *Setter[T]) {
	return useState(s, init)
}

func useState[T any](s *Scope, init func() T) (T, *Setter[T]) {
	c, created := s.next(CellState, func() cell {
		return &stateCell{value: init()}
	})
	sc := c.(*stateCell)
	if created {
		sc.setter = &Setter[T]{cell: sc, inst: s.inst}
	}

	setter, ok := sc.setter.(*Setter[T])
	if !ok {
		s.inst.store.typeMismatch(s.inst, CellState, setterType(sc.setter), typeName[T]())
	}
	return valueAs[T](sc.value), setter
}

// UseReducer keeps state that changes through dispatched actions. The
// reducer from the most recent pass handles every action, and dispatch is
// stable across passes. It occupies three cells (state, ref, memo).
func UseReducer[S, A any](s *Scope, reducer func(S, A) S, initial S) (S, func(A)) {
	state, set := UseState(s, initial)
	current := UseRef(s, reducer)
	current.Set(reducer)

	dispatch := UseCallback(s, func(action A) {
		set.Update(func(prev S) S {
			return current.Current()(prev, action)
		})
	}, Once())
	return state, dispatch
}

func valueAs[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

func setterType(setter any) string {
	if t, ok := setter.(interface{ valueType() string }); ok {
		return t.valueType()
	}
	return "unknown"
}

func (s *Setter[T]) valueType() string {
	return typeName[T]()
}
