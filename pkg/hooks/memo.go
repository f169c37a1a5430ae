package hooks

// memoBox carries the typed value of a memo cell.
type memoBox[T any] struct {
	value T
}

func (b *memoBox[T]) current() any { return b.value }

func (b *memoBox[T]) valueType() string { return typeName[T]() }

// UseMemo returns a cached value, calling compute on the first pass and
// whenever deps changed since the previous pass. With Always, compute runs
// on every pass; with Once, only on the first.
//
// Example:
//
//	total := hooks.UseMemo(s, func() int { return sum(items) }, hooks.On(items))
func UseMemo[T any](s *Scope, compute func() T, deps Deps) T {
	c, created := s.next(CellMemo, func() cell {
		return &memoCell{box: &memoBox[T]{}}
	})
	mc := c.(*memoCell)

	box, ok := mc.box.(*memoBox[T])
	if !ok {
		s.inst.store.typeMismatch(s.inst, CellMemo, holderType(mc.box), typeName[T]())
	}

	var prev *Deps
	if !created {
		prev = &mc.deps
	}
	if Changed(prev, deps) {
		box.value = compute()
	}
	mc.deps = deps
	return box.value
}

// UseCallback returns fn as it was on the last pass where deps changed, so
// that a function value keeps its identity while its inputs do not change.
func UseCallback[T any](s *Scope, fn T, deps Deps) T {
	return UseMemo(s, func() T { return fn }, deps)
}
