package hooks

import "sync"

// Ref holds a mutable value that survives across passes. Writes are
// immediate and never schedule an update.
//
// Ref[T] is safe for concurrent access.
type Ref[T any] struct {
	mu    sync.RWMutex
	value T
}

// Current returns the current value of the ref.
func (r *Ref[T]) Current() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the ref's value.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
}

func (r *Ref[T]) current() any {
	return r.Current()
}

// UseRef returns the ref stored in the next cell, creating it with initial
// on the first pass. The same *Ref is returned on every pass.
//
// Example:
//
//	renders := hooks.UseRef(s, 0)
//	renders.Set(renders.Current() + 1)
func UseRef[T any](s *Scope, initial T) *Ref[T] {
	c, _ := s.next(CellRef, func() cell {
		return &refCell{ref: &Ref[T]{value: initial}}
	})
	rc := c.(*refCell)

	ref, ok := rc.ref.(*Ref[T])
	if !ok {
		s.inst.store.typeMismatch(s.inst, CellRef, holderType(rc.ref), typeName[T]())
	}
	return ref
}

func (r *Ref[T]) valueType() string {
	return typeName[T]()
}

func holderType(h any) string {
	if t, ok := h.(interface{ valueType() string }); ok {
		return t.valueType()
	}
	return "unknown"
}
