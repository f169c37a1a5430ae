package hooks

import (
	"fmt"
	"reflect"
	"sync"
)

// CellKind identifies the kind of a cell. The kind stored at a position
// never changes once the cell is created.
type CellKind uint8

const (
	CellState CellKind = iota + 1
	CellRef
	CellMemo
	CellEffect
)

// String returns a human-readable name for the cell kind.
func (k CellKind) String() string {
	switch k {
	case CellState:
		return "State"
	case CellRef:
		return "Ref"
	case CellMemo:
		return "Memo"
	case CellEffect:
		return "Effect"
	default:
		return "Unknown"
	}
}

// cell is one slot in an instance's cell store.
type cell interface {
	kind() CellKind
	info(pos int) CellInfo
}

// valueHolder is implemented by typed boxes stored inside cells so that
// snapshots can read a value without knowing its type.
type valueHolder interface {
	current() any
}

// stateUpdate is one queued write: either a value or an updater.
type stateUpdate struct {
	value any
	fn    func(any) any
}

type stateCell struct {
	// value is only written by apply, on the goroutine running passes.
	value any

	// setter is the *Setter[T] handed out on every pass. Its dynamic type
	// also records T for identity checks.
	setter any

	mu      sync.Mutex
	pending []stateUpdate
}

func (c *stateCell) kind() CellKind { return CellState }

func (c *stateCell) info(pos int) CellInfo {
	c.mu.Lock()
	pending := len(c.pending)
	c.mu.Unlock()
	return CellInfo{
		Position: pos,
		Kind:     CellState.String(),
		Value:    describe(c.value),
		Pending:  pending,
	}
}

// enqueue buffers a write. It is safe to call from any goroutine.
func (c *stateCell) enqueue(u stateUpdate) {
	c.mu.Lock()
	c.pending = append(c.pending, u)
	c.mu.Unlock()
}

// apply folds the buffered writes into the value, oldest first.
func (c *stateCell) apply() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, u := range pending {
		if u.fn != nil {
			c.value = u.fn(c.value)
		} else {
			c.value = u.value
		}
	}
}

type refCell struct {
	ref valueHolder
}

func (c *refCell) kind() CellKind { return CellRef }

func (c *refCell) info(pos int) CellInfo {
	return CellInfo{Position: pos, Kind: CellRef.String(), Value: describe(c.ref.current())}
}

type memoCell struct {
	box  valueHolder
	deps Deps
}

func (c *memoCell) kind() CellKind { return CellMemo }

func (c *memoCell) info(pos int) CellInfo {
	return CellInfo{
		Position: pos,
		Kind:     CellMemo.String(),
		Value:    describe(c.box.current()),
		Deps:     c.deps.Mode().String(),
	}
}

type effectCell struct {
	pos     int
	fn      func() Cleanup
	deps    Deps
	cleanup Cleanup
	due     bool
	runs    int
}

func (c *effectCell) kind() CellKind { return CellEffect }

func (c *effectCell) info(pos int) CellInfo {
	return CellInfo{
		Position:   pos,
		Kind:       CellEffect.String(),
		Deps:       c.deps.Mode().String(),
		Runs:       c.runs,
		HasCleanup: c.cleanup != nil,
	}
}

// cellStore is the ordered cell storage of one instance.
type cellStore struct {
	cells  []cell
	cursor int

	// passes counts completed passes. Once it is non-zero the cell
	// layout is fixed.
	passes int

	// fault holds the first structural error of the current pass, so a
	// render function that recovers the panic still fails at end.
	fault error
}

// begin resets the cursor and makes buffered state writes visible.
func (s *cellStore) begin() {
	s.cursor = 0
	s.fault = nil
	for _, c := range s.cells {
		if sc, ok := c.(*stateCell); ok {
			sc.apply()
		}
	}
}

// next consumes the next position. On the first pass it creates the cell;
// afterwards it returns the stored cell after checking its kind. It panics
// with a structural error on mismatch.
func (s *cellStore) next(inst *Instance, kind CellKind, create func() cell) (cell, bool) {
	if s.fault != nil {
		panic(s.fault)
	}

	pos := s.cursor
	s.cursor++

	if pos < len(s.cells) {
		c := s.cells[pos]
		if c.kind() != kind {
			s.fault = &CellIdentityError{
				Instance:  inst.id,
				Component: inst.kind,
				Position:  pos,
				Stored:    c.kind(),
				Requested: kind,
			}
			panic(s.fault)
		}
		return c, false
	}

	if s.passes > 0 {
		s.fault = &CellCountMismatchError{
			Instance:  inst.id,
			Component: inst.kind,
			Expected:  len(s.cells),
			Got:       pos + 1,
			Kind:      kind,
		}
		panic(s.fault)
	}

	c := create()
	if ec, ok := c.(*effectCell); ok {
		ec.pos = pos
	}
	s.cells = append(s.cells, c)
	return c, true
}

// typeMismatch records and raises an identity error for a cell whose kind
// matches but whose Go value type does not.
func (s *cellStore) typeMismatch(inst *Instance, kind CellKind, stored, requested string) {
	s.fault = &CellIdentityError{
		Instance:      inst.id,
		Component:     inst.kind,
		Position:      s.cursor - 1,
		Stored:        kind,
		Requested:     kind,
		StoredType:    stored,
		RequestedType: requested,
	}
	panic(s.fault)
}

// end checks that the pass consumed as many cells as the first pass.
func (s *cellStore) end(inst *Instance) error {
	if s.fault != nil {
		return s.fault
	}
	if s.passes > 0 && s.cursor != len(s.cells) {
		s.fault = &CellCountMismatchError{
			Instance:  inst.id,
			Component: inst.kind,
			Expected:  len(s.cells),
			Got:       s.cursor,
		}
		return s.fault
	}
	s.passes++
	return nil
}

// dueEffects returns the effect cells marked due this pass, in ascending
// position order, and clears their flags.
func (s *cellStore) dueEffects() []*effectCell {
	var due []*effectCell
	for _, c := range s.cells {
		if ec, ok := c.(*effectCell); ok && ec.due {
			ec.due = false
			due = append(due, ec)
		}
	}
	return due
}

// effects returns every effect cell in ascending position order.
func (s *cellStore) effects() []*effectCell {
	var out []*effectCell
	for _, c := range s.cells {
		if ec, ok := c.(*effectCell); ok {
			out = append(out, ec)
		}
	}
	return out
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func describe(v any) string {
	return fmt.Sprintf("%v", v)
}
