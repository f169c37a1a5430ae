package hooks

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Runtime.
var (
	// ErrUnmounted is returned when an operation targets an instance that
	// has already been unmounted.
	ErrUnmounted = errors.New("hooks: instance is unmounted")

	// ErrReentrant is returned when Mount, Unmount or Flush is called from
	// inside a render function. Work requested during a pass must go
	// through ScheduleUpdate instead.
	ErrReentrant = errors.New("hooks: runtime called from inside a render pass")

	// ErrUpdateDepthExceeded is matched by UpdateDepthError.
	ErrUpdateDepthExceeded = errors.New("hooks: update depth exceeded")

	// ErrScopeClosed is raised when a Scope is used after its pass ended.
	ErrScopeClosed = errors.New("hooks: scope used outside its render pass")
)

// Error codes shared with the CLI error registry.
const (
	CodeCellIdentity = "H001"
	CodeCellCount    = "H002"
	CodeEffect       = "H003"
	CodeRenderPanic  = "H004"
	CodeUpdateDepth  = "H005"
	CodeScopeClosed  = "H006"
)

// CellIdentityError reports a cell-creating call whose kind (or value
// type) does not match the cell stored at that position. The instance
// is marked failed and renders no further passes.
type CellIdentityError struct {
	Instance  uint64
	Component string
	Position  int
	Stored    CellKind
	Requested CellKind

	// StoredType and RequestedType are set when the kinds agree but the
	// Go value types differ, e.g. UseState[int] then UseState[string].
	StoredType    string
	RequestedType string
}

func (e *CellIdentityError) Error() string {
	if e.Stored == e.Requested && e.StoredType != e.RequestedType {
		return fmt.Sprintf("hooks: cell identity mismatch in %s#%d at position %d: stored %s[%s], requested %s[%s]",
			e.Component, e.Instance, e.Position, e.Stored, e.StoredType, e.Requested, e.RequestedType)
	}
	return fmt.Sprintf("hooks: cell identity mismatch in %s#%d at position %d: stored %s, requested %s",
		e.Component, e.Instance, e.Position, e.Stored, e.Requested)
}

// Code returns the error registry code.
func (e *CellIdentityError) Code() string { return CodeCellIdentity }

// CellCountMismatchError reports a pass that made a different number of
// cell-creating calls than the first pass of the same instance.
type CellCountMismatchError struct {
	Instance  uint64
	Component string
	Expected  int
	Got       int

	// Kind is the kind of the extra cell when the pass made too many
	// calls, and zero when it made too few.
	Kind CellKind
}

func (e *CellCountMismatchError) Error() string {
	if e.Kind != 0 {
		return fmt.Sprintf("hooks: cell count mismatch in %s#%d: expected %d cells, extra %s cell at position %d",
			e.Component, e.Instance, e.Expected, e.Kind, e.Got-1)
	}
	return fmt.Sprintf("hooks: cell count mismatch in %s#%d: expected %d cells, got %d",
		e.Component, e.Instance, e.Expected, e.Got)
}

// Code returns the error registry code.
func (e *CellCountMismatchError) Code() string { return CodeCellCount }

// EffectExecutionError reports an effect or cleanup callback that panicked.
// It is recoverable: other effects keep running.
type EffectExecutionError struct {
	Instance  uint64
	Component string
	Position  int

	// Phase is "effect" or "cleanup".
	Phase string

	Err   error
	Stack []byte
}

func (e *EffectExecutionError) Error() string {
	return fmt.Sprintf("hooks: %s at position %d in %s#%d failed: %v",
		e.Phase, e.Position, e.Component, e.Instance, e.Err)
}

func (e *EffectExecutionError) Unwrap() error { return e.Err }

// Code returns the error registry code.
func (e *EffectExecutionError) Code() string { return CodeEffect }

// StackTrace returns the goroutine stack captured at the panic.
func (e *EffectExecutionError) StackTrace() []byte { return e.Stack }

// RenderPanicError reports a render function (or a memo compute function
// it called) that panicked with something other than a cell error.
type RenderPanicError struct {
	Instance  uint64
	Component string
	Value     any
	Stack     []byte
}

func (e *RenderPanicError) Error() string {
	return fmt.Sprintf("hooks: render of %s#%d panicked: %v", e.Component, e.Instance, e.Value)
}

func (e *RenderPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Code returns the error registry code.
func (e *RenderPanicError) Code() string { return CodeRenderPanic }

// StackTrace returns the goroutine stack captured at the panic.
func (e *RenderPanicError) StackTrace() []byte { return e.Stack }

// UpdateDepthError is returned by Flush when one instance needed more
// passes than Options.MaxPassesPerFlush, usually because an effect sets
// state unconditionally.
type UpdateDepthError struct {
	Instance  uint64
	Component string
	Passes    int
}

func (e *UpdateDepthError) Error() string {
	return fmt.Sprintf("hooks: %s#%d re-rendered %d times in one flush", e.Component, e.Instance, e.Passes)
}

func (e *UpdateDepthError) Unwrap() error { return ErrUpdateDepthExceeded }

// Code returns the error registry code.
func (e *UpdateDepthError) Code() string { return CodeUpdateDepth }

// scopeError is raised when a closed Scope is used.
type scopeError struct {
	Instance  uint64
	Component string
}

func (e *scopeError) Error() string {
	return fmt.Sprintf("hooks: scope of %s#%d used outside its render pass", e.Component, e.Instance)
}

func (e *scopeError) Unwrap() error { return ErrScopeClosed }

func (e *scopeError) Code() string { return CodeScopeClosed }

// IsStructural reports whether err is a cell identity or count error.
func IsStructural(err error) bool {
	var identity *CellIdentityError
	var count *CellCountMismatchError
	return errors.As(err, &identity) || errors.As(err, &count)
}
