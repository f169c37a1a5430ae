package hooks

import "sync/atomic"

// Status is the lifecycle state of an instance.
//
//	Unmounted <- Mounted{Idle -> Rendering -> Committing -> Idle} -> Unmounted
//
// Failed is entered when a pass raises a structural error or panics. A
// failed instance renders no further passes but can still be unmounted.
type Status uint32

const (
	StatusUnmounted Status = iota
	StatusIdle
	StatusRendering
	StatusCommitting
	StatusFailed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusUnmounted:
		return "unmounted"
	case StatusIdle:
		return "idle"
	case StatusRendering:
		return "rendering"
	case StatusCommitting:
		return "committing"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) acceptsUpdates() bool {
	return s == StatusIdle || s == StatusRendering || s == StatusCommitting
}

// Instance is one mounted occurrence of a render function. It owns its
// cells and knows its parent for context lookup.
//
// Apart from ID, Kind, Status and Parent, Instance accessors must be
// called from the goroutine that drives the Runtime.
type Instance struct {
	id     uint64
	kind   string
	rt     *Runtime
	render RenderFunc
	props  any

	// parent is a non-owning back-reference used for context lookup.
	// nil for roots.
	parent   *Instance
	children []*Instance
	depth    int

	status atomic.Uint32
	store  cellStore

	// consumed records the contexts read by any pass of this instance.
	consumed map[contextIdentity]struct{}

	output any
	err    error
}

// ID returns the unique identifier for this instance.
func (i *Instance) ID() uint64 {
	return i.id
}

// Kind returns the component name the instance was mounted with.
func (i *Instance) Kind() string {
	return i.kind
}

// Parent returns the parent instance, or nil for a root.
func (i *Instance) Parent() *Instance {
	return i.parent
}

// Status returns the lifecycle state. Safe to call from any goroutine.
func (i *Instance) Status() Status {
	return Status(i.status.Load())
}

// Children returns a copy of the child instances in mount order.
func (i *Instance) Children() []*Instance {
	return append([]*Instance(nil), i.children...)
}

// Depth returns the distance from the root (0 for roots).
func (i *Instance) Depth() int {
	return i.depth
}

// Props returns the current props.
func (i *Instance) Props() any {
	return i.props
}

// Output returns the output committed by the last successful pass.
func (i *Instance) Output() any {
	return i.output
}

// Err returns the error that moved the instance to StatusFailed.
func (i *Instance) Err() error {
	return i.err
}

// Passes returns the number of completed passes.
func (i *Instance) Passes() int {
	return i.store.passes
}

func (i *Instance) setStatus(s Status) {
	i.status.Store(uint32(s))
}

func (i *Instance) casStatus(from, to Status) bool {
	return i.status.CompareAndSwap(uint32(from), uint32(to))
}

func (i *Instance) consume(key contextIdentity) {
	if i.consumed == nil {
		i.consumed = make(map[contextIdentity]struct{})
	}
	i.consumed[key] = struct{}{}
}

func (i *Instance) consumes(key contextIdentity) bool {
	_, ok := i.consumed[key]
	return ok
}

func (i *Instance) removeChild(child *Instance) {
	for idx, c := range i.children {
		if c == child {
			i.children = append(i.children[:idx], i.children[idx+1:]...)
			return
		}
	}
}
