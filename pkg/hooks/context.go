package hooks

import (
	"sort"
	"sync"
)

// Context is an identity under which a provider publishes a value for its
// subtree. Create contexts once, at package level:
//
//	var ThemeContext = hooks.CreateContext("theme", "light")
//
// A provider publishes with Provide and descendants read with UseContext.
// The nearest publishing ancestor wins; without one, the default is used.
type Context[T any] struct {
	name         string
	defaultValue T
}

// CreateContext creates a new context with the given default value. The
// name is only used for diagnostics.
func CreateContext[T any](name string, defaultValue T) *Context[T] {
	return &Context[T]{name: name, defaultValue: defaultValue}
}

// Name returns the diagnostic name of the context.
func (c *Context[T]) Name() string {
	return c.name
}

// Default returns the default value for this context.
func (c *Context[T]) Default() T {
	return c.defaultValue
}

// Read returns the value visible at inst without registering inst as a
// consumer. It is meant for hosts and tests; render functions use
// UseContext.
func (c *Context[T]) Read(inst *Instance) T {
	v, ok := inst.rt.registry.lookup(inst, c)
	if !ok {
		return c.defaultValue
	}
	return valueAs[T](v)
}

func (c *Context[T]) contextName() string {
	return c.name
}

// contextIdentity is implemented by every *Context[T].
type contextIdentity interface {
	contextName() string
}

// Provide publishes value for c at the rendering instance. It is visible to
// the instance and its whole subtree until the instance unmounts, or until
// a pass of the instance completes without calling Provide for c.
// Publishing a different value than the last pass (by Same), or ceasing to
// publish, schedules a pass for every descendant that read c, except those
// under a nearer provider of c.
//
// Provide does not occupy a cell.
func Provide[T any](s *Scope, c *Context[T], value T) {
	s.check()
	changed, fresh := s.rt.registry.publish(s.inst, c, value, s.inst.store.passes)
	if changed || (fresh && s.inst.store.passes > 0) {
		s.rt.invalidateConsumers(s.inst, c)
	}
}

// UseContext returns the value of c published by the nearest provider at or
// above the rendering instance, or c's default. The instance is recorded
// as a consumer of c and re-renders when that provider publishes a new
// value.
//
// UseContext does not occupy a cell.
func UseContext[T any](s *Scope, c *Context[T]) T {
	s.check()
	s.inst.consume(c)
	v, ok := s.rt.registry.lookup(s.inst, c)
	if !ok {
		return c.defaultValue
	}
	return valueAs[T](v)
}

// registry holds the values published at each instance. Lookups walk
// parent pointers only, so publication flows root to leaf and cannot form
// cycles.
type registry struct {
	mu        sync.RWMutex
	published map[*Instance]map[contextIdentity]publication
}

// publication is a published value and the pass that last renewed it.
type publication struct {
	value any
	pass  int
}

func newRegistry() *registry {
	return &registry{published: make(map[*Instance]map[contextIdentity]publication)}
}

// publish stores value for key at inst during the given pass. It reports
// whether an earlier value existed and differed, and whether this is the
// first publication.
func (r *registry) publish(inst *Instance, key contextIdentity, value any, pass int) (changed, fresh bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := r.published[inst]
	if values == nil {
		values = make(map[contextIdentity]publication)
		r.published[inst] = values
	}
	old, ok := values[key]
	values[key] = publication{value: value, pass: pass}
	if !ok {
		return false, true
	}
	return !Same(old.value, value), false
}

// sweep removes the publications of inst that were not renewed during the
// given pass and returns their keys.
func (r *registry) sweep(inst *Instance, pass int) []contextIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := r.published[inst]
	var stale []contextIdentity
	for key, p := range values {
		if p.pass != pass {
			stale = append(stale, key)
			delete(values, key)
		}
	}
	if values != nil && len(values) == 0 {
		delete(r.published, inst)
	}
	return stale
}

// lookup walks from inst toward the root and returns the first published
// value for key.
func (r *registry) lookup(inst *Instance, key contextIdentity) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for n := inst; n != nil; n = n.parent {
		if values, ok := r.published[n]; ok {
			if p, ok := values[key]; ok {
				return p.value, true
			}
		}
	}
	return nil, false
}

// publishes reports whether inst itself publishes key.
func (r *registry) publishes(inst *Instance, key contextIdentity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.published[inst][key]
	return ok
}

// names returns the names of the contexts inst publishes.
func (r *registry) names(inst *Instance) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for key := range r.published[inst] {
		names = append(names, key.contextName())
	}
	sort.Strings(names)
	return names
}

// drop removes every publication of inst.
func (r *registry) drop(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.published, inst)
}
