// Package hooks is the reactive hook runtime of hookrt.
//
// A component is a plain render function. The runtime gives each mounted
// occurrence of it (an Instance) an ordered store of cells, and the render
// function reaches those cells through the Scope it receives. Cells are
// identified by call position, not by name, so every pass must make the
// same sequence of Use* calls.
//
// # Cells
//
// UseState keeps a value across passes. Writes go through a Setter and
// become visible on the next pass:
//
//	func Counter(s *hooks.Scope) any {
//	    count, setCount := hooks.UseState(s, 0)
//	    return View{Text: fmt.Sprint(count), OnClick: func() {
//	        setCount.Update(func(n int) int { return n + 1 })
//	    }}
//	}
//
// UseRef keeps a mutable value whose writes never re-render. UseMemo and
// UseCallback cache a value until their dependency list changes. UseEffect
// runs a side effect after the pass commits and runs its cleanup before
// the next run and at unmount.
//
// Dependency lists come in three forms that are never conflated:
//
//	hooks.Always    // re-run every pass
//	hooks.Once()    // run on the first pass only
//	hooks.On(a, b)  // re-run when a or b changes (shallow comparison)
//
// # Context
//
// Provide publishes a value for a Context at the rendering instance and
// UseContext reads the value of the nearest publishing ancestor:
//
//	var Theme = hooks.CreateContext("theme", "light")
//
//	hooks.Provide(s, Theme, "dark")   // in a parent
//	theme := hooks.UseContext(s, Theme) // in any descendant
//
// # Passes and batching
//
// Runtime.Mount runs the first pass. Setters and context changes call
// Runtime.ScheduleUpdate, which queues the instance; Runtime.Flush drains
// the queue. Several writes queued before a flush coalesce into one pass
// that sees all of them in order.
//
// # Errors
//
// Using a different cell kind at a position, or a different number of
// cells than the first pass, fails the instance with a CellIdentityError
// or CellCountMismatchError. A panicking effect is isolated and reported
// as an EffectExecutionError.
//
// # Thread Safety
//
// Setters and ScheduleUpdate may be called from any goroutine. Everything
// else belongs to the single goroutine that drives the Runtime; pkg/host
// provides one.
package hooks
