package demos

import (
	"fmt"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// CounterProps configures Counter.
type CounterProps struct {
	Start int
	Step  int
}

// Counter renders a count with increment, decrement and reset actions.
// Updates go through updaters, so several clicks between two flushes are
// all counted.
func Counter(s *hooks.Scope) any {
	props := hooks.PropsAs[CounterProps](s)
	step := props.Step
	if step == 0 {
		step = 1
	}

	count, setCount := hooks.UseStateFunc(s, func() int { return props.Start })
	renders := hooks.UseRef(s, 0)
	renders.Set(renders.Current() + 1)

	parity := hooks.UseMemo(s, func() string {
		if count%2 == 0 {
			return "even"
		}
		return "odd"
	}, hooks.On(count))

	return El("div",
		Text("h1", fmt.Sprintf("Count: %d", count)).Attr("class", parity),
		Text("button", "-").On("decrement", func() {
			setCount.Update(func(n int) int { return n - step })
		}),
		Text("button", "+").On("increment", func() {
			setCount.Update(func(n int) int { return n + step })
		}),
		Text("button", "reset").On("reset", func() {
			setCount.Set(props.Start)
		}),
	).Attr("data-renders", fmt.Sprint(renders.Current()))
}
