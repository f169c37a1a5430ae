package demos

import (
	"strconv"
	"time"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// DefaultClockInterval is the tick interval used when ClockProps leaves it
// unset.
const DefaultClockInterval = time.Second

// ClockProps configures Clock.
type ClockProps struct {
	Interval time.Duration

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Clock renders the time and a tick count. While running, an effect owns
// a ticker goroutine whose cleanup stops it, so pausing or unmounting
// leaves nothing behind.
func Clock(s *hooks.Scope) any {
	props := hooks.PropsAs[ClockProps](s)
	interval := props.Interval
	if interval <= 0 {
		interval = DefaultClockInterval
	}
	now := props.Now
	if now == nil {
		now = time.Now
	}

	running, setRunning := hooks.UseState(s, true)
	current, setCurrent := hooks.UseStateFunc(s, now)
	ticks, setTicks := hooks.UseState(s, 0)

	hooks.UseEffect(s, func() hooks.Cleanup {
		if !running {
			return nil
		}
		ticker := time.NewTicker(interval)
		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ticker.C:
					setCurrent.Set(now())
					setTicks.Update(func(n int) int { return n + 1 })
				case <-stop:
					return
				}
			}
		}()
		return func() {
			ticker.Stop()
			close(stop)
			<-done
		}
	}, hooks.On(running, interval))

	label := "pause"
	if !running {
		label = "resume"
	}
	return El("div",
		Text("time", current.Format(time.TimeOnly)).Attr("data-ticks", strconv.Itoa(ticks)),
		Text("button", label).On(label, func() {
			setRunning.Set(!running)
		}),
	)
}
