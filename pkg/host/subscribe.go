package host

import (
	"sync"
	"time"
)

// Commit is the event published for every committed pass and every
// unmount.
type Commit struct {
	Instance  uint64    `json:"instance"`
	Component string    `json:"component"`
	Pass      int       `json:"pass"`
	Output    any       `json:"output,omitempty"`
	Unmounted bool      `json:"unmounted,omitempty"`
	Time      time.Time `json:"time"`
}

// Subscribe returns a channel receiving Commit events and a function that
// cancels the subscription. Events are dropped, not queued, when the
// channel's buffer is full. The channel is closed on cancel or when the
// host stops.
func (h *Host) Subscribe(buffer int) (<-chan Commit, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Commit, buffer)

	h.subMu.Lock()
	if h.closed.Load() {
		h.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	key := h.nextSub
	h.nextSub++
	h.subs[key] = ch
	h.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.subMu.Lock()
			defer h.subMu.Unlock()
			if c, ok := h.subs[key]; ok {
				delete(h.subs, key)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (h *Host) publish(c Commit) {
	h.commits.Add(1)

	h.subMu.RLock()
	defer h.subMu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
			h.dropped.Add(1)
		}
	}
}
