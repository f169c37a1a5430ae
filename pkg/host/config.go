package host

import (
	"log/slog"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// DefaultQueueSize is the default capacity of the dispatch queue.
const DefaultQueueSize = 256

// Config configures a Host.
type Config struct {
	// QueueSize is the capacity of the dispatch queue.
	// Default: DefaultQueueSize.
	QueueSize int

	// Logger is the structured logger.
	// Default: slog.Default().
	Logger *slog.Logger

	// Observer receives runtime lifecycle notifications. Optional.
	Observer hooks.Observer

	// MaxPassesPerFlush is passed to the runtime.
	// Default: hooks.DefaultMaxPassesPerFlush.
	MaxPassesPerFlush int

	// OnError receives failed passes, exceeded update depths and effect
	// failures. It is called on the loop goroutine. Optional.
	OnError func(err error)
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
