package demos

import (
	"context"
	"fmt"

	"github.com/vango-dev/hookrt/pkg/host"
)

// Demo describes a runnable demo for the CLI and devtools.
type Demo struct {
	Name        string
	Description string

	// Actions lists the actions the demo's root exposes.
	Actions []string

	// Mount mounts the demo on h and returns the ID of its root instance.
	Mount func(ctx context.Context, h *host.Host) (uint64, error)
}

var catalog = []Demo{
	{
		Name:        "clock",
		Description: "ticking clock whose effect owns a ticker goroutine",
		Actions:     []string{"pause", "resume"},
		Mount: func(ctx context.Context, h *host.Host) (uint64, error) {
			return h.Mount(ctx, 0, "Clock", Clock, ClockProps{})
		},
	},
	{
		Name:        "color",
		Description: "random color generator with hex and rgb notation",
		Actions:     []string{"generate", FormatHex, FormatRGB},
		Mount: func(ctx context.Context, h *host.Host) (uint64, error) {
			return h.Mount(ctx, 0, "ColorGenerator", ColorGenerator, ColorProps{})
		},
	},
	{
		Name:        "counter",
		Description: "counter with batched increments",
		Actions:     []string{"increment", "decrement", "reset"},
		Mount: func(ctx context.Context, h *host.Host) (uint64, error) {
			return h.Mount(ctx, 0, "Counter", Counter, CounterProps{})
		},
	},
	{
		Name:        "theme",
		Description: "theme shared through context, with a nested inverted provider",
		Actions:     []string{"toggle"},
		Mount:       mountTheme,
	},
}

// Catalog returns every demo, sorted by name.
func Catalog() []Demo {
	return append([]Demo(nil), catalog...)
}

// Lookup returns the demo with the given name.
func Lookup(name string) (Demo, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

// mountTheme builds:
//
//	ThemeProvider
//	├── ThemedLabel "Page"
//	└── InvertedTheme
//	    └── ThemedLabel "Sidebar"
func mountTheme(ctx context.Context, h *host.Host) (uint64, error) {
	root, err := h.Mount(ctx, 0, "ThemeProvider", ThemeProvider, nil)
	if err != nil {
		return root, err
	}
	if _, err := h.Mount(ctx, root, "ThemedLabel", ThemedLabel, LabelProps{Text: "Page"}); err != nil {
		return root, fmt.Errorf("mount page label: %w", err)
	}
	inverted, err := h.Mount(ctx, root, "InvertedTheme", InvertedTheme, nil)
	if err != nil {
		return root, fmt.Errorf("mount inverted theme: %w", err)
	}
	if _, err := h.Mount(ctx, inverted, "ThemedLabel", ThemedLabel, LabelProps{Text: "Sidebar"}); err != nil {
		return root, fmt.Errorf("mount sidebar label: %w", err)
	}
	return root, nil
}
