package demos

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// Color formats supported by ColorGenerator.
const (
	FormatHex = "hex"
	FormatRGB = "rgb"
)

// historySize is how many generated colors ColorGenerator remembers.
const historySize = 5

// ColorProps configures ColorGenerator.
type ColorProps struct {
	// Seed makes the generated sequence reproducible. Zero means seed 1.
	Seed int64
}

type rgb struct {
	R, G, B uint8
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c rgb) css() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// contrast returns the foreground color readable on c, using the relative
// luminance threshold of the W3C contrast guidelines.
func (c rgb) contrast() string {
	lum := 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
	if lum > 140 {
		return "#000000"
	}
	return "#ffffff"
}

// ColorGenerator renders a random color in hex or rgb notation. The
// "generate" action picks a new color; "hex" and "rgb" switch notation and
// also pick a new color. The last few colors are kept in a history.
func ColorGenerator(s *hooks.Scope) any {
	props := hooks.PropsAs[ColorProps](s)

	format, setFormat := hooks.UseState(s, FormatHex)
	color, setColor := hooks.UseState(s, rgb{})
	rng := hooks.UseRef(s, (*rand.Rand)(nil))
	if rng.Current() == nil {
		seed := props.Seed
		if seed == 0 {
			seed = 1
		}
		rng.Set(rand.New(rand.NewSource(seed)))
	}
	history := hooks.UseRef(s, []string(nil))

	generate := hooks.UseCallback(s, func() {
		r := rng.Current()
		setColor.Set(rgb{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256))})
	}, hooks.Once())

	label := hooks.UseMemo(s, func() string {
		if format == FormatRGB {
			return color.css()
		}
		return color.hex()
	}, hooks.On(format, color))
	foreground := hooks.UseMemo(s, color.contrast, hooks.On(color))

	hooks.UseEffect(s, func() hooks.Cleanup {
		h := append(history.Current(), label)
		if len(h) > historySize {
			h = h[len(h)-historySize:]
		}
		history.Set(h)
		return nil
	}, hooks.On(label))

	return El("section",
		Text("h2", label).Attr("style", fmt.Sprintf("color: %s", foreground)),
		Text("button", "Use hex").On(FormatHex, func() {
			setFormat.Set(FormatHex)
			generate()
		}),
		Text("button", "Use rgb").On(FormatRGB, func() {
			setFormat.Set(FormatRGB)
			generate()
		}),
		Text("button", "Generate").On("generate", generate),
		Text("small", strings.Join(history.Current(), " ")),
	).Attr("style", fmt.Sprintf("background: %s", color.hex()))
}
