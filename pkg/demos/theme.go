package demos

import (
	"fmt"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// Theme is the value shared through ThemeContext.
type Theme struct {
	Name       string
	Background string
	Foreground string
}

var (
	// LightTheme is the default theme.
	LightTheme = Theme{Name: "light", Background: "#ffffff", Foreground: "#222222"}

	// DarkTheme is selected by ThemeProvider's "toggle" action.
	DarkTheme = Theme{Name: "dark", Background: "#1e1e1e", Foreground: "#eeeeee"}
)

// ThemeContext carries the current Theme. Components outside any provider
// see LightTheme.
var ThemeContext = hooks.CreateContext("theme", LightTheme)

// ThemeProvider publishes LightTheme or DarkTheme for its subtree and
// exposes a "toggle" action.
func ThemeProvider(s *hooks.Scope) any {
	dark, setDark := hooks.UseState(s, false)

	theme := LightTheme
	if dark {
		theme = DarkTheme
	}
	hooks.Provide(s, ThemeContext, theme)

	return El("main",
		Text("button", "Toggle theme").On("toggle", func() {
			setDark.Update(func(d bool) bool { return !d })
		}),
	).Attr("data-theme", theme.Name)
}

// LabelProps configures ThemedLabel.
type LabelProps struct {
	Text string
}

// ThemedLabel renders its text in the colors of the nearest ThemeContext.
func ThemedLabel(s *hooks.Scope) any {
	theme := hooks.UseContext(s, ThemeContext)
	text := hooks.PropsAs[LabelProps](s).Text

	return Text("p", text).
		Attr("data-theme", theme.Name).
		Attr("style", fmt.Sprintf("background: %s; color: %s", theme.Background, theme.Foreground))
}

// InvertedTheme re-publishes the opposite of the surrounding theme, so
// labels below it keep contrasting with the rest of the page.
func InvertedTheme(s *hooks.Scope) any {
	outer := hooks.UseContext(s, ThemeContext)

	inner := DarkTheme
	if outer.Name == DarkTheme.Name {
		inner = LightTheme
	}
	hooks.Provide(s, ThemeContext, inner)

	return El("aside").Attr("data-theme", inner.Name)
}
