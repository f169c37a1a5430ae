package demos

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

// View is a minimal output tree. It is what the demo components return
// from their render functions.
type View struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []View

	actions map[string]func()
}

// El creates a view with the given tag and children.
func El(tag string, children ...View) View {
	return View{Tag: tag, Children: children}
}

// Text creates a text-only view with the given tag.
func Text(tag, text string) View {
	return View{Tag: tag, Text: text}
}

// Attr returns a copy of v with the attribute set.
func (v View) Attr(key, value string) View {
	attrs := make(map[string]string, len(v.Attrs)+1)
	for k, val := range v.Attrs {
		attrs[k] = val
	}
	attrs[key] = value
	v.Attrs = attrs
	return v
}

// On returns a copy of v with a named action attached.
func (v View) On(name string, fn func()) View {
	actions := make(map[string]func(), len(v.actions)+1)
	for k, f := range v.actions {
		actions[k] = f
	}
	actions[name] = fn
	v.actions = actions
	return v
}

// Action finds the named action on v or, depth first, on its children.
// It implements host.ActionSource.
func (v View) Action(name string) (func(), bool) {
	if fn, ok := v.actions[name]; ok {
		return fn, true
	}
	for _, child := range v.Children {
		if fn, ok := child.Action(name); ok {
			return fn, true
		}
	}
	return nil, false
}

// Actions returns the names of every action in the tree, sorted.
func (v View) Actions() []string {
	seen := make(map[string]struct{})
	var walk func(View)
	walk = func(n View) {
		for name := range n.actions {
			seen[name] = struct{}{}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(v)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders v as compact markup. Actions are shown as data-action
// attributes.
func (v View) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v View) write(b *strings.Builder) {
	if v.Tag == "" {
		b.WriteString(html.EscapeString(v.Text))
		return
	}

	fmt.Fprintf(b, "<%s", v.Tag)
	keys := make([]string, 0, len(v.Attrs))
	for k := range v.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ` %s="%s"`, k, html.EscapeString(v.Attrs[k]))
	}
	if len(v.actions) > 0 {
		names := make([]string, 0, len(v.actions))
		for name := range v.actions {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(b, ` data-action="%s"`, strings.Join(names, " "))
	}
	b.WriteByte('>')

	b.WriteString(html.EscapeString(v.Text))
	for _, c := range v.Children {
		c.write(b)
	}
	fmt.Fprintf(b, "</%s>", v.Tag)
}

type viewJSON struct {
	Tag      string            `json:"tag,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Actions  []string          `json:"actions,omitempty"`
	Children []View            `json:"children,omitempty"`
}

// MarshalJSON encodes the view with its own action names.
func (v View) MarshalJSON() ([]byte, error) {
	var actions []string
	for name := range v.actions {
		actions = append(actions, name)
	}
	sort.Strings(actions)
	return json.Marshal(viewJSON{
		Tag:      v.Tag,
		Text:     v.Text,
		Attrs:    v.Attrs,
		Actions:  actions,
		Children: v.Children,
	})
}
