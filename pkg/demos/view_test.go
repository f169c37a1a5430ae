package demos

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestViewString(t *testing.T) {
	v := El("div",
		Text("h1", "Tom & Jerry").Attr("class", "title"),
		Text("button", "+").On("increment", func() {}),
	).Attr("id", "root")

	want := `<div id="root"><h1 class="title">Tom &amp; Jerry</h1><button data-action="increment">+</button></div>`
	if got := v.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestViewActionSearchesChildren(t *testing.T) {
	var calls []string
	v := El("div",
		El("span", Text("button", "a").On("a", func() { calls = append(calls, "inner a") })),
		Text("button", "b").On("b", func() { calls = append(calls, "b") }),
	).On("a", func() { calls = append(calls, "outer a") })

	for _, name := range []string{"a", "b"} {
		fn, ok := v.Action(name)
		if !ok {
			t.Fatalf("action %q not found", name)
		}
		fn()
	}
	if _, ok := v.Action("missing"); ok {
		t.Error("expected missing action to be absent")
	}

	if diff := cmp.Diff([]string{"outer a", "b"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, v.Actions()); diff != "" {
		t.Errorf("Actions() (-want +got):\n%s", diff)
	}
}

func TestViewCopyOnWrite(t *testing.T) {
	base := Text("p", "x").Attr("a", "1").On("go", func() {})
	derived := base.Attr("b", "2").On("stop", func() {})

	if _, ok := base.Attrs["b"]; ok {
		t.Error("Attr mutated the original view")
	}
	if _, ok := base.Action("stop"); ok {
		t.Error("On mutated the original view")
	}
	if derived.Attrs["a"] != "1" {
		t.Error("derived view lost an attribute")
	}
}

func TestViewMarshalJSON(t *testing.T) {
	v := El("div", Text("button", "+").On("increment", func() {}))

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"tag":"div","children":[{"tag":"button","text":"+","actions":["increment"]}]}`
	if string(data) != want {
		t.Errorf("Marshal =\n%s\nwant\n%s", data, want)
	}
}
