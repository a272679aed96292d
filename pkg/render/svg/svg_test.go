package svg

import (
	"strings"
	"testing"

	"github.com/matzehuels/nodemap/pkg/graph"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Width: 400, Height: 300,
		Nodes: []graph.Node{
			{ID: 0, Label: "Home", Href: "/", Parent: graph.NoParent, X: 200, Y: 150, Width: 50, Height: 23},
			{ID: 1, Label: "Q&A <faq>", Href: "/faq?a=1&b=2", Depth: 1, Parent: 0, X: 300, Y: 150, Width: 80, Height: 23},
			{ID: 2, Label: "Blog", Depth: 1, Parent: 0, X: 100, Y: 150, Width: 50, Height: 23},
		},
		Edges: []graph.Edge{{From: 1, To: 0}, {From: 2, To: 0}},
	}
}

func TestRender(t *testing.T) {
	out := string(Render(sampleLayout(), Options{Links: true}))

	checks := []struct {
		name string
		want string
	}{
		{"root element", "<svg"},
		{"cropped viewBox", `viewBox="55 119 305 63"`},
		{"connector group", `id="connectors"`},
		{"faint connectors", "stroke-opacity:0.2"},
		{"escaped label", "Q&amp;A &lt;faq&gt;"},
		{"escaped link", `/faq?a=1&amp;b=2`},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !strings.Contains(out, c.want) {
				t.Errorf("output missing %q:\n%s", c.want, out)
			}
		})
	}

	if got := strings.Count(out, "<line"); got != 2 {
		t.Errorf("%d connectors, want 2", got)
	}
	if got := strings.Count(out, "<rect"); got != 3 {
		t.Errorf("%d node boxes, want 3", got)
	}
	if got := strings.Count(out, "<a "); got != 2 {
		t.Errorf("%d links, want 2", got)
	}
}

func TestRenderFinalized(t *testing.T) {
	l := sampleLayout()
	l.Finalized = true
	out := string(Render(l, Options{}))
	if !strings.Contains(out, "stroke-opacity:1.0") {
		t.Error("finalized connectors are not opaque")
	}
	if strings.Contains(out, "<a ") {
		t.Error("links rendered without Options.Links")
	}
}

func TestRenderEmpty(t *testing.T) {
	out := string(Render(graph.Layout{Width: 640, Height: 480}, Options{Background: "#fff"}))
	if !strings.Contains(out, `viewBox="0 0 640 480"`) {
		t.Errorf("empty layout not drawn at viewport size:\n%s", out)
	}
}
