package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/nodemap/pkg/graph"
)

func TestToDOT(t *testing.T) {
	l := graph.Layout{
		Width: 400, Height: 300,
		Nodes: []graph.Node{
			{ID: 0, Label: "Home", Href: "/", Parent: graph.NoParent, X: 200, Y: 150, Width: 72, Height: 36},
			{ID: 1, Label: `Say "hi"`, Depth: 1, Parent: 0, X: 300, Y: 100, Width: 36, Height: 18},
		},
		Edges: []graph.Edge{{From: 1, To: 0}, {From: 1, To: 9}},
	}

	dot := ToDOT(l, Options{})

	// Crop: x 164..318, y 91..168, margin 20.
	for _, want := range []string{
		"graph G {",
		"layout=neato;",
		`n0 [label="Home", pos="56,38!", width=1, height=0.5, URL="/", penwidth=2];`,
		`n1 [label="Say \"hi\"", pos="156,88!", width=0.5, height=0.25];`,
		"n1 -- n0;",
		`color="#00000033"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "n9") {
		t.Error("edge to unknown node exported")
	}
}

func TestToDOTDetailed(t *testing.T) {
	l := graph.Layout{
		Finalized: true,
		Nodes: []graph.Node{
			{ID: 0, Label: "Home", Href: "/", Parent: graph.NoParent, X: 10, Y: 10},
		},
	}
	dot := ToDOT(l, Options{Detailed: true})
	if !strings.Contains(dot, `label="Home\ndepth: 0\n/"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `color="#000000ff"`) {
		t.Errorf("finalized connectors not opaque:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
