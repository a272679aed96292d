package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/matzehuels/nodemap/pkg/graph"
)

func TestRender(t *testing.T) {
	l := graph.Layout{
		Width: 400, Height: 300, Finalized: true,
		Nodes: []graph.Node{
			{ID: 0, Label: "Home", Parent: graph.NoParent, X: 200, Y: 150, Width: 50, Height: 23},
			{ID: 1, Label: "About", Depth: 1, Parent: 0, X: 260, Y: 150, Width: 57, Height: 23},
		},
		Edges: []graph.Edge{{From: 1, To: 0}},
	}

	data, err := Render(l, Options{Scale: 2})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}

	// Bounds are 175..288.5 by 138.5..161.5 plus a 20px margin, doubled.
	b := img.Bounds()
	if b.Dx() != 307 || b.Dy() != 126 {
		t.Errorf("image is %dx%d, want 307x126", b.Dx(), b.Dy())
	}
}

func TestDrawClampsHugeLayouts(t *testing.T) {
	l := graph.Layout{
		Nodes: []graph.Node{
			{ID: 0, Label: "a", Parent: graph.NoParent, X: 0, Y: 0, Width: 10, Height: 10},
			{ID: 1, Label: "b", Parent: 0, X: 1e5, Y: 1e5, Width: 10, Height: 10},
		},
	}
	const limit = 40000
	b := Draw(l, Options{MaxPixels: limit}).Bounds()
	if area := b.Dx() * b.Dy(); area > limit+2*(b.Dx()+b.Dy()) {
		t.Errorf("image area %d exceeds %d", area, limit)
	}
}

func TestDrawEmpty(t *testing.T) {
	b := Draw(graph.Layout{Width: 64, Height: 48}, Options{}).Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("empty layout drawn at %dx%d", b.Dx(), b.Dy())
	}
}
