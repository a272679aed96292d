package nodemap

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/loop"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const settleLimit = time.Minute

type placement struct {
	id        int
	left, top float64
}

// traceSurface records every call in order.
type traceSurface struct {
	w, h      float64
	footprint r2.Vec
	places    []placement
	resizes   []r2.Vec
	clears    int
	lines     int
	finalizes int
}

func (s *traceSurface) Size() (float64, float64) { return s.w, s.h }
func (s *traceSurface) Clear()                   { s.clears++ }
func (s *traceSurface) DrawLine(r2.Vec, r2.Vec)  { s.lines++ }
func (s *traceSurface) PlaceNode(id int, left, top float64) {
	s.places = append(s.places, placement{id, left, top})
}
func (s *traceSurface) Resize(w, h float64) { s.resizes = append(s.resizes, r2.Vec{X: w, Y: h}) }
func (s *traceSurface) FinalizeConnectors() { s.finalizes++ }

func (s *traceSurface) Footprint(string) (float64, float64) {
	return s.footprint.X, s.footprint.Y
}

func (s *traceSurface) placedAt(id int, pos r2.Vec) bool {
	for _, p := range s.places {
		if p.id == id && closeTo(p.left, pos.X) && closeTo(p.top, pos.Y) {
			return true
		}
	}
	return false
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestMap(t *testing.T, opts ...Option) (*Map, *loop.Manual, *traceSurface) {
	t.Helper()
	ml := loop.NewManual(epoch)
	s := &traceSurface{w: 800, h: 600}
	m, err := New(ml, s, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, ml, s
}

func mustAttach(t *testing.T, m *Map, parent *Node, label string) *Node {
	t.Helper()
	n, err := m.Attach(parent, label, "")
	if err != nil {
		t.Fatalf("Attach(%q) error = %v", label, err)
	}
	return n
}

// threeNodes builds the root R with children A and B.
func threeNodes(t *testing.T, m *Map) (r, a, b *Node) {
	t.Helper()
	r = mustAttach(t, m, nil, "R")
	a = mustAttach(t, m, r, "A")
	b = mustAttach(t, m, r, "B")
	return r, a, b
}
