package nodemap

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"pgregory.net/rapid"

	"github.com/matzehuels/nodemap/pkg/physics"
)

func TestRadialPosition(t *testing.T) {
	c := r2.Vec{X: 400, Y: 300}
	tests := []struct {
		index, count int
		want         r2.Vec
	}{
		{0, 1, r2.Vec{X: 450, Y: 300}},
		{0, 2, r2.Vec{X: 450, Y: 300}},
		{1, 2, r2.Vec{X: 350, Y: 300}},
		{1, 4, r2.Vec{X: 400, Y: 350}},
	}
	for _, tt := range tests {
		got := radialPosition(c, tt.index, tt.count)
		if !near(got, tt.want, 1e-9) {
			t.Errorf("radialPosition(%d, %d) = %v, want %v", tt.index, tt.count, got, tt.want)
		}
	}
}

func TestRadialPositionProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 64).Draw(t, "count")
		index := rapid.IntRange(0, count-1).Draw(t, "index")
		c := r2.Vec{
			X: rapid.Float64Range(-1e4, 1e4).Draw(t, "x"),
			Y: rapid.Float64Range(-1e4, 1e4).Draw(t, "y"),
		}

		p := radialPosition(c, index, count)
		d := r2.Sub(p, c)
		if got := r2.Norm(d); math.Abs(got-physics.ParentDistance) > 1e-6 {
			t.Fatalf("distance = %v, want %v", got, physics.ParentDistance)
		}
		want := float64(index) * 2 * math.Pi / float64(count)
		got := math.Atan2(d.Y, d.X)
		if got < 0 {
			got += 2 * math.Pi
		}
		if diff := math.Abs(got - want); diff > 1e-6 && math.Abs(diff-2*math.Pi) > 1e-6 {
			t.Fatalf("angle = %v, want %v", got, want)
		}
	})
}

func TestLayAroundParentIgnoresStaleForce(t *testing.T) {
	m, _, _ := newTestMap(t)
	r := mustAttach(t, m, nil, "R")
	a := mustAttach(t, m, r, "A")

	a.force = r2.Vec{X: 3, Y: -7}
	a.layAroundParent(0)

	if got := r2.Norm(r2.Sub(a.Position(), r.Position())); math.Abs(got-physics.ParentDistance) > 1e-9 {
		t.Errorf("child %v from parent, want %v", got, physics.ParentDistance)
	}
	if a.Force() != (r2.Vec{}) {
		t.Errorf("force = %v after placement", a.Force())
	}
}

func TestSnapshot(t *testing.T) {
	m, ml, _ := newTestMap(t)
	r, a, b := threeNodes(t, m)
	ml.RunUntilIdle(settleLimit)

	l := m.Snapshot()
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !l.Settled || l.TimedOut || !l.Finalized {
		t.Errorf("flags = settled %v, timed out %v, finalized %v", l.Settled, l.TimedOut, l.Finalized)
	}
	root, ok := l.Root()
	if !ok || root.ID != r.ID() || root.X != r.Position().X {
		t.Errorf("Root() = %+v, %v", root, ok)
	}
	if n, _ := l.Node(b.ID()); n.Parent != r.ID() || n.Depth != 1 {
		t.Errorf("B = %+v", n)
	}
	if len(l.Edges) != 2 || l.Edges[0].From != a.ID() || l.Edges[0].To != r.ID() {
		t.Errorf("Edges = %+v", l.Edges)
	}
}
