package nodemap

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/errors"
)

func TestDragAndDrop(t *testing.T) {
	m, ml, _ := newTestMap(t)
	r, a, _ := threeNodes(t, m)
	m.ShowConnectors()
	ml.RunUntilIdle(settleLimit)

	target := r2.Vec{X: 500, Y: 100}
	if err := m.Drag(a, target); err != nil {
		t.Fatalf("Drag() error = %v", err)
	}
	if a.Position() != target {
		t.Errorf("A = %v, want drag position %v", a.Position(), target)
	}
	if !a.Dragging() || !m.DragActive() {
		t.Error("drag flags not set")
	}
	if r.State() != StateAnimating {
		t.Errorf("owner state = %v, want animating", r.State())
	}
	if m.Settled() {
		t.Error("map settled during a drag")
	}

	ml.Advance(50 * time.Millisecond)
	if a.Position() != target {
		t.Errorf("dragged node moved to %v", a.Position())
	}

	target = r2.Vec{X: 520, Y: 120}
	if err := m.Drag(a, target); err != nil {
		t.Fatalf("Drag() error = %v", err)
	}
	ml.Advance(50 * time.Millisecond)
	if a.Position() != target {
		t.Errorf("A = %v, want %v", a.Position(), target)
	}

	if err := m.Drop(a); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	elapsed, idle := ml.RunUntilIdle(settleLimit)
	if !idle || elapsed != 40*time.Millisecond {
		t.Errorf("RunUntilIdle() = %v, %v; want 40ms, true", elapsed, idle)
	}
	if !m.Settled() || m.TimedOut() {
		t.Errorf("Settled() = %v, TimedOut() = %v", m.Settled(), m.TimedOut())
	}
	if m.DragActive() || a.Dragging() {
		t.Error("drag flags still set after the tree came to rest")
	}
	if w, h := m.Viewport(); w != 800 || h != 600 {
		t.Errorf("viewport changed during drag to %vx%v", w, h)
	}
}

func TestDragRootAnimatesItself(t *testing.T) {
	m, ml, _ := newTestMap(t)
	r, _, _ := threeNodes(t, m)
	ml.RunUntilIdle(settleLimit)

	if err := m.Drag(r, r2.Vec{X: 100, Y: 100}); err != nil {
		t.Fatalf("Drag() error = %v", err)
	}
	if r.Position() != (r2.Vec{X: 100, Y: 100}) || r.State() != StateAnimating {
		t.Errorf("root at %v in state %v", r.Position(), r.State())
	}
}

func TestDragErrors(t *testing.T) {
	m, _, _ := newTestMap(t)
	mustAttach(t, m, nil, "R")
	other, _, _ := newTestMap(t)
	foreign := mustAttach(t, other, nil, "X")

	if err := m.Drag(nil, r2.Vec{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Drag(nil) error = %v", err)
	}
	if err := m.Drag(foreign, r2.Vec{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Drag(foreign) error = %v", err)
	}
	if err := m.Drop(foreign); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Drop(foreign) error = %v", err)
	}
	if err := m.Drop(m.Root()); err != nil {
		t.Errorf("Drop() without drag error = %v", err)
	}
}

func TestResize(t *testing.T) {
	m, ml, s := newTestMap(t)
	r, _, _ := threeNodes(t, m)
	ml.RunUntilIdle(settleLimit)

	m.Resize(1000, 800)
	if r.Position() != (r2.Vec{X: 500, Y: 400}) {
		t.Errorf("root = %v, want new center", r.Position())
	}
	if !r.HasPosition() {
		t.Error("root lost its position")
	}
	if got := s.resizes[len(s.resizes)-1]; got != (r2.Vec{X: 1000, Y: 800}) {
		t.Errorf("surface resized to %v", got)
	}

	elapsed, idle := ml.RunUntilIdle(settleLimit)
	if !idle || elapsed != 910*time.Millisecond {
		t.Errorf("RunUntilIdle() = %v, %v; want 910ms, true", elapsed, idle)
	}
	if !m.Settled() {
		t.Error("map did not settle after resize")
	}
	if r.Position() != (r2.Vec{X: 500, Y: 400}) {
		t.Errorf("root drifted to %v", r.Position())
	}
}

func TestResizeEmptyMap(t *testing.T) {
	m, _, s := newTestMap(t)
	m.Resize(300, 200)
	if w, h := m.Viewport(); w != 300 || h != 200 {
		t.Errorf("Viewport() = %v, %v", w, h)
	}
	if len(s.resizes) != 1 {
		t.Errorf("surface resized %d times", len(s.resizes))
	}
}
