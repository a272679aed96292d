package nodemap

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/loop"
)

func TestProtrusion(t *testing.T) {
	tests := []struct {
		name    string
		c, half float64
		extent  float64
		want    float64
	}{
		{"inside", 50, 10, 100, 0},
		{"touching left", 10, 10, 100, 0},
		{"past left", 4, 10, 100, 6},
		{"past right", 95, 10, 100, 5},
		{"negative center", -20, 10, 100, 30},
		{"zero footprint", 100, 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := protrusion(tt.c, tt.half, tt.extent); got != tt.want {
				t.Errorf("protrusion(%v, %v, %v) = %v, want %v", tt.c, tt.half, tt.extent, got, tt.want)
			}
		})
	}
}

func TestViewportOnlyGrows(t *testing.T) {
	ml := loop.NewManual(epoch)
	s := &traceSurface{w: 200, h: 150, footprint: r2.Vec{X: 40, Y: 20}}
	m, err := New(ml, s)
	if err != nil {
		t.Fatal(err)
	}

	r := mustAttach(t, m, nil, "R")
	var kids []*Node
	for _, l := range []string{"c0", "c1", "c2", "c3"} {
		kids = append(kids, mustAttach(t, m, r, l))
	}
	for _, k := range kids[:2] {
		mustAttach(t, m, k, "g")
	}
	m.ShowConnectors()

	mark := len(s.resizes)
	m.Resize(200, 150)
	ml.RunUntilIdle(settleLimit)

	grown := s.resizes[mark:]
	if len(grown) < 2 {
		t.Fatalf("surface resized %d times, want growth", len(grown))
	}
	for i := 1; i < len(grown); i++ {
		if grown[i].X < grown[i-1].X || grown[i].Y < grown[i-1].Y {
			t.Fatalf("viewport shrank from %v to %v", grown[i-1], grown[i])
		}
	}
	w, h := m.Viewport()
	if last := grown[len(grown)-1]; last != (r2.Vec{X: w, Y: h}) {
		t.Errorf("last surface size %v, viewport %vx%v", last, w, h)
	}
}

func TestNoGrowthWhileDragging(t *testing.T) {
	m, ml, s := newTestMap(t)
	_, a, _ := threeNodes(t, m)
	ml.RunUntilIdle(settleLimit)

	mark := len(s.resizes)
	if err := m.Drag(a, r2.Vec{X: -300, Y: -300}); err != nil {
		t.Fatal(err)
	}
	ml.Advance(100 * time.Millisecond)
	if len(s.resizes) != mark {
		t.Errorf("viewport grew during a drag: %v", s.resizes[mark:])
	}
}
