package nodemap

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/loop"
	"github.com/matzehuels/nodemap/pkg/physics"
	"github.com/matzehuels/nodemap/pkg/render"
)

// LoopState is the state of a node's relaxation loop.
type LoopState int

const (
	StateIdle       LoopState = iota // never animated
	StateAnimating                   // ticks scheduled
	StateStabilized                  // stopped because the subtree is stable
	StateTimedOut                    // stopped by a forced stop
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnimating:
		return "animating"
	case StateStabilized:
		return "stabilized"
	case StateTimedOut:
		return "timed-out"
	}
	return "unknown"
}

// Node is a positioned entry of a map. It owns its children; its parent
// reference is a back link.
type Node struct {
	m        *Map
	id       int
	label    string
	href     string
	depth    int
	parent   *Node
	children []*Node
	lines    []*Line

	pos    r2.Vec // center
	force  r2.Vec // thresholded force, scaled by stepScale
	offset r2.Vec // top-left corner handed to the surface
	width  float64
	height float64

	hasPosition bool
	stable      bool

	dragging bool
	dragPos  r2.Vec

	// forcedStop ends every relaxation loop running at or below this node.
	forcedStop bool
	epoch      uint64
	timeout    loop.Timer
	state      LoopState
	ticks      int
	started    time.Time
}

// ID returns the node's insertion index in its map.
func (n *Node) ID() int { return n.id }

// Label returns the node's text.
func (n *Node) Label() string { return n.label }

// Href returns the node's link target.
func (n *Node) Href() string { return n.href }

// Depth returns the node's depth; the root is at depth 0.
func (n *Node) Depth() int { return n.depth }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// IsRoot reports whether n is the root of its map.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Children returns the node's children in attach order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Position returns the node's center.
func (n *Node) Position() r2.Vec { return n.pos }

// Force returns the force vector stored by the last stability check.
func (n *Node) Force() r2.Vec { return n.force }

// Offset returns the top-left corner last handed to the surface.
func (n *Node) Offset() r2.Vec { return n.offset }

// Footprint returns the node's drawn size.
func (n *Node) Footprint() (w, h float64) { return n.width, n.height }

// HasPosition reports whether the node has been placed.
func (n *Node) HasPosition() bool { return n.hasPosition }

// IsStable reports the result of the node's last stability check.
func (n *Node) IsStable() bool { return n.stable }

// Dragging reports whether the node is being dragged.
func (n *Node) Dragging() bool { return n.dragging }

// State returns the state of the node's relaxation loop.
func (n *Node) State() LoopState { return n.state }

// forceVector sums the forces acting on n: repulsion from siblings and
// parent, attraction along every connector except those to n's own
// children, and the centering pull if n is selected.
func (n *Node) forceVector() r2.Vec {
	var f r2.Vec

	if n.parent != nil {
		for _, s := range n.parent.children {
			if s == n {
				continue
			}
			f = r2.Add(f, physics.Repulsion(n.pos, s.pos, 1))
		}
		f = r2.Add(f, physics.Repulsion(n.pos, n.parent.pos, 1))
	}

	amp := physics.DepthAmplification(n.depth)
	for _, l := range n.lines {
		other := l.Other(n)
		if other == nil || other.parent == n {
			continue
		}
		f = r2.Add(f, physics.Attraction(n.pos, other.pos, amp))
	}

	if n.m.selected == n {
		f = r2.Add(f, physics.Attraction(n.pos, n.m.center(), centerAmplification))
	}
	return f
}

// stabilityReached stores the thresholded force vector on n and reports
// whether it is zero.
func (n *Node) stabilityReached() bool {
	f := r2.Scale(stepScale, n.forceVector())
	if math.Abs(f.X) < n.m.threshold {
		f.X = 0
	}
	if math.Abs(f.Y) < n.m.threshold {
		f.Y = 0
	}
	n.force = f
	if f.X == 0 && f.Y == 0 {
		n.m.logger.Debug("node reached equilibrium", "node", n.label)
		return true
	}
	return false
}

// takePosition moves n by its stored force vector and places it.
func (n *Node) takePosition() {
	if n.force.X != 0 {
		n.pos.X += n.force.X * stepScale
	}
	if n.force.Y != 0 {
		n.pos.Y += n.force.Y * stepScale
	}
	n.place()
}

// place recomputes the corner offset from the current footprint and hands
// it to the surface.
func (n *Node) place() {
	if n.width == 0 && n.height == 0 {
		n.measure()
	}
	n.offset = r2.Vec{X: n.pos.X - n.width/2, Y: n.pos.Y - n.height/2}
	n.m.surface.PlaceNode(n.id, n.offset.X, n.offset.Y)
}

func (n *Node) measure() {
	n.width, n.height = render.Footprint(n.m.surface, n.label)
}
