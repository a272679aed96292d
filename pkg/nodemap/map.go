package nodemap

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/loop"
	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/render"
)

// ErrRootExists is returned when a second root is attached.
var ErrRootExists = errors.New(errors.ErrCodeInvalidInput, "map already has a root node")

// Map is one node map diagram: its nodes, connectors, viewport and the
// flags shared by all of its relaxation loops.
type Map struct {
	sched   loop.Scheduler
	surface render.Surface
	logger  *log.Logger
	hooks   observability.SimulationHooks
	ctx     context.Context

	threshold float64
	timeout   time.Duration
	tick      time.Duration

	width  float64
	height float64

	nodes    []*Node
	lines    []*Line
	root     *Node
	selected *Node

	// connectorsVisible gates connector drawing. It stays false while the
	// tree is being ingested so half-placed nodes draw no lines.
	connectorsVisible bool

	// dragActive is set by any drag and cleared once the root's subtree is
	// stable again. Bounding box growth is skipped while it is set.
	dragActive bool

	finalized bool
	timedOut  bool
}

// New creates an empty map that runs on sched and draws on surface.
//
// A nil surface is an INVALID_TARGET error: a map needs exactly one
// rendering target. Use render.Registry.Resolve to pick one by name.
func New(sched loop.Scheduler, surface render.Surface, opts ...Option) (*Map, error) {
	if surface == nil {
		return nil, errors.New(errors.ErrCodeInvalidTarget, "single rendering target expected, none given")
	}
	if sched == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "map needs a scheduler")
	}

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	if math.IsNaN(s.threshold) || s.threshold < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "force threshold must be positive, got %v", s.threshold)
	}
	if s.threshold == 0 {
		s.threshold = DefaultThreshold
	}
	if s.timeout <= 0 {
		s.timeout = DefaultMovementTimeout
	}
	if s.tick <= 0 {
		s.tick = DefaultTickInterval
	}
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = surface.Size()
	}
	if s.hooks == nil {
		s.hooks = observability.Simulation()
	}

	return &Map{
		sched:     sched,
		surface:   surface,
		logger:    s.logger,
		hooks:     s.hooks,
		ctx:       s.ctx,
		threshold: s.threshold,
		timeout:   s.timeout,
		tick:      s.tick,
		width:     s.width,
		height:    s.height,
	}, nil
}

// Attach adds a node below parent, or the root when parent is nil.
//
// The root is placed at the viewport center right away and becomes the
// selected node. Any other node starts at its parent's position, gets a
// connector to its parent, invalidates the positions of all of its
// parent's children (recursively) and starts the parent's relaxation loop.
func (m *Map) Attach(parent *Node, label, href string) (*Node, error) {
	if err := errors.ValidateLabel(label); err != nil {
		return nil, err
	}
	if err := errors.ValidateHref(href); err != nil {
		return nil, err
	}
	if parent == nil && m.root != nil {
		return nil, ErrRootExists
	}
	if parent != nil && parent.m != m {
		return nil, errors.New(errors.ErrCodeInvalidInput, "parent %q belongs to another map", parent.label)
	}

	n := &Node{
		m:      m,
		id:     len(m.nodes),
		label:  label,
		href:   href,
		parent: parent,
	}
	n.measure()
	m.nodes = append(m.nodes, n)

	if parent == nil {
		n.pos = m.center()
		n.hasPosition = true
		m.root = n
		m.selected = n
		n.takePosition()
		m.logger.Debug("attached root", "label", label)
		return n, nil
	}

	n.depth = parent.depth + 1
	n.pos = parent.pos
	parent.children = append(parent.children, n)

	l := &Line{start: n, end: parent}
	m.lines = append(m.lines, l)
	n.lines = append(n.lines, l)
	parent.lines = append(parent.lines, l)

	invalidatePositions(parent.children)
	m.logger.Debug("attached node", "label", label, "parent", parent.label, "depth", n.depth)

	parent.Animate()
	return n, nil
}

// invalidatePositions clears hasPosition on nodes and all their
// descendants so they are laid out radially again.
func invalidatePositions(nodes []*Node) {
	for _, n := range nodes {
		n.hasPosition = false
		invalidatePositions(n.children)
	}
}

// ShowConnectors allows connectors to be drawn from the next tick on.
func (m *Map) ShowConnectors() {
	m.connectorsVisible = true
}

// ConnectorsVisible reports whether connectors are being drawn.
func (m *Map) ConnectorsVisible() bool { return m.connectorsVisible }

// DragActive reports whether a drag has happened since the root last came
// to rest.
func (m *Map) DragActive() bool { return m.dragActive }

// Root returns the root node, or nil before one is attached.
func (m *Map) Root() *Node { return m.root }

// Selected returns the node pulled toward the viewport center. It is
// always the root.
func (m *Map) Selected() *Node { return m.selected }

// Len returns the number of nodes.
func (m *Map) Len() int { return len(m.nodes) }

// Node returns the node with the given id, or nil.
func (m *Map) Node(id int) *Node {
	if id < 0 || id >= len(m.nodes) {
		return nil
	}
	return m.nodes[id]
}

// Nodes returns all nodes in insertion order.
func (m *Map) Nodes() []*Node {
	return append([]*Node(nil), m.nodes...)
}

// Lines returns all connectors in creation order.
func (m *Map) Lines() []*Line {
	return append([]*Line(nil), m.lines...)
}

// Viewport returns the current viewport size.
func (m *Map) Viewport() (w, h float64) { return m.width, m.height }

// Threshold returns the minimum force component that still moves a node.
func (m *Map) Threshold() float64 { return m.threshold }

// Idle reports whether no relaxation loop is running.
func (m *Map) Idle() bool {
	for _, n := range m.nodes {
		if n.state == StateAnimating {
			return false
		}
	}
	return true
}

// Settled reports whether every node is positioned and stable.
func (m *Map) Settled() bool {
	if m.root == nil {
		return false
	}
	for _, n := range m.nodes {
		if !n.hasPosition || !n.stable {
			return false
		}
	}
	return true
}

// TimedOut reports whether the last rest was forced by the movement
// timeout.
func (m *Map) TimedOut() bool { return m.timedOut }

func (m *Map) center() r2.Vec {
	return r2.Vec{X: m.width / 2, Y: m.height / 2}
}

func (m *Map) redrawConnectors() {
	m.surface.Clear()
	m.finalized = false
	for _, l := range m.lines {
		l.draw(m.surface)
	}
}

func (m *Map) finalizeConnectors() {
	m.surface.FinalizeConnectors()
	m.finalized = true
}
