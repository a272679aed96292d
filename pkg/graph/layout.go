package graph

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// NoParent is the Parent value of the root node.
const NoParent = -1

// =============================================================================
// Layout - Map Snapshot
// =============================================================================

// Layout is a serialized snapshot of a node map.
type Layout struct {
	// Viewport dimensions at the time of the snapshot
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Relaxation state
	Settled   bool `json:"settled" bson:"settled"`                         // every node stable
	TimedOut  bool `json:"timed_out,omitempty" bson:"timed_out,omitempty"` // rest forced by the movement timeout
	Finalized bool `json:"finalized,omitempty" bson:"finalized,omitempty"` // connectors at full opacity

	// Structure
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a positioned map node. X and Y are the node's center.
type Node struct {
	ID     int    `json:"id" bson:"id"`
	Label  string `json:"label" bson:"label"`
	Href   string `json:"href,omitempty" bson:"href,omitempty"`
	Depth  int    `json:"depth" bson:"depth"`
	Parent int    `json:"parent" bson:"parent"`

	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Stable      bool `json:"stable" bson:"stable"`
	HasPosition bool `json:"has_position" bson:"has_position"`
}

// Left returns the x coordinate of the node's left edge.
func (n Node) Left() float64 { return n.X - n.Width/2 }

// Top returns the y coordinate of the node's top edge.
func (n Node) Top() float64 { return n.Y - n.Height/2 }

// IsRoot reports whether n is the root node.
func (n Node) IsRoot() bool { return n.Parent == NoParent }

// Edge is a connector from a child node to its parent.
type Edge struct {
	From int `json:"from" bson:"from"`
	To   int `json:"to" bson:"to"`
}

// Root returns the root node, if the layout has one.
func (l Layout) Root() (Node, bool) {
	for _, n := range l.Nodes {
		if n.IsRoot() {
			return n, true
		}
	}
	return Node{}, false
}

// Node returns the node with the given id.
func (l Layout) Node(id int) (Node, bool) {
	if id >= 0 && id < len(l.Nodes) && l.Nodes[id].ID == id {
		return l.Nodes[id], true
	}
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Bounds returns the smallest rectangle containing every node footprint.
// An empty layout has empty bounds.
func (l Layout) Bounds() (minX, minY, maxX, maxY float64) {
	if len(l.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range l.Nodes {
		minX = math.Min(minX, n.Left())
		minY = math.Min(minY, n.Top())
		maxX = math.Max(maxX, n.Left()+n.Width)
		maxY = math.Max(maxY, n.Top()+n.Height)
	}
	return minX, minY, maxX, maxY
}

// Validate checks the structural invariants of a layout: a single root,
// unique node IDs, parents and edges referring to known nodes, and finite
// coordinates.
func (l Layout) Validate() error {
	if len(l.Nodes) == 0 {
		if len(l.Edges) > 0 {
			return fmt.Errorf("layout has edges but no nodes")
		}
		return nil
	}

	ids := make(map[int]bool, len(l.Nodes))
	roots := 0
	for _, n := range l.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		ids[n.ID] = true
		if n.IsRoot() {
			roots++
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			return fmt.Errorf("node %d has a non-finite position", n.ID)
		}
	}
	if roots != 1 {
		return fmt.Errorf("layout must have exactly one root, found %d", roots)
	}
	for _, n := range l.Nodes {
		if !n.IsRoot() && !ids[n.Parent] {
			return fmt.Errorf("node %d refers to unknown parent %d", n.ID, n.Parent)
		}
	}
	for _, e := range l.Edges {
		if !ids[e.From] || !ids[e.To] {
			return fmt.Errorf("edge %d->%d refers to an unknown node", e.From, e.To)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and validates it.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

// WriteLayout writes a Layout as indented JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
