package nodemap

import "github.com/matzehuels/nodemap/pkg/graph"

// Snapshot returns the serializable state of the map.
func (m *Map) Snapshot() graph.Layout {
	l := graph.Layout{
		Width:     m.width,
		Height:    m.height,
		Settled:   m.Settled(),
		TimedOut:  m.timedOut,
		Finalized: m.finalized,
		Nodes:     make([]graph.Node, len(m.nodes)),
		Edges:     make([]graph.Edge, len(m.lines)),
	}
	for i, n := range m.nodes {
		parent := graph.NoParent
		if n.parent != nil {
			parent = n.parent.id
		}
		l.Nodes[i] = graph.Node{
			ID:          n.id,
			Label:       n.label,
			Href:        n.href,
			Depth:       n.depth,
			Parent:      parent,
			X:           n.pos.X,
			Y:           n.pos.Y,
			Width:       n.width,
			Height:      n.height,
			Stable:      n.stable,
			HasPosition: n.hasPosition,
		}
	}
	for i, ln := range m.lines {
		l.Edges[i] = graph.Edge{From: ln.start.id, To: ln.end.id}
	}
	return l
}
