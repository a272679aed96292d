package nodemap

import "github.com/matzehuels/nodemap/pkg/render"

// Line is a connector between a node (start) and its parent (end). It
// refers to both nodes without owning them.
type Line struct {
	start *Node
	end   *Node
}

// Start returns the child end of the connector.
func (l *Line) Start() *Node { return l.start }

// End returns the parent end of the connector.
func (l *Line) End() *Node { return l.end }

// Other returns the end of l that is not n, or nil if n is not on l.
func (l *Line) Other(n *Node) *Node {
	switch n {
	case l.start:
		return l.end
	case l.end:
		return l.start
	}
	return nil
}

func (l *Line) draw(s render.Surface) {
	s.DrawLine(l.start.pos, l.end.pos)
}
