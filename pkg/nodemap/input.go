package nodemap

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/errors"
)

// Drag moves n to pos, the pointer-derived center of the node, for as
// long as the drag lasts. The node's owning subtree (its parent's, or its
// own for the root) is re-animated on every call.
func (m *Map) Drag(n *Node, pos r2.Vec) error {
	if err := m.owns(n); err != nil {
		return err
	}
	m.dragActive = true
	n.dragging = true
	n.dragPos = pos
	n.owner().Animate()
	return nil
}

// Drop ends a drag on n and relaxes the whole tree from the root, which
// also clears the drag-active flag once the tree is stable again.
func (m *Map) Drop(n *Node) error {
	if err := m.owns(n); err != nil {
		return err
	}
	if !n.dragging {
		return nil
	}
	n.dragging = false
	m.root.Animate()
	return nil
}

// Resize changes the viewport, resizes the surface and relays the tree out
// from the root.
func (m *Map) Resize(w, h float64) {
	m.width, m.height = w, h
	m.surface.Resize(w, h)
	if m.root == nil {
		return
	}
	m.root.stable = false
	m.root.hasPosition = false
	m.root.Animate()
}

func (m *Map) owns(n *Node) error {
	if n == nil || n.m != m {
		return errors.New(errors.ErrCodeInvalidInput, "node does not belong to this map")
	}
	return nil
}

func (n *Node) owner() *Node {
	if n.parent == nil {
		return n
	}
	return n.parent
}
