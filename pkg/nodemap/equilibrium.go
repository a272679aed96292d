package nodemap

// seekEquilibrium runs one equilibrium pass over n's subtree and reports
// whether the whole subtree is stable.
func (n *Node) seekEquilibrium() bool {
	stable := true

	if !n.hasPosition {
		if n.parent == nil {
			n.pos = n.m.center()
			n.hasPosition = true
		}
		stable = false
		for _, c := range n.children {
			c.hasPosition = false
		}
	}

	// Children are only marked positioned once their parent is stable, so
	// new nodes fan out one tier at a time.
	for i, c := range n.children {
		if !c.hasPosition {
			c.layAroundParent(i)
			if n.stable {
				c.hasPosition = true
			}
		}
	}

	if n.dragging {
		n.pos = n.dragPos
		n.place()
		stable = false
	} else {
		n.stable = n.stabilityReached()
		stable = n.stable && stable
		if !stable {
			n.takePosition()
		}
	}

	for _, c := range n.children {
		stable = c.seekEquilibrium() && stable
	}
	return stable
}
