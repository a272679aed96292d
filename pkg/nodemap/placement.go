package nodemap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/physics"
)

// radialPosition returns the seed position of the index-th of count
// children around center.
func radialPosition(center r2.Vec, index, count int) r2.Vec {
	angle := float64(index) * 2 * math.Pi / float64(count)
	return r2.Add(center, r2.Vec{
		X: physics.ParentDistance * math.Cos(angle),
		Y: physics.ParentDistance * math.Sin(angle),
	})
}

// layAroundParent seeds n, and recursively its children, on a circle of
// radius ParentDistance around the parent. Any force left over from a
// previous position is dropped.
func (n *Node) layAroundParent(index int) {
	n.pos = radialPosition(n.parent.pos, index, len(n.parent.children))
	for i, c := range n.children {
		c.layAroundParent(i)
	}
	n.force = r2.Vec{}
	n.takePosition()
}
