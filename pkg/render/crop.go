package render

import "github.com/matzehuels/nodemap/pkg/graph"

// DefaultMargin is the space sinks leave around the outermost nodes.
const DefaultMargin = 20.0

// Box is a drawing rectangle in map coordinates.
type Box struct {
	X, Y, W, H float64
}

// Crop returns the area a sink draws for l: the bounds of every node
// footprint and connector end, grown by margin on each side. Layouts
// without nodes get their viewport.
//
// Sinks crop instead of using the viewport because bounding box growth
// only ever widens the viewport and may leave it far larger than the map.
func Crop(l graph.Layout, margin float64) Box {
	if len(l.Nodes) == 0 {
		return Box{W: l.Width, H: l.Height}
	}
	minX, minY, maxX, maxY := l.Bounds()
	return Box{
		X: minX - margin,
		Y: minY - margin,
		W: maxX - minX + 2*margin,
		H: maxY - minY + 2*margin,
	}
}

// ConnectorAlpha returns the connector opacity for l.
func ConnectorAlpha(l graph.Layout) float64 {
	if l.Finalized {
		return ConnectorFinalOpacity
	}
	return ConnectorOpacity
}

// Connector is a resolved edge between two node centers.
type Connector struct {
	From, To graph.Node
}

// Connectors resolves the edges of l, skipping edges to unknown nodes.
func Connectors(l graph.Layout) []Connector {
	out := make([]Connector, 0, len(l.Edges))
	for _, e := range l.Edges {
		from, ok := l.Node(e.From)
		if !ok {
			continue
		}
		to, ok := l.Node(e.To)
		if !ok {
			continue
		}
		out = append(out, Connector{From: from, To: to})
	}
	return out
}
