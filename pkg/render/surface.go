package render

import (
	"unicode/utf8"

	"gonum.org/v1/gonum/spatial/r2"
)

// Connector styling shared by all sinks.
const (
	ConnectorWidth        = 3.0
	ConnectorOpacity      = 0.2
	ConnectorFinalOpacity = 1.0
)

// Surface is the display a map draws onto.
type Surface interface {
	// Size reports the surface's container size. It seeds the map's
	// viewport when no explicit size is configured.
	Size() (w, h float64)

	// Clear removes every connector drawn so far.
	Clear()

	// DrawLine draws a connector between two node centers.
	DrawLine(from, to r2.Vec)

	// PlaceNode moves node id so that its top-left corner is at
	// (left, top).
	PlaceNode(id int, left, top float64)

	// Resize changes the drawing area.
	Resize(w, h float64)

	// FinalizeConnectors fades connectors to full opacity.
	FinalizeConnectors()
}

// Measurer is implemented by surfaces that know the drawn size of a node.
type Measurer interface {
	Footprint(label string) (w, h float64)
}

// Footprint asks s for the footprint of label, returning zero when s does
// not implement Measurer.
func Footprint(s Surface, label string) (w, h float64) {
	if m, ok := s.(Measurer); ok {
		return m.Footprint(label)
	}
	return 0, 0
}

// TextMetrics estimates node footprints from fixed-width glyph metrics.
type TextMetrics struct {
	CharWidth  float64
	LineHeight float64
	PadX       float64
	PadY       float64
}

// DefaultMetrics matches the 7x13 bitmap font used by the PNG sink.
var DefaultMetrics = TextMetrics{CharWidth: 7, LineHeight: 13, PadX: 8, PadY: 5}

// Footprint implements Measurer.
func (m TextMetrics) Footprint(label string) (w, h float64) {
	n := utf8.RuneCountInString(label)
	return float64(n)*m.CharWidth + 2*m.PadX, m.LineHeight + 2*m.PadY
}

// Null is a Surface that discards everything.
type Null struct {
	Width, Height float64
}

func (n Null) Size() (float64, float64)      { return n.Width, n.Height }
func (Null) Clear()                          {}
func (Null) DrawLine(r2.Vec, r2.Vec)         {}
func (Null) PlaceNode(int, float64, float64) {}
func (Null) Resize(float64, float64)         {}
func (Null) FinalizeConnectors()             {}
