// Package svg renders node map layouts as SVG documents.
package svg

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"

	svgo "github.com/ajstarks/svgo"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/render"
)

// Options configures SVG output.
type Options struct {
	// Margin around the outermost nodes. Zero means render.DefaultMargin.
	Margin float64
	// Links wraps nodes that have an href in an <a> element.
	Links bool
	// Background fill; empty for transparent.
	Background string
}

const (
	nodeStyle  = "fill:#ffffff;stroke:#333333;stroke-width:1.5"
	rootStyle  = "fill:#f2f2f2;stroke:#111111;stroke-width:2"
	textStyle  = "fill:#111111;font-family:monospace;font-size:13px;text-anchor:middle;dominant-baseline:central"
	cornerSize = 6
)

// Render returns l as an SVG document.
func Render(l graph.Layout, opts Options) []byte {
	var buf bytes.Buffer
	Write(&buf, l, opts)
	return buf.Bytes()
}

// Write writes l as an SVG document to w.
func Write(w io.Writer, l graph.Layout, opts Options) {
	margin := opts.Margin
	if margin == 0 {
		margin = render.DefaultMargin
	}
	box := render.Crop(l, margin)
	bw, bh := ceil(box.W), ceil(box.H)

	canvas := svgo.New(w)
	canvas.Startview(bw, bh, round(box.X), round(box.Y), bw, bh)
	if opts.Background != "" {
		canvas.Rect(round(box.X), round(box.Y), bw, bh, "fill:"+opts.Background)
	}

	connector := fmt.Sprintf("stroke:#000000;stroke-opacity:%.1f;stroke-width:%.0f;stroke-linecap:round",
		render.ConnectorAlpha(l), render.ConnectorWidth)
	canvas.Gid("connectors")
	for _, c := range render.Connectors(l) {
		canvas.Line(round(c.From.X), round(c.From.Y), round(c.To.X), round(c.To.Y), connector)
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range l.Nodes {
		linked := opts.Links && n.Href != ""
		if linked {
			canvas.Link(html.EscapeString(n.Href), html.EscapeString(n.Label))
		}
		style := nodeStyle
		if n.IsRoot() {
			style = rootStyle
		}
		canvas.Roundrect(round(n.Left()), round(n.Top()), round(n.Width), round(n.Height), cornerSize, cornerSize, style)
		canvas.Text(round(n.X), round(n.Y), n.Label, textStyle)
		if linked {
			canvas.LinkEnd()
		}
	}
	canvas.Gend()
	canvas.End()
}

func round(v float64) int { return int(math.Round(v)) }

func ceil(v float64) int { return int(math.Ceil(v)) }
