// Package raster renders node map layouts as PNG images.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/render"
)

// DefaultMaxPixels bounds the image area unless Options.MaxPixels is set.
const DefaultMaxPixels = 16 << 20

// Options configures PNG output.
type Options struct {
	// Margin around the outermost nodes. Zero means render.DefaultMargin.
	Margin float64
	// Scale multiplies the image size; zero means 1.
	Scale float64
	// MaxPixels bounds the image area. Larger layouts are scaled down to
	// fit.
	MaxPixels float64
}

// Render returns l as a PNG image.
func Render(l graph.Layout, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, l, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes l as a PNG image to w.
func Write(w io.Writer, l graph.Layout, opts Options) error {
	img := Draw(l, opts)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Draw rasterizes l.
func Draw(l graph.Layout, opts Options) image.Image {
	margin := opts.Margin
	if margin == 0 {
		margin = render.DefaultMargin
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	limit := opts.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	box := render.Crop(l, margin)
	if area := box.W * box.H * scale * scale; area > limit {
		scale *= math.Sqrt(limit / area)
	}

	dc := gg.NewContext(max(1, int(math.Ceil(box.W*scale))), max(1, int(math.Ceil(box.H*scale))))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-box.X, -box.Y)

	dc.SetRGBA(0, 0, 0, render.ConnectorAlpha(l))
	dc.SetLineWidth(render.ConnectorWidth)
	dc.SetLineCapRound()
	for _, c := range render.Connectors(l) {
		dc.DrawLine(c.From.X, c.From.Y, c.To.X, c.To.Y)
		dc.Stroke()
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range l.Nodes {
		drawNode(dc, n)
	}
	return dc.Image()
}

func drawNode(dc *gg.Context, n graph.Node) {
	fill, stroke := 1.0, 0.2
	if n.IsRoot() {
		fill, stroke = 0.95, 0.07
	}
	dc.SetRGB(fill, fill, fill)
	dc.DrawRoundedRectangle(n.Left(), n.Top(), n.Width, n.Height, 6)
	dc.Fill()
	dc.SetRGB(stroke, stroke, stroke)
	dc.SetLineWidth(1.5)
	dc.DrawRoundedRectangle(n.Left(), n.Top(), n.Width, n.Height, 6)
	dc.Stroke()

	dc.SetRGB(0.07, 0.07, 0.07)
	dc.DrawStringAnchored(n.Label, n.X, n.Y, 0.5, 0.5)
}
