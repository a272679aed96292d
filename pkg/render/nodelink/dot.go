package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/render"
)

// pointsPerInch converts map pixels to Graphviz inches for node sizes.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds the depth and link target to node labels.
	Detailed bool
}

// ToDOT converts a layout to Graphviz DOT source with every node pinned at
// its map position. Graphviz's y axis points up, so y is flipped against
// the cropped drawing area.
func ToDOT(l graph.Layout, opts Options) string {
	box := render.Crop(l, render.DefaultMargin)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(box.W), num(box.H))
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=monospace, fontsize=10, fixedsize=true];\n")
	fmt.Fprintf(&buf, "  edge [penwidth=%s, color=\"#000000%02x\"];\n",
		num(render.ConnectorWidth), int(render.ConnectorAlpha(l)*255+0.5))
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		x := n.X - box.X
		y := box.H - (n.Y - box.Y)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(y)),
			fmt.Sprintf("width=%s", num(n.Width/pointsPerInch)),
			fmt.Sprintf("height=%s", num(n.Height/pointsPerInch)),
		}
		if n.Href != "" {
			attrs = append(attrs, fmt.Sprintf("URL=%q", n.Href))
		}
		if n.IsRoot() {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range render.Connectors(l) {
		fmt.Fprintf(&buf, "  n%d -- n%d;\n", c.From.ID, c.To.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	parts := []string{n.Label, fmt.Sprintf("depth: %d", n.Depth)}
	if n.Href != "" {
		parts = append(parts, n.Href)
	}
	return strings.Join(parts, "\n")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG using Graphviz. Pinned positions
// are kept by the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	gv.SetLayout(graphviz.NEATO)

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
