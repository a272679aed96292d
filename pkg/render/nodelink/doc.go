// Package nodelink exports node map layouts as Graphviz graphs.
//
// # Usage
//
// Convert a layout to DOT, then render it to SVG:
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The graph is undirected: every connector becomes an edge from a node to
// its parent. Each node carries a pinned position (pos="x,y!") taken from
// the settled map, and its footprint as a fixed size, so Graphviz's neato
// engine draws the map exactly as it came to rest instead of laying it out
// again. The DOT source is useful on its own for post-processing with
// external Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
