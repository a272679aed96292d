// Package render connects a node map to whatever displays it.
//
// # Surfaces
//
// The map engine talks to exactly one [Surface] while it relaxes. Every tick
// in which connectors are visible it clears the surface and redraws each
// connector with DrawLine; every position update calls PlaceNode with the
// node's top-left corner; bounding box growth calls Resize; and once the
// whole map has come to rest (or been forced to rest by the movement
// timeout) FinalizeConnectors fades the connectors to full opacity.
//
// Surfaces that know how large a node is drawn implement [Measurer]. The
// engine asks for a footprint whenever it places a node and centers the
// node on its position with it. Surfaces that cannot measure report a zero
// footprint, and the node's corner coincides with its center.
//
// Implementations in this module:
//
//   - [Recorder] keeps the current frame in memory. The headless render
//     pipeline, the live server and tests use it.
//   - [Null] discards everything.
//   - [term.Canvas] draws into a character grid for the terminal viewer.
//
// # Targets
//
// A [Registry] maps names to surfaces. [Registry.Resolve] accepts a glob
// selector and fails with INVALID_TARGET unless exactly one surface
// matches, so a map is never attached to zero or several displays.
//
// # Sinks
//
// Static artifacts are rendered from a settled [graph.Layout] snapshot by the
// sink subpackages:
//
//   - [svg]: connectors, rounded node boxes and links via svgo
//   - [raster]: PNG via gg
//   - [nodelink]: Graphviz DOT with pinned positions, optionally rendered
//     to SVG through go-graphviz
//
// [term.Canvas]: github.com/matzehuels/nodemap/pkg/render/term
// [svg]: github.com/matzehuels/nodemap/pkg/render/svg
// [raster]: github.com/matzehuels/nodemap/pkg/render/raster
// [nodelink]: github.com/matzehuels/nodemap/pkg/render/nodelink
// [graph.Layout]: github.com/matzehuels/nodemap/pkg/graph
package render
