// Package graph provides the serialization types for node map layouts.
//
// A [Layout] is a snapshot of a map: the viewport size, every node with its
// center position and footprint, and every connector. It is the canonical
// wire format shared by the layout cache, the layout store, the JSON
// output of the CLI, the HTTP API and the websocket frames of the live
// server. The sinks in pkg/render render static artifacts from it.
//
// # Snapshots
//
// Layouts are produced by nodemap.Map.Snapshot and are never fed back into
// a live map: a map is always rebuilt from its outline. A layout read from
// disk can be rendered again without re-running the simulation.
//
//	l, _ := graph.ReadLayoutFile("site.layout.json")
//	svg := svg.Render(l, svg.Options{})
//
// # Format
//
//	{
//	  "width": 800, "height": 600,
//	  "settled": true,
//	  "nodes": [
//	    {"id": 0, "label": "Home", "depth": 0, "parent": -1, "x": 400, "y": 300, ...},
//	    {"id": 1, "label": "About", "href": "/about", "depth": 1, "parent": 0, ...}
//	  ],
//	  "edges": [{"from": 1, "to": 0}]
//	}
//
// Node IDs are the insertion order of the nodes in their map. The root is
// the node whose parent is -1. Edges run from a child to its parent, one
// per non-root node.
//
// # Concurrency
//
// All functions are safe for concurrent use; Layout values are plain data.
package graph
