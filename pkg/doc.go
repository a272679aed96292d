// Package pkg provides the core libraries for nodemap, a force-directed
// layout engine for hierarchical node maps.
//
// # Overview
//
// A node map is a tree of labeled nodes. Every node settles around its
// parent under spring, repulsion and gravity forces, and connectors run from
// each child to its parent. The pkg directory is organized into four areas:
//
//  1. Engine - the map, its force model and the scheduler it runs on
//  2. Input - outlines that describe a tree of labels
//  3. Output - surfaces, layout snapshots and static renderers
//  4. Services - caching, persistence, live sessions and the HTTP server
//
// # Architecture
//
// The typical data flow:
//
//	Outline file (markdown, html, yaml, toml, json)
//	         ↓
//	    [outline] package (parse into a Document)
//	         ↓
//	    [nodemap] package (attach nodes, relax until settled)
//	         ↓
//	    [graph] package (Layout snapshot)
//	         ↓
//	    SVG/PNG/DOT/JSON output
//
// # Quick Start
//
//	el := loop.NewEventLoop()
//	go el.Run(ctx)
//
//	doc, _ := outline.ParseFile("site.md")
//	rec := render.NewRecorder(800, 600)
//
//	var m *nodemap.Map
//	el.Call(ctx, func() {
//	    m, _ = nodemap.New(el, rec)
//	    outline.Ingest(m, doc)
//	})
//
// Most callers go through [pipeline] instead, which runs the same steps
// with caching and renders the settled layout:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    Source:  "site.md",
//	    Formats: []string{"svg"},
//	})
//
// # Main Packages
//
// ## Engine
//
// [nodemap] - The map and its nodes. Nodes animate on the scheduler until
// every subtree reaches equilibrium or the movement timeout forces a stop.
// Dragging pins a node and re-animates the map.
//
// [physics] - Pure force and placement math: springs, repulsion, gravity,
// displacement thresholds and child placement around a parent.
//
// [loop] - Schedulers. EventLoop runs tasks on one goroutine; Manual is a
// deterministic clock for tests.
//
// ## Input
//
// [outline] - Outline parsers and the Ingest and Extend helpers that build
// or grow a map from a Document.
//
// [watcher] - Reloads an outline file when it changes on disk.
//
// ## Output
//
// [render] - The Surface interface, the in-memory Recorder and a registry
// of named surfaces. Subpackages render a Layout:
//
//   - [render/svg]: SVG documents
//   - [render/raster]: PNG images
//   - [render/nodelink]: Graphviz DOT and neato-positioned SVG
//   - [render/term]: a character-cell canvas for terminals
//
// [graph] - Layout snapshots, the JSON format shared by every output.
//
// ## Services
//
// [pipeline] - Parse, settle and render, used by the CLI and the server.
//
// [cache] - Layout and artifact caches (file, Redis, null).
//
// [store] - Named layout snapshots in SQLite or MongoDB.
//
// [session] - Live maps, each on its own event loop, with idle expiry.
//
// [server] - HTTP and websocket API over sessions and the store.
//
// [config] - TOML configuration with defaults for every setting.
//
// [errors] - Coded errors shared across packages.
//
// [observability] - Hooks for map lifecycle events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/nodemap/...            # Specific package
//
// [nodemap]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/nodemap
// [physics]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/physics
// [loop]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/loop
// [outline]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/outline
// [watcher]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/watcher
// [render]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/render/svg
// [render/raster]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/render/raster
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/render/nodelink
// [render/term]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/render/term
// [graph]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/store
// [session]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/nodemap/pkg/observability
package pkg
