// Package nodemap lays out a tree of labelled nodes with a force-directed
// relaxation and keeps it in equilibrium while nodes are added, dragged or
// the viewport changes.
//
// # Overview
//
// A [Map] owns every [Node] and every [Line] (connector) of one diagram.
// Nodes are attached one by one, root first. The root is placed at the
// center of the viewport; every other node starts on top of its parent and
// is fanned out radially around it the first time its parent's subtree is
// relaxed. From there, each node is moved by the sum of:
//
//   - repulsion from its siblings and from its parent,
//   - attraction along its connector to its parent, amplified by depth⁴ so
//     deep nodes stay close to where they belong,
//   - for the selected node (always the root), a strong pull toward the
//     center of the viewport.
//
// The force laws live in package physics.
//
// # Relaxation loops
//
// Relaxation is driven per node. [Node.Animate] starts a loop on that node
// which, every tick interval, redraws the connectors, runs one depth-first
// equilibrium pass over the node's subtree and reschedules itself until the
// whole subtree is stable. Every Animate call also arms a movement timeout;
// when it fires the tree is forced to rest and the connectors are
// finalized, so an oscillating subtree can never animate forever.
//
// Loops are cancelled with an epoch counter rather than by stopping timers:
// a tick or timeout that belongs to an older Animate call finds a newer
// epoch on its node and does nothing.
//
// # Execution context
//
// A Map is not safe for concurrent use. It must only be touched from the
// [loop.Scheduler] it was created with: tests and headless rendering use a
// [loop.Manual] clock, interactive front ends post every drag, drop and
// resize event onto a [loop.EventLoop].
//
//	ml := loop.NewManual(time.Now())
//	rec := render.NewRecorder(800, 600)
//	m, _ := nodemap.New(ml, rec)
//	root, _ := m.Attach(nil, "Home", "/")
//	m.Attach(root, "About", "/about")
//	m.ShowConnectors()
//	ml.RunUntilIdle(time.Minute)
//	layout := m.Snapshot()
//
// [loop.Scheduler]: github.com/matzehuels/nodemap/pkg/loop
// [loop.Manual]: github.com/matzehuels/nodemap/pkg/loop
// [loop.EventLoop]: github.com/matzehuels/nodemap/pkg/loop
package nodemap
