// Package physics implements the pairwise force model used to relax a node
// map.
//
// Two force laws act between node centers:
//
//   - [Repulsion] pushes a node away from its siblings and its parent. The
//     magnitude is RepulsionFactor / (d² · damp²) and vanishes entirely once
//     the nodes are RepulsionCutoff or more apart.
//   - [Attraction] pulls a node along its connectors like a weak spring. The
//     magnitude is (15 · d · 0.01 · amp) / RestoringFactor, zero when the two
//     points coincide.
//
// Both functions work on planar vectors from gonum's spatial/r2 package and
// are pure: they never mutate their inputs and carry no state between calls.
//
// # Direction
//
// The direction of a force is derived from atan(y/x) of the separation
// vector combined with the sign of x. When the two points share the same x
// coordinate the angle is π/2 and the sign is taken as positive, so a
// vertically stacked pair is pushed (or pulled) along the y axis in a
// deterministic direction rather than producing NaN.
//
// # Tuning
//
// damp and amp default to 1 when zero or negative. The map engine passes
// depth⁴ as the amplification for connectors, so deeper nodes cling more
// tightly to their parents, and 10 for the pull of the selected node
// toward the viewport center.
package physics
