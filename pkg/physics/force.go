package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Force model constants.
const (
	// RepulsionFactor scales the inverse-square repulsion.
	RepulsionFactor = 460.0

	// RestoringFactor divides the linear spring attraction.
	RestoringFactor = 8000.0

	// RepulsionCutoff is the distance at and beyond which repulsion is zero.
	RepulsionCutoff = 400.0

	// ParentDistance is the radius at which children are first placed
	// around their parent.
	ParentDistance = 50.0

	// springScale is the 15 · 0.01 prefactor of the attraction law.
	springScale = 15 * 0.01
)

// direction returns the unit direction of the separation vector from
// subject to other, along with its length. Points on the same vertical
// line resolve to straight down (θ = π/2, positive sign).
func direction(subject, other r2.Vec) (r2.Vec, float64) {
	sep := r2.Sub(other, subject)
	d := r2.Norm(sep)

	theta := math.Pi / 2
	sign := 1.0
	if sep.X != 0 {
		theta = math.Atan(sep.Y / sep.X)
		if sep.X < 0 {
			sign = -1
		}
	}
	return r2.Scale(sign, r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}), d
}

// Repulsion returns the force pushing subject away from other.
//
// The magnitude is RepulsionFactor / (d² · damp²) for d < RepulsionCutoff
// and zero otherwise. A damp of zero or less is treated as 1. Coincident
// points yield a zero vector.
func Repulsion(subject, other r2.Vec, damp float64) r2.Vec {
	if damp <= 0 {
		damp = 1
	}
	dir, d := direction(subject, other)
	if d == 0 || d >= RepulsionCutoff {
		return r2.Vec{}
	}
	f := RepulsionFactor / (d * d * damp * damp)
	return r2.Scale(-f, dir)
}

// Attraction returns the force pulling subject toward other.
//
// The magnitude is (15 · d · 0.01 · amp) / RestoringFactor. An amp of zero
// or less is treated as 1.
func Attraction(subject, other r2.Vec, amp float64) r2.Vec {
	if amp <= 0 {
		amp = 1
	}
	dir, d := direction(subject, other)
	if d == 0 {
		return r2.Vec{}
	}
	f := springScale * d * amp / RestoringFactor
	return r2.Scale(f, dir)
}

// DepthAmplification returns the connector amplification for a node at the
// given depth: depth⁴, with the root (depth 0) falling back to 1.
func DepthAmplification(depth int) float64 {
	amp := math.Pow(float64(depth), 4)
	if amp == 0 {
		return 1
	}
	return amp
}

// Sum adds up a set of force vectors.
func Sum(forces ...r2.Vec) r2.Vec {
	var total r2.Vec
	for _, f := range forces {
		total = r2.Add(total, f)
	}
	return total
}
