// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for collision detection.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in typically 3-6 iterations. The same simplex, reduced to the point
// closest to the origin, drives a conservative advancement raycast that works
// on any convex shape.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Ray Casting against General Convex Objects with Application to
//     Continuous Collision Detection" (2004)
package gjk

import (
	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxIterations bounds Intersect when the caller passes a non-positive budget.
	DefaultMaxIterations = 20
	// Tolerance is the minimal progress, in world units, a new support point
	// must make along the search direction.
	Tolerance = 1e-6
)

// MinkowskiSupport computes a support point in the Minkowski difference (A - B).
//
// Returns:
//
//	Support point: furthestPoint(A, direction) - furthestPoint(B, -direction)
func MinkowskiSupport(a shape.Shape, ta shape.Transform, b shape.Shape, tb shape.Transform, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := ta.SupportWorld(a, direction)
	supportB := tb.SupportWorld(b, direction.Mul(-1))
	return supportA.Sub(supportB)
}

// Intersect reports whether a placed by ta overlaps b placed by tb.
//
// Algorithm overview:
//  1. If either placement origin lies inside the other shape, report an overlap
//  2. Get first support point in Minkowski difference
//  3. Iteratively refine simplex toward origin
//  4. If origin is contained → collision
//  5. If a support point makes no progress, or the budget runs out → no collision
func Intersect(a shape.Shape, ta shape.Transform, b shape.Shape, tb shape.Transform, maxIterations int) bool {
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}

	if a.IntersectsPoint(ta, tb.Position) || b.IntersectsPoint(tb, ta.Position) {
		return true
	}

	simplex := acquireSimplex()
	defer releaseSimplex(simplex)

	direction := mgl64.Vec3{1, 1, 1}
	simplex.Add(MinkowskiSupport(a, ta, b, tb, direction))

	if simplex.Next(&direction) {
		// first support point at the origin: shapes are touching
		return true
	}

	for i := 1; i < maxIterations; i++ {
		support := MinkowskiSupport(a, ta, b, tb, direction)

		// The new point does not pass the origin: the shapes are separated.
		if support.Dot(direction) < Tolerance*direction.Len() {
			return false
		}

		simplex.Add(support)
		if simplex.Next(&direction) {
			return true
		}
	}

	return false
}
