// Package shape defines the convex primitives understood by the collision engine.
//
// A shape is described in its own local space (centered on the origin, with
// capsules and cylinders aligned on local Z) and carries no placement: every
// query takes a Transform that positions and orients it in world space.
//
// The set of shapes is closed: Sphere, Box, Capsule and Cylinder.
package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies the variant of a Shape
type Kind int

const (
	KindSphere Kind = iota
	KindBox
	KindCapsule
	KindCylinder
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCapsule:
		return "capsule"
	case KindCylinder:
		return "cylinder"
	}
	return "unknown"
}

// Shape is the contract every convex primitive satisfies.
type Shape interface {
	Kind() Kind
	// SupportPoint returns the local-space point of the shape farthest along direction.
	// A zero direction returns a finite point of the shape.
	SupportPoint(direction mgl64.Vec3) mgl64.Vec3
	BoundingBox(t Transform) AABB
	// ClosestPoint returns the point of the shape closest to point, or point itself when inside.
	ClosestPoint(t Transform, point mgl64.Vec3) mgl64.Vec3
	IntersectsPoint(t Transform, point mgl64.Vec3) bool
	IntersectsSphere(t Transform, center mgl64.Vec3, radius float64) bool
	IsZeroExtent() bool
	// ImplementsRaycast reports whether Raycast is an analytic fast path.
	// Callers fall back to the GJK raycast otherwise.
	ImplementsRaycast() bool
	Raycast(t Transform, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool)

	isShape()
}

// sign returns -1, 0 or 1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// clampLength2D clamps the XY part of v to maxLength, keeping Z.
func clampLength2D(v mgl64.Vec3, maxLength float64) mgl64.Vec3 {
	lenSq := v.X()*v.X() + v.Y()*v.Y()
	if lenSq <= maxLength*maxLength {
		return v
	}
	scale := maxLength / math.Sqrt(lenSq)
	return mgl64.Vec3{v.X() * scale, v.Y() * scale, v.Z()}
}

// clampLength clamps v to maxLength.
func clampLength(v mgl64.Vec3, maxLength float64) mgl64.Vec3 {
	lenSq := v.LenSqr()
	if lenSq <= maxLength*maxLength {
		return v
	}
	return v.Mul(maxLength / math.Sqrt(lenSq))
}

// worldAxisZ returns the local Z axis of t in world space.
func worldAxisZ(t Transform) mgl64.Vec3 {
	return t.RotateVector(mgl64.Vec3{0, 0, 1})
}
