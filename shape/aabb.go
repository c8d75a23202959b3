package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any Union will replace.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// NewAABB builds a box from its center and half extent.
func NewAABB(center, extent mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(extent), Max: center.Add(extent)}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extent returns the half size of the box.
func (a AABB) Extent() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// IsValid reports whether the box is finite and not inverted.
func (a AABB) IsValid() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(a.Min[i]) || math.IsNaN(a.Max[i]) || math.IsInf(a.Min[i], 0) || math.IsInf(a.Max[i], 0) {
			return false
		}
		if a.Min[i] > a.Max[i] {
			return false
		}
	}
	return true
}

// Union returns the smallest box containing both boxes.
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], other.Min[0]), math.Min(a.Min[1], other.Min[1]), math.Min(a.Min[2], other.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], other.Max[0]), math.Max(a.Max[1], other.Max[1]), math.Max(a.Max[2], other.Max[2])},
	}
}

// ExpandBy grows the box by amount on every side.
func (a AABB) ExpandBy(amount float64) AABB {
	pad := mgl64.Vec3{amount, amount, amount}
	return AABB{Min: a.Min.Sub(pad), Max: a.Max.Add(pad)}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Raycast returns the distance at which the ray enters the box.
// A ray starting inside the box enters at distance 0.
func (a AABB) Raycast(origin, dir mgl64.Vec3, maxDistance float64) (float64, bool) {
	tEnter, _, hit := slab(origin, dir, a.Min, a.Max, maxDistance)
	return tEnter, hit
}

// slab intersects a ray with an axis-aligned box and returns the entry
// distance and the axis crossed on entry (-1 when the origin is inside).
func slab(origin, dir, min, max mgl64.Vec3, maxDistance float64) (float64, int, bool) {
	const eps = 1e-12
	tMin := 0.0
	tMax := maxDistance
	axis := -1

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < eps {
			if origin[i] < min[i] || origin[i] > max[i] {
				return 0, -1, false
			}
			continue
		}

		inv := 1.0 / dir[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
			axis = i
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, -1, false
		}
	}

	return tMin, axis, true
}
