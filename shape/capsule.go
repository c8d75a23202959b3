package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Capsule represents a capsule aligned on the local Z axis.
// HalfHeight is measured from the center to the tip of a cap, so the
// segment joining the two cap centers has half length HalfHeight-Radius.
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

// NewCapsule creates a sanitized capsule
func NewCapsule(radius, halfHeight float64) Capsule {
	c := Capsule{Radius: radius, HalfHeight: halfHeight}
	c.Sanitize()
	return c
}

func (c Capsule) Kind() Kind { return KindCapsule }

func (c Capsule) isShape() {}

func (c Capsule) IsZeroExtent() bool {
	return c.Radius <= 0 || c.HalfHeight <= 0
}

// Sanitize clamps negative values and keeps the radius within the half height.
func (c *Capsule) Sanitize() {
	c.HalfHeight = math.Max(0, c.HalfHeight)
	c.Radius = mgl64.Clamp(c.Radius, 0, c.HalfHeight)
}

func (c *Capsule) Inflate(amount float64) {
	c.Radius += amount
	c.HalfHeight += amount
	c.Sanitize()
}

func (c *Capsule) Scale(factor float64) {
	factor = math.Abs(factor)
	c.Radius *= factor
	c.HalfHeight *= factor
}

// SegmentHalfLength returns the half length of the inner segment.
func (c Capsule) SegmentHalfLength() float64 {
	return math.Max(0, c.HalfHeight-c.Radius)
}

func (c Capsule) SupportPoint(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		return mgl64.Vec3{0, 0, c.HalfHeight}
	}

	axial := mgl64.Vec3{0, 0, sign(direction.Z()) * c.SegmentHalfLength()}
	return axial.Add(direction.Normalize().Mul(c.Radius))
}

// BoundingBox wraps the two cap spheres.
func (c Capsule) BoundingBox(t Transform) AABB {
	offset := worldAxisZ(t).Mul(c.SegmentHalfLength())
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}

	top := NewAABB(t.Position.Add(offset), r)
	bottom := NewAABB(t.Position.Sub(offset), r)
	return top.Union(bottom)
}

// closestLocal returns the point of the capsule closest to a local point.
func (c Capsule) closestLocal(local mgl64.Vec3) mgl64.Vec3 {
	segment := c.SegmentHalfLength()
	if math.Abs(local.Z()) <= segment {
		return clampLength2D(local, c.Radius)
	}

	offset := mgl64.Vec3{0, 0, sign(local.Z()) * segment}
	return clampLength(local.Sub(offset), c.Radius).Add(offset)
}

func (c Capsule) ClosestPoint(t Transform, point mgl64.Vec3) mgl64.Vec3 {
	return t.ToWorld(c.closestLocal(t.ToLocal(point)))
}

func (c Capsule) IntersectsPoint(t Transform, point mgl64.Vec3) bool {
	local := t.ToLocal(point)
	segment := c.SegmentHalfLength()
	r2 := c.Radius * c.Radius

	if math.Abs(local.Z()) <= segment {
		return local.X()*local.X()+local.Y()*local.Y() <= r2
	}

	capCenter := mgl64.Vec3{0, 0, sign(local.Z()) * segment}
	return local.Sub(capCenter).LenSqr() <= r2
}

func (c Capsule) IntersectsSphere(t Transform, center mgl64.Vec3, radius float64) bool {
	local := t.ToLocal(center)
	return local.Sub(c.closestLocal(local)).LenSqr() <= radius*radius
}

func (c Capsule) ImplementsRaycast() bool { return true }

func (c Capsule) Raycast(t Transform, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	return RaycastCapsule(t, c.Radius, c.HalfHeight, origin, dir, maxDistance)
}
