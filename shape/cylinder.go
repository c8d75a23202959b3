package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cylinder represents a cylinder aligned on the local Z axis
type Cylinder struct {
	Radius     float64
	HalfHeight float64
}

// NewCylinder creates a sanitized cylinder
func NewCylinder(radius, halfHeight float64) Cylinder {
	c := Cylinder{Radius: radius, HalfHeight: halfHeight}
	c.Sanitize()
	return c
}

func (c Cylinder) Kind() Kind { return KindCylinder }

func (c Cylinder) isShape() {}

func (c Cylinder) IsZeroExtent() bool {
	return c.Radius <= 0 || c.HalfHeight <= 0
}

func (c *Cylinder) Sanitize() {
	c.Radius = math.Max(0, c.Radius)
	c.HalfHeight = math.Max(0, c.HalfHeight)
}

func (c *Cylinder) Inflate(amount float64) {
	c.Radius += amount
	c.HalfHeight += amount
	c.Sanitize()
}

func (c *Cylinder) Scale(factor float64) {
	factor = math.Abs(factor)
	c.Radius *= factor
	c.HalfHeight *= factor
}

func (c Cylinder) SupportPoint(direction mgl64.Vec3) mgl64.Vec3 {
	lenSq2D := direction.X()*direction.X() + direction.Y()*direction.Y()
	if lenSq2D < 1e-24 {
		if direction.Z() < 0 {
			return mgl64.Vec3{0, 0, -c.HalfHeight}
		}
		return mgl64.Vec3{0, 0, c.HalfHeight}
	}

	scale := c.Radius / math.Sqrt(lenSq2D)
	return mgl64.Vec3{
		direction.X() * scale,
		direction.Y() * scale,
		sign(direction.Z()) * c.HalfHeight,
	}
}

// BoundingBox is exact: along each world axis the cylinder reaches
// |axis|*HalfHeight from its caps plus the radius of the cap disc.
func (c Cylinder) BoundingBox(t Transform) AABB {
	axis := worldAxisZ(t)

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		a := math.Abs(axis[i])
		extent[i] = a*c.HalfHeight + c.Radius*math.Sqrt(math.Max(0, 1-a*a))
	}

	return NewAABB(t.Position, extent)
}

func (c Cylinder) closestLocal(local mgl64.Vec3) mgl64.Vec3 {
	closest := clampLength2D(local, c.Radius)
	closest[2] = mgl64.Clamp(local.Z(), -c.HalfHeight, c.HalfHeight)
	return closest
}

func (c Cylinder) ClosestPoint(t Transform, point mgl64.Vec3) mgl64.Vec3 {
	return t.ToWorld(c.closestLocal(t.ToLocal(point)))
}

func (c Cylinder) IntersectsPoint(t Transform, point mgl64.Vec3) bool {
	local := t.ToLocal(point)
	return math.Abs(local.Z()) <= c.HalfHeight &&
		local.X()*local.X()+local.Y()*local.Y() <= c.Radius*c.Radius
}

func (c Cylinder) IntersectsSphere(t Transform, center mgl64.Vec3, radius float64) bool {
	local := t.ToLocal(center)
	return local.Sub(c.closestLocal(local)).LenSqr() <= radius*radius
}

func (c Cylinder) ImplementsRaycast() bool { return true }

func (c Cylinder) Raycast(t Transform, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	return RaycastCylinder(t, c.Radius, c.HalfHeight, origin, dir, maxDistance)
}
