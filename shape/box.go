package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

// NewBox creates a sanitized box
func NewBox(halfExtents mgl64.Vec3) Box {
	b := Box{HalfExtents: halfExtents}
	b.Sanitize()
	return b
}

func (b Box) Kind() Kind { return KindBox }

func (b Box) isShape() {}

func (b Box) IsZeroExtent() bool {
	return b.HalfExtents.X() <= 0 || b.HalfExtents.Y() <= 0 || b.HalfExtents.Z() <= 0
}

func (b *Box) Sanitize() {
	for i := 0; i < 3; i++ {
		b.HalfExtents[i] = math.Max(0, b.HalfExtents[i])
	}
}

func (b *Box) Inflate(amount float64) {
	b.HalfExtents = b.HalfExtents.Add(mgl64.Vec3{amount, amount, amount})
	b.Sanitize()
}

func (b *Box) Scale(factor float64) {
	b.HalfExtents = b.HalfExtents.Mul(math.Abs(factor))
}

func (b Box) SupportPoint(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// BoundingBox projects the rotated half extents on the world axes.
func (b Box) BoundingBox(t Transform) AABB {
	axisX := t.RotateVector(mgl64.Vec3{1, 0, 0})
	axisY := t.RotateVector(mgl64.Vec3{0, 1, 0})
	axisZ := t.RotateVector(mgl64.Vec3{0, 0, 1})

	h := b.HalfExtents
	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		extent[i] = math.Abs(axisX[i])*h.X() + math.Abs(axisY[i])*h.Y() + math.Abs(axisZ[i])*h.Z()
	}

	return NewAABB(t.Position, extent)
}

func (b Box) clampLocal(local mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		local[i] = mgl64.Clamp(local[i], -b.HalfExtents[i], b.HalfExtents[i])
	}
	return local
}

func (b Box) ClosestPoint(t Transform, point mgl64.Vec3) mgl64.Vec3 {
	return t.ToWorld(b.clampLocal(t.ToLocal(point)))
}

func (b Box) IntersectsPoint(t Transform, point mgl64.Vec3) bool {
	local := t.ToLocal(point)
	for i := 0; i < 3; i++ {
		if local[i] < -b.HalfExtents[i] || local[i] > b.HalfExtents[i] {
			return false
		}
	}
	return true
}

func (b Box) IntersectsSphere(t Transform, center mgl64.Vec3, radius float64) bool {
	local := t.ToLocal(center)
	return local.Sub(b.clampLocal(local)).LenSqr() <= radius*radius
}

func (b Box) ImplementsRaycast() bool { return true }

func (b Box) Raycast(t Transform, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	return RaycastBox(t, b.HalfExtents, origin, dir, maxDistance)
}
