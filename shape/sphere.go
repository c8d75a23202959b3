package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

// NewSphere creates a sanitized sphere
func NewSphere(radius float64) Sphere {
	s := Sphere{Radius: radius}
	s.Sanitize()
	return s
}

func (s Sphere) Kind() Kind { return KindSphere }

func (s Sphere) isShape() {}

func (s Sphere) IsZeroExtent() bool {
	return s.Radius <= 0
}

func (s *Sphere) Sanitize() {
	s.Radius = math.Max(0, s.Radius)
}

func (s *Sphere) Inflate(amount float64) {
	s.Radius += amount
	s.Sanitize()
}

func (s *Sphere) Scale(factor float64) {
	s.Radius *= math.Abs(factor)
}

func (s Sphere) SupportPoint(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		return mgl64.Vec3{0, 0, s.Radius}
	}
	return direction.Normalize().Mul(s.Radius)
}

// BoundingBox is not affected by rotation, only by position
func (s Sphere) BoundingBox(t Transform) AABB {
	return NewAABB(t.Position, mgl64.Vec3{s.Radius, s.Radius, s.Radius})
}

func (s Sphere) ClosestPoint(t Transform, point mgl64.Vec3) mgl64.Vec3 {
	local := point.Sub(t.Position)
	lenSq := local.LenSqr()
	if lenSq <= s.Radius*s.Radius {
		return point
	}
	return t.Position.Add(local.Mul(s.Radius / math.Sqrt(lenSq)))
}

func (s Sphere) IntersectsPoint(t Transform, point mgl64.Vec3) bool {
	return point.Sub(t.Position).LenSqr() <= s.Radius*s.Radius
}

func (s Sphere) IntersectsSphere(t Transform, center mgl64.Vec3, radius float64) bool {
	r := s.Radius + radius
	return center.Sub(t.Position).LenSqr() <= r*r
}

func (s Sphere) ImplementsRaycast() bool { return true }

func (s Sphere) Raycast(t Transform, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	return RaycastSphere(t.Position, s.Radius, origin, dir, maxDistance)
}
