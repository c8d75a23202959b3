package shape

import "github.com/go-gl/mathgl/mgl64"

// Transform places a shape in world space.
// Rotation must be a unit quaternion; the zero quaternion is read as identity.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// At creates a transform at position with the given rotation
func At(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	return Transform{Position: position, Rotation: rotation}
}

func (t Transform) rotation() mgl64.Quat {
	if t.Rotation.W == 0 && t.Rotation.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

// RotateVector rotates a local direction into world space.
func (t Transform) RotateVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Rotate(v)
}

// UnrotateVector rotates a world direction into local space.
func (t Transform) UnrotateVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Conjugate().Rotate(v)
}

// ToWorld transforms a local point into world space.
func (t Transform) ToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.RotateVector(p))
}

// ToLocal transforms a world point into local space.
func (t Transform) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return t.UnrotateVector(p.Sub(t.Position))
}

// SupportWorld returns the world-space support point of s placed by t.
//
//  1. the direction is brought into local space (inverse rotation)
//  2. the local support point is computed
//  3. the point is transformed back into world space
func (t Transform) SupportWorld(s Shape, direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := t.UnrotateVector(direction)
	localSupport := s.SupportPoint(localDirection)
	return t.ToWorld(localSupport)
}
