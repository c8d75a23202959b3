package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// normalizeRay returns the unit direction of a ray, or false when the ray is unusable.
func normalizeRay(dir mgl64.Vec3, maxDistance float64) (mgl64.Vec3, bool) {
	lenSq := dir.LenSqr()
	if lenSq < 1e-24 || maxDistance <= 0 || math.IsNaN(maxDistance) {
		return dir, false
	}
	if math.Abs(lenSq-1) > 1e-12 {
		dir = dir.Mul(1 / math.Sqrt(lenSq))
	}
	return dir, true
}

// RaycastSphere intersects a ray with a sphere.
func RaycastSphere(center mgl64.Vec3, radius float64, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	dir, ok := normalizeRay(dir, maxDistance)
	hit := NewHitResult(origin, origin.Add(dir.Mul(maxDistance)))
	if !ok {
		return hit, false
	}

	m := origin.Sub(center)
	c := m.LenSqr() - radius*radius
	if c <= 0 {
		hit.StartInside(origin, dir)
		return hit, true
	}

	b := m.Dot(dir)
	if b > 0 {
		return hit, false
	}

	discriminant := b*b - c
	if discriminant < 0 {
		return hit, false
	}

	distance := math.Max(0, -b-math.Sqrt(discriminant))
	if distance > maxDistance {
		return hit, false
	}

	location := origin.Add(dir.Mul(distance))
	normal := location.Sub(center)
	if radius > 0 {
		normal = normal.Mul(1 / radius)
	} else {
		normal = dir.Mul(-1)
	}

	hit.BlockAt(distance, maxDistance, location, normal)
	return hit, true
}

// RaycastBox intersects a ray with an oriented box placed by t.
func RaycastBox(t Transform, halfExtents, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	dir, ok := normalizeRay(dir, maxDistance)
	hit := NewHitResult(origin, origin.Add(dir.Mul(maxDistance)))
	if !ok {
		return hit, false
	}

	localOrigin := t.ToLocal(origin)
	localDir := t.UnrotateVector(dir)

	distance, axis, ok := slab(localOrigin, localDir, halfExtents.Mul(-1), halfExtents, maxDistance)
	if !ok {
		return hit, false
	}

	if axis < 0 {
		hit.StartInside(origin, dir)
		return hit, true
	}

	var localNormal mgl64.Vec3
	localNormal[axis] = -sign(localDir[axis])

	hit.BlockAt(distance, maxDistance, origin.Add(dir.Mul(distance)), t.RotateVector(localNormal))
	return hit, true
}

// RaycastCapsule intersects a ray with a capsule placed by t, aligned on its local Z axis.
// The capsule is the sphere of the given radius swept along its inner segment, so the
// entry point is the nearest of the side wall and the two cap spheres.
func RaycastCapsule(t Transform, radius, halfHeight float64, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	dir, ok := normalizeRay(dir, maxDistance)
	hit := NewHitResult(origin, origin.Add(dir.Mul(maxDistance)))
	if !ok {
		return hit, false
	}

	capsule := Capsule{Radius: radius, HalfHeight: halfHeight}
	if capsule.IntersectsPoint(t, origin) {
		hit.StartInside(origin, dir)
		return hit, true
	}

	o := t.ToLocal(origin)
	d := t.UnrotateVector(dir)
	segment := capsule.SegmentHalfLength()

	best := math.Inf(1)
	var localNormal mgl64.Vec3

	if distance, ok := raycastTube(o, d, radius); ok {
		if z := o.Z() + distance*d.Z(); math.Abs(z) <= segment {
			best = distance
			localNormal = radialNormal(o.Add(d.Mul(distance)), d)
		}
	}

	for _, z := range [2]float64{-segment, segment} {
		center := mgl64.Vec3{0, 0, z}
		distance, ok := raycastSphereDistance(o.Sub(center), d, radius)
		if !ok || distance >= best {
			continue
		}
		best = distance
		localNormal = o.Add(d.Mul(distance)).Sub(center)
		if radius > 0 {
			localNormal = localNormal.Mul(1 / radius)
		} else {
			localNormal = d.Mul(-1)
		}
	}

	if best > maxDistance {
		return hit, false
	}

	hit.BlockAt(best, maxDistance, origin.Add(dir.Mul(best)), t.RotateVector(localNormal))
	return hit, true
}

// RaycastCylinder intersects a ray with a cylinder placed by t, aligned on its local Z axis.
// The ray is clipped by the slab |z| <= halfHeight and by the infinite circular tube.
func RaycastCylinder(t Transform, radius, halfHeight float64, origin, dir mgl64.Vec3, maxDistance float64) (HitResult, bool) {
	dir, ok := normalizeRay(dir, maxDistance)
	hit := NewHitResult(origin, origin.Add(dir.Mul(maxDistance)))
	if !ok {
		return hit, false
	}

	cylinder := Cylinder{Radius: radius, HalfHeight: halfHeight}
	if cylinder.IntersectsPoint(t, origin) {
		hit.StartInside(origin, dir)
		return hit, true
	}

	o := t.ToLocal(origin)
	d := t.UnrotateVector(dir)
	const eps = 1e-12

	enterZ, exitZ := math.Inf(-1), math.Inf(1)
	if math.Abs(d.Z()) < eps {
		if math.Abs(o.Z()) > halfHeight {
			return hit, false
		}
	} else {
		enterZ = (-halfHeight - o.Z()) / d.Z()
		exitZ = (halfHeight - o.Z()) / d.Z()
		if enterZ > exitZ {
			enterZ, exitZ = exitZ, enterZ
		}
	}

	enterTube, exitTube := math.Inf(-1), math.Inf(1)
	a := d.X()*d.X() + d.Y()*d.Y()
	if a < eps {
		if o.X()*o.X()+o.Y()*o.Y() > radius*radius {
			return hit, false
		}
	} else {
		b := o.X()*d.X() + o.Y()*d.Y()
		c := o.X()*o.X() + o.Y()*o.Y() - radius*radius
		discriminant := b*b - a*c
		if discriminant < 0 {
			return hit, false
		}
		root := math.Sqrt(discriminant)
		enterTube = (-b - root) / a
		exitTube = (-b + root) / a
	}

	enter := math.Max(enterZ, enterTube)
	exit := math.Min(exitZ, exitTube)
	if enter > exit || exit < 0 {
		return hit, false
	}
	enter = math.Max(0, enter)
	if enter > maxDistance {
		return hit, false
	}

	var localNormal mgl64.Vec3
	if enterZ >= enterTube {
		localNormal[2] = -sign(d.Z())
	} else {
		localNormal = radialNormal(o.Add(d.Mul(enter)), d)
	}

	hit.BlockAt(enter, maxDistance, origin.Add(dir.Mul(enter)), t.RotateVector(localNormal))
	return hit, true
}

// raycastTube returns the distance at which a local ray enters the infinite tube
// x²+y² = radius² around Z, when it starts outside of it.
func raycastTube(o, d mgl64.Vec3, radius float64) (float64, bool) {
	a := d.X()*d.X() + d.Y()*d.Y()
	if a < 1e-12 {
		return 0, false
	}
	b := o.X()*d.X() + o.Y()*d.Y()
	c := o.X()*o.X() + o.Y()*o.Y() - radius*radius
	discriminant := b*b - a*c
	if c < 0 || discriminant < 0 {
		return 0, false
	}

	distance := (-b - math.Sqrt(discriminant)) / a
	return distance, distance >= 0
}

// raycastSphereDistance returns the entry distance of a ray starting at m, relative
// to the sphere center, along the unit direction d.
func raycastSphereDistance(m, d mgl64.Vec3, radius float64) (float64, bool) {
	b := m.Dot(d)
	c := m.LenSqr() - radius*radius
	if c > 0 && b > 0 {
		return 0, false
	}
	discriminant := b*b - c
	if discriminant < 0 {
		return 0, false
	}
	return math.Max(0, -b-math.Sqrt(discriminant)), true
}

// radialNormal returns the outward normal of a tube around Z at local point p.
func radialNormal(p, d mgl64.Vec3) mgl64.Vec3 {
	radial := mgl64.Vec3{p.X(), p.Y(), 0}
	if radial.LenSqr() < 1e-24 {
		return d.Mul(-1)
	}
	return radial.Normalize()
}
