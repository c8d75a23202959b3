package gjk

import (
	"math"

	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// RaycastTolerance is the distance to the surface, relative to the size
	// of the shape, at which RaycastGJK stops advancing and reports a hit.
	RaycastTolerance = 1e-6
	// ContactTolerance is the relative distance still accepted as a hit when
	// RaycastGJK runs out of iterations.
	ContactTolerance = 1e-4
	// MaxRaycastIterations bounds RaycastGJK.
	MaxRaycastIterations = 128
)

// Raycast casts a ray against s placed by t.
// Shapes with an analytic raycast answer directly, the others go through RaycastGJK.
func Raycast(s shape.Shape, t shape.Transform, origin, dir mgl64.Vec3, maxDistance float64) (shape.HitResult, bool) {
	if s.ImplementsRaycast() {
		return s.Raycast(t, origin, dir, maxDistance)
	}
	return RaycastGJK(s, t, origin, dir, maxDistance)
}

// LineTrace casts the segment start..end against s placed by t.
func LineTrace(s shape.Shape, t shape.Transform, start, end mgl64.Vec3) (shape.HitResult, bool) {
	delta := end.Sub(start)
	return Raycast(s, t, start, delta, delta.Len())
}

// RaycastGJK casts a ray against any convex shape by conservative advancement.
//
// x is the current point on the ray and v the vector from the shape to x,
// taken as the point of the simplex hull of (x - support points) closest to
// the origin:
//  1. take the support point p of the shape along v
//  2. if v·(x-p) > 0 the plane through p normal to v separates x from the
//     shape: advance x up to that plane, or give up if the ray moves away
//  3. add p to the simplex and recompute v against the new x
//
// The simplex stores support points of the shape, not of the difference, so
// it stays valid when x moves. The ray hits once |v| is negligible.
// The hit normal is the last separating plane normal.
func RaycastGJK(s shape.Shape, t shape.Transform, origin, dir mgl64.Vec3, maxDistance float64) (shape.HitResult, bool) {
	lenSq := dir.LenSqr()
	if lenSq < 1e-24 || !(maxDistance > 0) {
		return shape.NewHitResult(origin, origin), false
	}
	dir = dir.Mul(1 / math.Sqrt(lenSq))

	hit := shape.NewHitResult(origin, origin.Add(dir.Mul(maxDistance)))

	if s.IntersectsPoint(t, origin) {
		hit.StartInside(origin, dir)
		return hit, true
	}

	bounds := s.BoundingBox(t)
	size := math.Max(bounds.Max.Sub(bounds.Min).Len(), 1e-9)
	stopSq := math.Pow(RaycastTolerance*size, 2)
	// separating planes closer than noise to x are rounding errors
	noise := 1e-3 * RaycastTolerance * size

	simplex := acquireSimplex()
	defer releaseSimplex(simplex)

	x := origin
	distance := 0.0
	normal := dir.Mul(-1)

	v := x.Sub(t.Position)
	if v.LenSqr() < degenerateEpsilon {
		v = dir.Mul(-1)
	}

	for i := 0; i < MaxRaycastIterations && v.LenSqr() > stopSq; i++ {
		p := t.SupportWorld(s, v)
		vw := v.Dot(x.Sub(p))

		if vw > noise*v.Len() {
			vr := v.Dot(dir)
			if vr >= 0 {
				return hit, false
			}

			distance -= vw / vr
			if distance > maxDistance {
				return hit, false
			}
			x = origin.Add(dir.Mul(distance))
			normal = v
		} else if simplex.Contains(p) {
			// no new support point and no advance: v cannot shrink further
			break
		}

		if !simplex.Contains(p) {
			simplex.Add(p)
		}
		v = x.Sub(simplex.ClosestTo(x))
	}

	if v.LenSqr() > stopSq && v.LenSqr() > math.Pow(ContactTolerance*size, 2) {
		return hit, false
	}

	hit.BlockAt(distance, maxDistance, x, normal.Normalize())
	return hit, true
}
