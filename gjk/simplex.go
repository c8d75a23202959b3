package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// degenerateEpsilon is the squared length under which an edge, a face normal
// or a search direction is considered zero.
const degenerateEpsilon = 1e-10

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// The newest point is always stored last, at index Len()-1.
// Size progression: 1 point → 2 points (line) → 3 points (triangle) → 4 points (tetrahedron)
type Simplex struct {
	points [4]mgl64.Vec3
	count  int
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

func acquireSimplex() *Simplex {
	simplex := SimplexPool.Get().(*Simplex)
	simplex.Reset()
	return simplex
}

func releaseSimplex(simplex *Simplex) {
	SimplexPool.Put(simplex)
}

func (s *Simplex) Reset() {
	s.count = 0
}

func (s *Simplex) Len() int {
	return s.count
}

// Point returns the i-th point, oldest first.
func (s *Simplex) Point(i int) mgl64.Vec3 {
	return s.points[i]
}

// Add appends p as the newest point. Adding a fifth point is a programming error.
func (s *Simplex) Add(p mgl64.Vec3) {
	if s.count >= len(s.points) {
		panic("gjk: simplex already holds 4 points")
	}
	s.points[s.count] = p
	s.count++
}

// Contains reports whether p is already one of the simplex points.
func (s *Simplex) Contains(p mgl64.Vec3) bool {
	for i := 0; i < s.count; i++ {
		if s.points[i].Sub(p).LenSqr() < degenerateEpsilon {
			return true
		}
	}
	return false
}

// set replaces the simplex content, oldest first.
func (s *Simplex) set(points ...mgl64.Vec3) {
	s.count = copy(s.points[:], points)
}

// Next reduces the simplex to the feature closest to the origin and writes
// the next search direction.
//
// Behavior by simplex dimension:
//   - 1 point: search from the point toward the origin
//   - 2 points (line): keep the edge or fall back to the newest point
//   - 3 points (triangle): reduce to the closest edge or keep the face
//   - 4 points (tetrahedron): reduce to the face the origin lies outside of
//
// Returns true when the origin is enclosed by the simplex.
func (s *Simplex) Next(direction *mgl64.Vec3) bool {
	switch s.count {
	case 1:
		return s.point(direction)
	case 2:
		return s.line(direction)
	case 3:
		return s.triangle(direction)
	case 4:
		return s.tetrahedron(direction)
	}
	return false
}

func (s *Simplex) point(direction *mgl64.Vec3) bool {
	ao := s.points[0].Mul(-1)
	if ao.LenSqr() < degenerateEpsilon {
		return true
	}
	*direction = ao
	return false
}

// line handles the line simplex case (2 points: A newest, B oldest).
func (s *Simplex) line(direction *mgl64.Vec3) bool {
	a := s.points[1]
	b := s.points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	// identical points
	if ab.LenSqr() < degenerateEpsilon {
		s.set(a)
		return s.point(direction)
	}

	if ab.Dot(ao) > 0 {
		abPerp := ab.Cross(ao).Cross(ab)
		if abPerp.LenSqr() < degenerateEpsilon {
			// origin lies on the segment
			return true
		}
		*direction = abPerp
		return false
	}

	s.set(a)
	*direction = ao
	return false
}

// triangle handles the triangle simplex case (3 points: A newest, then B, then C).
//
// Degenerate case: If points are collinear (flat triangle), treats as line AB instead.
func (s *Simplex) triangle(direction *mgl64.Vec3) bool {
	a := s.points[2]
	b := s.points[1]
	c := s.points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)
	if abc.LenSqr() < degenerateEpsilon {
		s.set(b, a)
		return s.line(direction)
	}

	// Region AC (edge), or A alone through the line rule on AB
	if abc.Cross(ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			s.set(c, a)
			return s.line(direction)
		}
		s.set(b, a)
		return s.line(direction)
	}

	// Region AB (edge)
	if ab.Cross(abc).Dot(ao) > 0 {
		s.set(b, a)
		return s.line(direction)
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
		return false
	}

	// Below the face: swap B and C so the winding faces the origin, A stays newest
	s.set(b, c, a)
	*direction = abc.Mul(-1)
	return false
}

// tetrahedron handles the tetrahedron simplex case (4 points: A newest, then B, C, D).
//
// This is the only case that can enclose the origin. Face normals are flipped
// to point away from the opposite vertex before testing the origin against them.
func (s *Simplex) tetrahedron(direction *mgl64.Vec3) bool {
	a := s.points[3]
	b := s.points[2]
	c := s.points[1]
	d := s.points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// Face ABC (opposite to D)
	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}

	// Face ACD (opposite to B)
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}

	// Face ADB (opposite to C)
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	// flat tetrahedron
	if abc.LenSqr() < degenerateEpsilon || acd.LenSqr() < degenerateEpsilon || adb.LenSqr() < degenerateEpsilon {
		s.set(c, b, a)
		return s.triangle(direction)
	}

	if abc.Dot(ao) > 0 {
		s.set(c, b, a)
		return s.triangle(direction)
	}

	if acd.Dot(ao) > 0 {
		s.set(d, c, a)
		return s.triangle(direction)
	}

	if adb.Dot(ao) > 0 {
		s.set(b, d, a)
		return s.triangle(direction)
	}

	return true
}
