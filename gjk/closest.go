package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// flatness is the squared sine under which a triangle or a tetrahedron is treated as flat.
const flatness = 1e-12

// Vertex masks returned by the closest point helpers, bit i for the i-th argument.
const (
	maskA uint8 = 1 << iota
	maskB
	maskC
	maskD
)

// ClosestTo returns the point of the simplex hull closest to p and reduces the
// simplex to the smallest set of points supporting it, keeping their order.
// A full tetrahedron that encloses p is kept whole and p is returned.
func (s *Simplex) ClosestTo(p mgl64.Vec3) mgl64.Vec3 {
	var closest mgl64.Vec3
	var mask uint8

	switch s.count {
	case 0:
		return p
	case 1:
		return s.points[0]
	case 2:
		closest, mask = closestOnSegment(p, s.points[0], s.points[1])
	case 3:
		closest, mask = closestOnTriangle(p, s.points[0], s.points[1], s.points[2])
	case 4:
		closest, mask = closestOnTetrahedron(p, s.points[0], s.points[1], s.points[2], s.points[3])
	}

	kept := 0
	for i := 0; i < s.count; i++ {
		if mask&(1<<i) != 0 {
			s.points[kept] = s.points[i]
			kept++
		}
	}
	s.count = kept
	return closest
}

func closestOnSegment(p, a, b mgl64.Vec3) (mgl64.Vec3, uint8) {
	ab := b.Sub(a)
	lenSq := ab.LenSqr()
	if lenSq < degenerateEpsilon {
		return a, maskA
	}

	t := p.Sub(a).Dot(ab) / lenSq
	switch {
	case t <= 0:
		return a, maskA
	case t >= 1:
		return b, maskB
	}
	return a.Add(ab.Mul(t)), maskA | maskB
}

// closestOnTriangle walks the Voronoi regions of abc: vertices, then edges, then the face.
func closestOnTriangle(p, a, b, c mgl64.Vec3) (mgl64.Vec3, uint8) {
	ab := b.Sub(a)
	ac := c.Sub(a)

	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, maskA
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, maskB
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, maskC
	}

	vc := d1*d4 - d3*d2
	va := d3*d6 - d5*d4
	vb := d5*d2 - d1*d6

	// va+vb+vc is |ab x ac|², a flat triangle falls back to its edges
	denom := va + vb + vc
	if denom <= flatness*ab.LenSqr()*ac.LenSqr() {
		return closestOnEdges(p, a, b, c)
	}

	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), maskA | maskB
	}
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), maskA | maskC
	}
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), maskB | maskC
	}

	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), maskA | maskB | maskC
}

func closestOnEdges(p, a, b, c mgl64.Vec3) (mgl64.Vec3, uint8) {
	best, bestMask := closestOnSegment(p, a, b)
	bestDist := p.Sub(best).LenSqr()

	q, m := closestOnSegment(p, a, c)
	if d := p.Sub(q).LenSqr(); d < bestDist {
		best, bestDist = q, d
		bestMask = m&maskA | (m&maskB)<<1
	}

	q, m = closestOnSegment(p, b, c)
	if d := p.Sub(q).LenSqr(); d < bestDist {
		best = q
		bestMask = m << 1
	}
	return best, bestMask
}

// closestOnTetrahedron keeps the nearest of the faces p lies outside of,
// or p itself when no face separates it from the interior.
func closestOnTetrahedron(p, a, b, c, d mgl64.Vec3) (mgl64.Vec3, uint8) {
	faces := [4]struct {
		x, y, z, opposite mgl64.Vec3
		mask              [3]uint8
	}{
		{a, b, c, d, [3]uint8{maskA, maskB, maskC}},
		{a, c, d, b, [3]uint8{maskA, maskC, maskD}},
		{a, d, b, c, [3]uint8{maskA, maskD, maskB}},
		{b, d, c, a, [3]uint8{maskB, maskD, maskC}},
	}

	closest := p
	mask := maskA | maskB | maskC | maskD
	bestDist := math.Inf(1)

	for _, f := range faces {
		normal := f.y.Sub(f.x).Cross(f.z.Sub(f.x))
		sideP := p.Sub(f.x).Dot(normal)
		sideOpposite := f.opposite.Sub(f.x).Dot(normal)

		flat := sideOpposite*sideOpposite <= flatness*normal.LenSqr()*f.opposite.Sub(f.x).LenSqr()
		if !flat && sideP*sideOpposite >= 0 {
			continue
		}

		q, m := closestOnTriangle(p, f.x, f.y, f.z)
		if dist := p.Sub(q).LenSqr(); dist < bestDist {
			closest, bestDist = q, dist
			mask = 0
			for i, bit := range f.mask {
				if m&(1<<i) != 0 {
					mask |= bit
				}
			}
		}
	}

	return closest, mask
}
