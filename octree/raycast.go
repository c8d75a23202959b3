package octree

import (
	"math"
	"slices"

	"github.com/akmonengine/collide/gjk"
	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// unboundedRayLength replaces a non-positive ray length.
const unboundedRayLength = math.MaxFloat32

// rayQuery carries the ray and the best hit found so far through the traversal.
type rayQuery[E any, ID comparable] struct {
	start     mgl64.Vec3
	dir       mgl64.Vec3
	length    float64
	validator func(E) bool

	hit shape.HitResult
	id  ID
}

// maxDistance is re-read before every pruning decision.
func (q *rayQuery[E, ID]) maxDistance() float64 {
	if q.hit.BlockingHit {
		return q.hit.Distance
	}
	return q.length
}

type childEntry[E any] struct {
	node  *node[E]
	entry float64
}

// Raycast returns the element nearest to start along dir that the ray hits.
// A non-positive length means the ray is unbounded. A nil validator accepts every element.
func (o *Octree[E, ID]) Raycast(start, dir mgl64.Vec3, length float64, validator func(E) bool) (ID, shape.HitResult, bool) {
	var zero ID

	lenSq := dir.LenSqr()
	if lenSq < 1e-24 {
		o.logger.Warn("octree: raycast called with zero-length direction", "start", start)
		return zero, shape.NewHitResult(start, start), false
	}
	if math.Abs(lenSq-1) > 1e-12 {
		dir = dir.Mul(1 / math.Sqrt(lenSq))
	}

	if !(length > 0) {
		length = unboundedRayLength
	}

	q := &rayQuery[E, ID]{
		start:     start,
		dir:       dir,
		length:    length,
		validator: validator,
		hit:       shape.NewHitResult(start, start.Add(dir.Mul(length))),
	}

	if o.root != nil {
		o.raycastNode(o.root, q)
	}

	if !q.hit.BlockingHit {
		return zero, q.hit, false
	}
	return q.id, q.hit, true
}

func (o *Octree[E, ID]) raycastNode(n *node[E], q *rayQuery[E, ID]) {
	// Broad-phase pruning
	if _, hit := n.bounds.Raycast(q.start, q.dir, q.maxDistance()); !hit {
		return
	}

	if n.isLeaf() {
		for _, e := range n.elements {
			if !o.accepts(e, q.validator) {
				continue
			}

			previous := q.hit.Distance
			candidate, hit := gjk.Raycast(o.elementShape(e), o.elementTransform(e), q.start, q.dir, q.maxDistance())
			if !hit || candidate.Distance >= previous {
				continue
			}

			candidate.TraceStart = q.hit.TraceStart
			candidate.TraceEnd = q.hit.TraceEnd
			candidate.Time = candidate.Distance / q.length
			q.hit = candidate
			q.id = o.semantics.ID(e)
		}
		return
	}

	var candidates [8]childEntry[E]
	count := 0
	for _, child := range n.children {
		if entry, hit := child.bounds.Raycast(q.start, q.dir, q.maxDistance()); hit {
			candidates[count] = childEntry[E]{node: child, entry: entry}
			count++
		}
	}

	ordered := candidates[:count]
	slices.SortFunc(ordered, func(a, b childEntry[E]) int {
		switch {
		case a.entry < b.entry:
			return -1
		case a.entry > b.entry:
			return 1
		}
		return 0
	})

	for _, c := range ordered {
		// a closer hit already exists than where this child begins
		if q.hit.BlockingHit && c.entry > q.hit.Distance {
			break
		}
		o.raycastNode(c.node, q)
	}
}
