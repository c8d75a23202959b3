package octree

import (
	"github.com/akmonengine/collide/gjk"
	"github.com/akmonengine/collide/shape"
)

// Query returns the IDs of the elements whose bounding box overlaps bounds.
// Results are unordered; invalid bounds yield nil.
func (o *Octree[E, ID]) Query(bounds shape.AABB, validator func(E) bool) []ID {
	if !bounds.IsValid() {
		o.logger.Warn("octree: query with invalid bounds", "min", bounds.Min, "max", bounds.Max)
		return nil
	}
	if o.root == nil {
		return nil
	}

	var results []ID
	o.queryBounds(o.root, bounds, validator, &results)
	return results
}

func (o *Octree[E, ID]) queryBounds(n *node[E], bounds shape.AABB, validator func(E) bool, results *[]ID) {
	if !n.bounds.Overlaps(bounds) {
		return
	}

	if !n.isLeaf() {
		for _, child := range n.children {
			o.queryBounds(child, bounds, validator, results)
		}
		return
	}

	for _, e := range n.elements {
		if !o.accepts(e, validator) {
			continue
		}
		if bounds.Overlaps(o.semantics.BoundingBox(e)) {
			*results = append(*results, o.semantics.ID(e))
		}
	}
}

// QueryShape returns the IDs of the elements whose shape intersects s placed by t.
// Results are unordered; a query shape with invalid bounds yields nil.
func (o *Octree[E, ID]) QueryShape(s shape.Shape, t shape.Transform, validator func(E) bool) []ID {
	queryBounds := s.BoundingBox(t)
	if !queryBounds.IsValid() {
		o.logger.Warn("octree: shape query with invalid bounds", "shape", s.Kind().String())
		return nil
	}
	if o.root == nil {
		return nil
	}

	var results []ID
	o.queryShape(o.root, s, t, queryBounds, validator, &results)
	return results
}

func (o *Octree[E, ID]) queryShape(n *node[E], s shape.Shape, t shape.Transform, queryBounds shape.AABB, validator func(E) bool, results *[]ID) {
	if !n.bounds.Overlaps(queryBounds) {
		return
	}

	if !n.isLeaf() {
		for _, child := range n.children {
			o.queryShape(child, s, t, queryBounds, validator, results)
		}
		return
	}

	for _, e := range n.elements {
		if !o.accepts(e, validator) {
			continue
		}
		if gjk.Intersect(s, t, o.elementShape(e), o.elementTransform(e), gjk.DefaultMaxIterations) {
			*results = append(*results, o.semantics.ID(e))
		}
	}
}
