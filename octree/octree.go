// Package octree implements a loose octree over arbitrary elements.
//
// The tree is built once from a snapshot of elements and is immutable until the
// next Build or Reset. Queries only read the tree and can run concurrently;
// Build and Reset must not overlap with any query on the same tree.
package octree

import (
	"context"
	"log/slog"
	"math"

	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultLooseness          = 1.5
	DefaultMaxDepth           = 8
	DefaultMinElementsPerNode = 4

	// rootPadding grows the cubic root bound by a fraction of its half size.
	rootPadding = 0.02
)

// Semantics tells the octree how to read an element.
// BoundingBox, Position and ID are required.
type Semantics[E any, ID comparable] struct {
	BoundingBox func(E) shape.AABB
	Position    func(E) mgl64.Vec3
	ID          func(E) ID

	// Rotation defaults to identity.
	Rotation func(E) mgl64.Quat
	// Shape defaults to a sphere whose radius is the largest half extent of the bounding box.
	Shape func(E) shape.Shape
	// IsValid defaults to always valid.
	IsValid func(E) bool
}

type node[E any] struct {
	bounds   shape.AABB
	depth    int
	elements []E
	// children is either empty (leaf) or holds exactly 8 octants.
	children []*node[E]
}

func (n *node[E]) isLeaf() bool {
	return len(n.children) == 0
}

// Stats describes the shape of a built tree.
type Stats struct {
	Elements int
	Nodes    int
	Leaves   int
	Depth    int
}

type Octree[E any, ID comparable] struct {
	semantics Semantics[E, ID]
	logger    *slog.Logger

	root  *node[E]
	count int

	looseness          float64
	maxDepth           int
	minElementsPerNode int
}

// New creates an empty octree. A nil logger uses slog.Default().
func New[E any, ID comparable](semantics Semantics[E, ID], logger *slog.Logger) *Octree[E, ID] {
	if semantics.BoundingBox == nil || semantics.Position == nil || semantics.ID == nil {
		panic("octree: BoundingBox, Position and ID semantics are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Octree[E, ID]{
		semantics:          semantics,
		logger:             logger,
		looseness:          DefaultLooseness,
		maxDepth:           DefaultMaxDepth,
		minElementsPerNode: DefaultMinElementsPerNode,
	}
}

// Build replaces the tree content with elements.
// Out of range parameters fall back to their defaults.
func (o *Octree[E, ID]) Build(elements []E, looseness float64, maxDepth, minElementsPerNode int) {
	o.setParameters(looseness, maxDepth, minElementsPerNode)
	o.Reset()

	global := shape.EmptyAABB()
	indexed := make([]E, 0, len(elements))
	for _, e := range elements {
		bounds := o.semantics.BoundingBox(e)
		if !bounds.IsValid() {
			o.logger.Warn("octree: skipping element with invalid bounds", "min", bounds.Min, "max", bounds.Max)
			continue
		}
		global = global.Union(bounds)
		indexed = append(indexed, e)
	}

	if len(indexed) == 0 {
		return
	}

	// make cubic and pad, the root stays tight
	extent := global.Extent()
	half := math.Max(extent.X(), math.Max(extent.Y(), extent.Z()))
	half += half * rootPadding

	o.root = &node[E]{
		bounds:   shape.NewAABB(global.Center(), mgl64.Vec3{half, half, half}),
		elements: indexed,
	}
	o.count = len(indexed)
	o.subdivide(o.root)

	if o.logger.Enabled(context.Background(), slog.LevelDebug) {
		stats := o.Stats()
		o.logger.Debug("octree: built",
			"elements", stats.Elements,
			"nodes", stats.Nodes,
			"leaves", stats.Leaves,
			"depth", stats.Depth,
		)
	}
}

func (o *Octree[E, ID]) setParameters(looseness float64, maxDepth, minElementsPerNode int) {
	if !(looseness >= 1) || math.IsInf(looseness, 0) {
		o.logger.Warn("octree: invalid looseness, using default", "looseness", looseness, "default", DefaultLooseness)
		looseness = DefaultLooseness
	}
	if maxDepth < 0 {
		o.logger.Warn("octree: invalid max depth, using default", "maxDepth", maxDepth, "default", DefaultMaxDepth)
		maxDepth = DefaultMaxDepth
	}
	if minElementsPerNode < 0 {
		o.logger.Warn("octree: invalid min elements per node, using default", "minElementsPerNode", minElementsPerNode, "default", DefaultMinElementsPerNode)
		minElementsPerNode = DefaultMinElementsPerNode
	}

	o.looseness = looseness
	o.maxDepth = maxDepth
	o.minElementsPerNode = minElementsPerNode
}

func (o *Octree[E, ID]) subdivide(n *node[E]) {
	if n.depth >= o.maxDepth || len(n.elements) <= o.minElementsPerNode {
		return
	}

	parentCenter := n.bounds.Center()

	// the root has no looseness applied
	parentTight := n.bounds.Extent()
	if n.depth > 0 {
		parentTight = parentTight.Mul(1 / o.looseness)
	}
	childTight := parentTight.Mul(0.5)
	childLoose := childTight.Mul(o.looseness)

	n.children = make([]*node[E], 8)
	for i := range n.children {
		center := parentCenter
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				center[axis] += childTight[axis]
			} else {
				center[axis] -= childTight[axis]
			}
		}
		n.children[i] = &node[E]{
			bounds: shape.NewAABB(center, childLoose),
			depth:  n.depth + 1,
		}
	}

	// Distribute elements by the center of their bounds
	for _, e := range n.elements {
		c := o.semantics.BoundingBox(e).Center()
		index := 0
		for axis := 0; axis < 3; axis++ {
			if c[axis] > parentCenter[axis] {
				index |= 1 << axis
			}
		}
		child := n.children[index]
		child.elements = append(child.elements, e)
	}
	n.elements = nil

	for _, child := range n.children {
		if len(child.elements) > 0 {
			o.subdivide(child)
		}
	}
}

// Reset empties the tree.
func (o *Octree[E, ID]) Reset() {
	o.root = nil
	o.count = 0
}

// Len returns the number of indexed elements.
func (o *Octree[E, ID]) Len() int {
	return o.count
}

// Bounds returns the root bound, or an empty AABB when the tree is empty.
func (o *Octree[E, ID]) Bounds() shape.AABB {
	if o.root == nil {
		return shape.EmptyAABB()
	}
	return o.root.bounds
}

func (o *Octree[E, ID]) Stats() Stats {
	stats := Stats{Elements: o.count}
	if o.root == nil {
		return stats
	}

	stack := []*node[E]{o.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		stats.Nodes++
		if n.depth > stats.Depth {
			stats.Depth = n.depth
		}
		if n.isLeaf() {
			stats.Leaves++
			continue
		}
		stack = append(stack, n.children...)
	}
	return stats
}

func (o *Octree[E, ID]) accepts(e E, validator func(E) bool) bool {
	if o.semantics.IsValid != nil && !o.semantics.IsValid(e) {
		return false
	}
	return validator == nil || validator(e)
}

func (o *Octree[E, ID]) elementShape(e E) shape.Shape {
	if o.semantics.Shape != nil {
		return o.semantics.Shape(e)
	}

	extent := o.semantics.BoundingBox(e).Extent()
	return shape.NewSphere(math.Max(extent.X(), math.Max(extent.Y(), extent.Z())))
}

func (o *Octree[E, ID]) elementTransform(e E) shape.Transform {
	rotation := mgl64.QuatIdent()
	if o.semantics.Rotation != nil {
		rotation = o.semantics.Rotation(e)
	}
	return shape.At(o.semantics.Position(e), rotation)
}
