// Package collide answers spatial queries over a set of convex bodies.
//
// Shapes live in package shape, the narrow phase in package gjk and the
// broad phase in package octree. Scene ties them together.
package collide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/akmonengine/collide/octree"
	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

const DefaultWorkers = 1

var ErrBodyNotFound = errors.New("collide: body not found")

// Body is a shape placed in a Scene.
type Body struct {
	Name      string
	Shape     shape.Shape
	Transform shape.Transform
	// Disabled bodies stay indexed but are ignored by every query.
	Disabled bool
}

// Pair is two bodies whose shapes intersect. A was added to the scene before B.
type Pair struct {
	BodyA *Body
	BodyB *Body
}

// Scene indexes bodies in a loose octree.
// Queries see the shapes and transforms the bodies had at the last Rebuild
// or Update. Disabled is read at query time.
type Scene struct {
	// Octree build parameters, zero values use the octree defaults
	Looseness          float64
	MaxDepth           int
	MinElementsPerNode int
	Workers            int
	Logger             *slog.Logger

	Events Events

	mu       sync.RWMutex
	bodies   []*Body
	tree     *octree.Octree[*element, *Body]
	elements []*element
	// position of each indexed body at the last rebuild
	order map[*Body]int
}

// element is a body frozen at the last rebuild.
type element struct {
	body      *Body
	shape     shape.Shape
	transform shape.Transform
}

// acceptBody adapts a body filter to the indexed elements.
func acceptBody(filter func(*Body) bool) func(*element) bool {
	if filter == nil {
		return nil
	}
	return func(e *element) bool { return filter(e.body) }
}

// NewScene creates an empty scene with default parameters.
func NewScene(logger *slog.Logger) *Scene {
	return &Scene{
		Looseness:          octree.DefaultLooseness,
		MaxDepth:           octree.DefaultMaxDepth,
		MinElementsPerNode: octree.DefaultMinElementsPerNode,
		Workers:            DefaultWorkers,
		Logger:             logger,
		Events:             NewEvents(),
	}
}

// AddBody adds a body to the scene. It becomes visible to queries after the next Rebuild.
// Adding the same body twice has no effect.
func (s *Scene) AddBody(body *Body) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.bodies, body) {
		return
	}
	s.bodies = append(s.bodies, body)
}

// RemoveBody removes a body from the scene and forgets its overlap history.
func (s *Scene) RemoveBody(body *Body) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := slices.Index(s.bodies, body)
	if k == -1 {
		name := "<nil>"
		if body != nil {
			name = body.Name
		}
		return fmt.Errorf("remove body %q: %w", name, ErrBodyNotFound)
	}

	s.bodies = slices.Delete(s.bodies, k, k+1)
	s.Events.forget(body)
	return nil
}

// Bodies returns a copy of the bodies in insertion order.
func (s *Scene) Bodies() []*Body {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.bodies)
}

func (s *Scene) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scene) workers() int {
	return max(DefaultWorkers, s.Workers)
}

// Rebuild re-indexes every body with its current transform.
func (s *Scene) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rebuild()
}

func (s *Scene) rebuild() {
	if s.tree == nil {
		s.tree = octree.New(octree.Semantics[*element, *Body]{
			BoundingBox: func(e *element) shape.AABB { return e.shape.BoundingBox(e.transform) },
			Position:    func(e *element) mgl64.Vec3 { return e.transform.Position },
			Rotation:    func(e *element) mgl64.Quat { return e.transform.Rotation },
			Shape:       func(e *element) shape.Shape { return e.shape },
			ID:          func(e *element) *Body { return e.body },
			IsValid:     func(e *element) bool { return !e.body.Disabled },
		}, s.logger().With("component", "octree"))
	}

	s.elements = make([]*element, 0, len(s.bodies))
	s.order = make(map[*Body]int, len(s.bodies))
	for _, body := range s.bodies {
		if body == nil || body.Shape == nil {
			s.logger().Warn("collide: skipping body without shape")
			continue
		}
		s.order[body] = len(s.elements)
		s.elements = append(s.elements, &element{body: body, shape: body.Shape, transform: body.Transform})
	}

	s.tree.Build(s.elements, orDefault(s.Looseness, octree.DefaultLooseness), orDefault(s.MaxDepth, octree.DefaultMaxDepth), orDefault(s.MinElementsPerNode, octree.DefaultMinElementsPerNode))
}

func orDefault[T int | float64](value, fallback T) T {
	if value == 0 {
		return fallback
	}
	return value
}

// sortBodies orders bodies by their position in the last rebuild.
func (s *Scene) sortBodies(bodies []*Body) []*Body {
	slices.SortFunc(bodies, func(a, b *Body) int {
		return s.order[a] - s.order[b]
	})
	return bodies
}

// Raycast returns the nearest body hit by the ray. A non-positive length is unbounded.
// A nil filter accepts every enabled body.
func (s *Scene) Raycast(origin, dir mgl64.Vec3, length float64, filter func(*Body) bool) (*Body, shape.HitResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return nil, shape.NewHitResult(origin, origin.Add(dir.Mul(max(length, 0)))), false
	}
	return s.tree.Raycast(origin, dir, length, acceptBody(filter))
}

// LineTrace returns the nearest body crossed by the segment start..end.
func (s *Scene) LineTrace(start, end mgl64.Vec3, filter func(*Body) bool) (*Body, shape.HitResult, bool) {
	delta := end.Sub(start)
	length := delta.Len()
	if length == 0 {
		return nil, shape.NewHitResult(start, end), false
	}
	return s.Raycast(start, delta, length, filter)
}

// Overlap returns the bodies intersecting q placed by t.
func (s *Scene) Overlap(q shape.Shape, t shape.Transform, filter func(*Body) bool) []*Body {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return nil
	}
	return s.sortBodies(s.tree.QueryShape(q, t, acceptBody(filter)))
}

// OverlapBox returns the bodies whose bounding box overlaps bounds.
func (s *Scene) OverlapBox(bounds shape.AABB, filter func(*Body) bool) []*Body {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return nil
	}
	return s.sortBodies(s.tree.Query(bounds, acceptBody(filter)))
}

// FindPairs returns every pair of intersecting enabled bodies once,
// ordered by the position of their bodies in the scene.
func (s *Scene) FindPairs() []Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findPairs()
}

func (s *Scene) findPairs() []Pair {
	if s.tree == nil || s.tree.Len() == 0 {
		return nil
	}

	found := make([][]Pair, len(s.elements))
	task(s.workers(), s.elements, func(i int, e *element) {
		if e.body.Disabled {
			return
		}
		// only later bodies, so each pair is reported by its first body
		later := func(other *element) bool { return s.order[other.body] > i }
		others := s.sortBodies(s.tree.QueryShape(e.shape, e.transform, later))

		for _, other := range others {
			found[i] = append(found[i], Pair{BodyA: e.body, BodyB: other})
		}
	})

	var pairs []Pair
	for _, p := range found {
		pairs = append(pairs, p...)
	}
	return pairs
}

// Update rebuilds the tree, finds the intersecting pairs and dispatches overlap events.
// Listeners run after the scene is unlocked and may query it.
func (s *Scene) Update() []Pair {
	s.mu.Lock()
	s.rebuild()
	pairs := s.findPairs()
	s.Events.recordPairs(pairs, s.order)
	events := s.Events.drain()
	bodies := len(s.elements)
	s.mu.Unlock()

	if s.logger().Enabled(context.Background(), slog.LevelDebug) {
		s.logger().Debug("collide: scene updated", "bodies", bodies, "pairs", len(pairs), "events", len(events))
	}

	s.Events.dispatch(events)
	return pairs
}
