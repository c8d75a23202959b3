package octree

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

type item struct {
	id       int
	position mgl64.Vec3
	shape    shape.Shape
	disabled bool
}

func (i item) transform() shape.Transform {
	return shape.At(i.position, mgl64.QuatIdent())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func itemSemantics() Semantics[item, int] {
	return Semantics[item, int]{
		BoundingBox: func(i item) shape.AABB { return i.shape.BoundingBox(i.transform()) },
		Position:    func(i item) mgl64.Vec3 { return i.position },
		ID:          func(i item) int { return i.id },
		Shape:       func(i item) shape.Shape { return i.shape },
		IsValid:     func(i item) bool { return !i.disabled },
	}
}

func newTree() *Octree[item, int] {
	return New(itemSemantics(), discardLogger())
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return floatEqual(a.X(), b.X(), tolerance) &&
		floatEqual(a.Y(), b.Y(), tolerance) &&
		floatEqual(a.Z(), b.Z(), tolerance)
}

// gridItems places small spheres on the integer lattice [0,n)^3.
func gridItems(n int, radius float64) []item {
	items := make([]item, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				items = append(items, item{
					id:       gridID(n, x, y, z),
					position: mgl64.Vec3{float64(x), float64(y), float64(z)},
					shape:    shape.NewSphere(radius),
				})
			}
		}
	}
	return items
}

func gridID(n, x, y, z int) int {
	return (x*n+y)*n + z
}

func countIDs(ids []int) map[int]int {
	counts := make(map[int]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	return counts
}

// ========== Build ==========

func TestNew_PanicsWithoutRequiredSemantics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected New to panic without an ID semantic")
		}
	}()

	semantics := itemSemantics()
	semantics.ID = nil
	New(semantics, nil)
}

func TestBuild_EveryElementIndexedOnce(t *testing.T) {
	items := gridItems(6, 0.1)
	tree := newTree()
	tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	if tree.Len() != len(items) {
		t.Fatalf("Len() = %d, want %d", tree.Len(), len(items))
	}

	counts := countIDs(tree.Query(tree.Bounds(), nil))
	if len(counts) != len(items) {
		t.Fatalf("Query over the root bound returned %d distinct ids, want %d", len(counts), len(items))
	}
	for id, c := range counts {
		if c != 1 {
			t.Errorf("id %d returned %d times", id, c)
		}
	}
}

func TestBuild_RootBound(t *testing.T) {
	items := []item{
		{id: 1, position: mgl64.Vec3{0, 0, 0}, shape: shape.NewBox(mgl64.Vec3{1, 1, 1})},
		{id: 2, position: mgl64.Vec3{8, 2, 0}, shape: shape.NewBox(mgl64.Vec3{1, 1, 1})},
	}
	tree := newTree()
	tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	bounds := tree.Bounds()
	// global bound is [-1,9]x[-1,3]x[-1,1], cubic half 5 padded by 2%
	if !vec3Equal(bounds.Center(), mgl64.Vec3{4, 1, 0}, 1e-9) {
		t.Errorf("root center = %v, want (4,1,0)", bounds.Center())
	}
	if !vec3Equal(bounds.Extent(), mgl64.Vec3{5.1, 5.1, 5.1}, 1e-9) {
		t.Errorf("root extent = %v, want 5.1 on every axis", bounds.Extent())
	}
}

func TestBuild_InvalidParametersUseDefaults(t *testing.T) {
	tree := newTree()
	tree.Build(gridItems(2, 0.1), 0.5, -1, -3)

	if tree.looseness != DefaultLooseness {
		t.Errorf("looseness = %v, want %v", tree.looseness, DefaultLooseness)
	}
	if tree.maxDepth != DefaultMaxDepth {
		t.Errorf("maxDepth = %v, want %v", tree.maxDepth, DefaultMaxDepth)
	}
	if tree.minElementsPerNode != DefaultMinElementsPerNode {
		t.Errorf("minElementsPerNode = %v, want %v", tree.minElementsPerNode, DefaultMinElementsPerNode)
	}

	tree.Build(gridItems(2, 0.1), math.Inf(1), 3, 2)
	if tree.looseness != DefaultLooseness {
		t.Errorf("infinite looseness kept as %v", tree.looseness)
	}
	if tree.maxDepth != 3 || tree.minElementsPerNode != 2 {
		t.Errorf("valid parameters replaced: maxDepth %d, min %d", tree.maxDepth, tree.minElementsPerNode)
	}
}

func TestBuild_SkipsInvalidBounds(t *testing.T) {
	nan := math.NaN()
	items := []item{
		{id: 1, position: mgl64.Vec3{0, 0, 0}, shape: shape.NewSphere(1)},
		{id: 2, position: mgl64.Vec3{nan, 0, 0}, shape: shape.NewSphere(1)},
	}
	tree := newTree()
	tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
}

func TestStats(t *testing.T) {
	t.Run("single element is a single leaf", func(t *testing.T) {
		tree := newTree()
		tree.Build(gridItems(1, 0.5), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

		stats := tree.Stats()
		if stats != (Stats{Elements: 1, Nodes: 1, Leaves: 1, Depth: 0}) {
			t.Errorf("Stats() = %+v", stats)
		}
	})

	t.Run("max depth zero keeps the root", func(t *testing.T) {
		tree := newTree()
		tree.Build(gridItems(4, 0.1), DefaultLooseness, 0, 1)

		stats := tree.Stats()
		if stats.Nodes != 1 || stats.Depth != 0 {
			t.Errorf("Stats() = %+v, want a lone root", stats)
		}
	})

	t.Run("internal nodes have eight children", func(t *testing.T) {
		tree := newTree()
		tree.Build(gridItems(6, 0.1), DefaultLooseness, DefaultMaxDepth, 1)

		stats := tree.Stats()
		internal := stats.Nodes - stats.Leaves
		if internal == 0 {
			t.Fatal("Expected the tree to subdivide")
		}
		if stats.Nodes != 1+8*internal {
			t.Errorf("Nodes = %d, Leaves = %d: not a full octree", stats.Nodes, stats.Leaves)
		}
		if stats.Depth > DefaultMaxDepth {
			t.Errorf("Depth = %d exceeds the max depth", stats.Depth)
		}
	})
}

func TestEmptyTree(t *testing.T) {
	tree := newTree()
	tree.Build(nil, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	if tree.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tree.Len())
	}
	if tree.Bounds().IsValid() {
		t.Error("Expected an empty tree to report invalid bounds")
	}
	if _, hit, ok := tree.Raycast(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 10, nil); ok || hit.BlockingHit {
		t.Error("Expected no hit in an empty tree")
	}
	if ids := tree.Query(shape.NewAABB(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), nil); ids != nil {
		t.Errorf("Query() = %v, want nil", ids)
	}
	if ids := tree.QueryShape(shape.NewSphere(1), shape.NewTransform(), nil); ids != nil {
		t.Errorf("QueryShape() = %v, want nil", ids)
	}
}

func TestReset(t *testing.T) {
	tree := newTree()
	tree.Build(gridItems(3, 0.1), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)
	tree.Reset()

	if tree.Len() != 0 || tree.Stats().Nodes != 0 {
		t.Errorf("Expected an empty tree after Reset, got %+v", tree.Stats())
	}
	if ids := tree.Query(shape.NewAABB(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{5, 5, 5}), nil); len(ids) != 0 {
		t.Errorf("Query() after Reset = %v", ids)
	}
}

// ========== Raycast ==========

func TestRaycast_Nearest(t *testing.T) {
	near := item{id: 7, position: mgl64.Vec3{5, 0, 0}, shape: shape.NewSphere(1)}
	far := item{id: 3, position: mgl64.Vec3{10, 0, 0}, shape: shape.NewSphere(1)}

	orders := map[string][]item{
		"near first": {near, far},
		"far first":  {far, near},
	}

	for name, items := range orders {
		t.Run(name, func(t *testing.T) {
			tree := newTree()
			tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

			id, hit, ok := tree.Raycast(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 100, nil)
			if !ok {
				t.Fatal("expected a hit")
			}
			if id != near.id {
				t.Errorf("id = %d, want %d", id, near.id)
			}
			if !floatEqual(hit.Distance, 4, 1e-6) {
				t.Errorf("Distance = %v, want 4", hit.Distance)
			}
			if !floatEqual(hit.Time, 0.04, 1e-6) {
				t.Errorf("Time = %v, want 0.04", hit.Time)
			}
			if hit.TraceStart != (mgl64.Vec3{}) || !vec3Equal(hit.TraceEnd, mgl64.Vec3{100, 0, 0}, 1e-9) {
				t.Errorf("trace = %v..%v, want the full ray", hit.TraceStart, hit.TraceEnd)
			}
		})
	}
}

func TestRaycast_EqualDistanceKeepsFirst(t *testing.T) {
	items := []item{
		{id: 1, position: mgl64.Vec3{5, 0, 0}, shape: shape.NewSphere(1)},
		{id: 2, position: mgl64.Vec3{5, 0, 0}, shape: shape.NewSphere(1)},
	}
	tree := newTree()
	tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	id, _, ok := tree.Raycast(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 100, nil)
	if !ok || id != 1 {
		t.Errorf("id = %d (hit %v), want 1", id, ok)
	}
}

func TestRaycast_Grid(t *testing.T) {
	const n = 6
	tree := newTree()
	tree.Build(gridItems(n, 0.1), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	tests := []struct {
		name     string
		start    mgl64.Vec3
		dir      mgl64.Vec3
		wantID   int
		wantDist float64
	}{
		{"along +x", mgl64.Vec3{-5, 2, 3}, mgl64.Vec3{1, 0, 0}, gridID(n, 0, 2, 3), 4.9},
		{"along -x", mgl64.Vec3{10, 2, 3}, mgl64.Vec3{-1, 0, 0}, gridID(n, 5, 2, 3), 4.9},
		{"along -z", mgl64.Vec3{4, 1, 20}, mgl64.Vec3{0, 0, -1}, gridID(n, 4, 1, 5), 14.9},
		{"unnormalized", mgl64.Vec3{3, -4, 0}, mgl64.Vec3{0, 7, 0}, gridID(n, 3, 0, 0), 3.9},
		{"from inside", mgl64.Vec3{2.5, 2, 2}, mgl64.Vec3{1, 0, 0}, gridID(n, 3, 2, 2), 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, hit, ok := tree.Raycast(tt.start, tt.dir, 50, nil)
			if !ok {
				t.Fatal("expected a hit")
			}
			if id != tt.wantID {
				t.Errorf("id = %d, want %d", id, tt.wantID)
			}
			if !floatEqual(hit.Distance, tt.wantDist, 1e-6) {
				t.Errorf("Distance = %v, want %v", hit.Distance, tt.wantDist)
			}
		})
	}
}

func TestRaycast_Misses(t *testing.T) {
	tree := newTree()
	tree.Build(gridItems(3, 0.1), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	t.Run("between lattice rows", func(t *testing.T) {
		if _, _, ok := tree.Raycast(mgl64.Vec3{-5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 50, nil); ok {
			t.Error("expected a miss")
		}
	})

	t.Run("too short", func(t *testing.T) {
		if _, _, ok := tree.Raycast(mgl64.Vec3{-5, 1, 1}, mgl64.Vec3{1, 0, 0}, 4, nil); ok {
			t.Error("expected a miss")
		}
	})

	t.Run("zero direction", func(t *testing.T) {
		_, hit, ok := tree.Raycast(mgl64.Vec3{-5, 1, 1}, mgl64.Vec3{}, 50, nil)
		if ok || hit.BlockingHit {
			t.Error("expected a zero direction to be rejected")
		}
	})
}

func TestRaycast_UnboundedLength(t *testing.T) {
	items := []item{{id: 4, position: mgl64.Vec3{0, 1e6, 0}, shape: shape.NewBox(mgl64.Vec3{1, 1, 1})}}
	tree := newTree()
	tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	for _, length := range []float64{0, -1} {
		id, hit, ok := tree.Raycast(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, length, nil)
		if !ok || id != 4 {
			t.Fatalf("length %v: expected to hit id 4", length)
		}
		if !floatEqual(hit.Distance, 1e6-1, 1e-3) {
			t.Errorf("length %v: Distance = %v", length, hit.Distance)
		}
	}
}

func TestRaycast_Filters(t *testing.T) {
	items := []item{
		{id: 1, position: mgl64.Vec3{3, 0, 0}, shape: shape.NewSphere(0.5)},
		{id: 2, position: mgl64.Vec3{6, 0, 0}, shape: shape.NewSphere(0.5), disabled: true},
		{id: 3, position: mgl64.Vec3{9, 0, 0}, shape: shape.NewSphere(0.5)},
	}
	tree := newTree()
	tree.Build(items, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	skipFirst := func(i item) bool { return i.id != 1 }
	id, hit, ok := tree.Raycast(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 20, skipFirst)
	if !ok || id != 3 {
		t.Fatalf("id = %d (hit %v), want 3: validator and IsValid must both filter", id, ok)
	}
	if !floatEqual(hit.Distance, 8.5, 1e-6) {
		t.Errorf("Distance = %v, want 8.5", hit.Distance)
	}
}

func TestRaycast_DefaultShapeFromBounds(t *testing.T) {
	type marker struct {
		name   string
		center mgl64.Vec3
	}
	tree := New(Semantics[marker, string]{
		BoundingBox: func(m marker) shape.AABB { return shape.NewAABB(m.center, mgl64.Vec3{0.25, 0.5, 0.25}) },
		Position:    func(m marker) mgl64.Vec3 { return m.center },
		ID:          func(m marker) string { return m.name },
	}, discardLogger())
	tree.Build([]marker{{name: "crate", center: mgl64.Vec3{3, 0, 0}}}, DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	// sphere of radius 0.5, the largest half extent
	id, hit, ok := tree.Raycast(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 10, nil)
	if !ok || id != "crate" {
		t.Fatalf("id = %q (hit %v), want crate", id, ok)
	}
	if !floatEqual(hit.Distance, 2.5, 1e-6) {
		t.Errorf("Distance = %v, want 2.5", hit.Distance)
	}
}

func TestRaycast_Concurrent(t *testing.T) {
	const n = 5
	tree := newTree()
	tree.Build(gridItems(n, 0.1), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	var wg sync.WaitGroup
	errs := make(chan int, n*n)
	for y := 0; y < n; y++ {
		for z := 0; z < n; z++ {
			wg.Add(1)
			go func(y, z int) {
				defer wg.Done()
				id, _, ok := tree.Raycast(mgl64.Vec3{-3, float64(y), float64(z)}, mgl64.Vec3{1, 0, 0}, 0, nil)
				if !ok || id != gridID(n, 0, y, z) {
					errs <- gridID(n, 0, y, z)
				}
			}(y, z)
		}
	}
	wg.Wait()
	close(errs)

	for id := range errs {
		t.Errorf("ray toward id %d missed or hit the wrong element", id)
	}
}

// ========== Query ==========

func TestQuery(t *testing.T) {
	const n = 4
	tree := newTree()
	tree.Build(gridItems(n, 0.1), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	t.Run("box around a sub-lattice", func(t *testing.T) {
		bounds := shape.AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{2.5, 2.5, 2.5}}
		counts := countIDs(tree.Query(bounds, nil))

		if len(counts) != 8 {
			t.Fatalf("Query() returned %d ids, want 8", len(counts))
		}
		for x := 1; x <= 2; x++ {
			for y := 1; y <= 2; y++ {
				for z := 1; z <= 2; z++ {
					if counts[gridID(n, x, y, z)] != 1 {
						t.Errorf("element (%d,%d,%d) returned %d times", x, y, z, counts[gridID(n, x, y, z)])
					}
				}
			}
		}
	})

	t.Run("validator", func(t *testing.T) {
		onlyOrigin := func(i item) bool { return i.id == 0 }
		ids := tree.Query(tree.Bounds(), onlyOrigin)
		if len(ids) != 1 || ids[0] != 0 {
			t.Errorf("Query() = %v, want [0]", ids)
		}
	})

	t.Run("outside", func(t *testing.T) {
		ids := tree.Query(shape.NewAABB(mgl64.Vec3{20, 20, 20}, mgl64.Vec3{1, 1, 1}), nil)
		if len(ids) != 0 {
			t.Errorf("Query() = %v, want nothing", ids)
		}
	})

	t.Run("invalid bounds", func(t *testing.T) {
		if ids := tree.Query(shape.EmptyAABB(), nil); ids != nil {
			t.Errorf("Query() = %v, want nil", ids)
		}
		inverted := shape.AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{0, 0, 0}}
		if ids := tree.Query(inverted, nil); ids != nil {
			t.Errorf("Query() = %v, want nil", ids)
		}
	})
}

func TestQueryShape(t *testing.T) {
	const n = 5
	tree := newTree()
	tree.Build(gridItems(n, 0.1), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	center := shape.At(mgl64.Vec3{2, 2, 2}, mgl64.QuatIdent())

	t.Run("small sphere", func(t *testing.T) {
		ids := tree.QueryShape(shape.NewSphere(0.5), center, nil)
		if len(ids) != 1 || ids[0] != gridID(n, 2, 2, 2) {
			t.Errorf("QueryShape() = %v, want only the center", ids)
		}
	})

	t.Run("sphere reaching the face neighbours", func(t *testing.T) {
		counts := countIDs(tree.QueryShape(shape.NewSphere(1.05), center, nil))
		want := []int{
			gridID(n, 2, 2, 2),
			gridID(n, 1, 2, 2), gridID(n, 3, 2, 2),
			gridID(n, 2, 1, 2), gridID(n, 2, 3, 2),
			gridID(n, 2, 2, 1), gridID(n, 2, 2, 3),
		}
		if len(counts) != len(want) {
			t.Fatalf("QueryShape() returned %d ids, want %d", len(counts), len(want))
		}
		for _, id := range want {
			if counts[id] != 1 {
				t.Errorf("id %d returned %d times", id, counts[id])
			}
		}
	})

	t.Run("rotated box", func(t *testing.T) {
		// a thin slab along x rotated to lie along y
		slab := shape.NewBox(mgl64.Vec3{3, 0.3, 0.3})
		tr := shape.At(mgl64.Vec3{2, 2, 2}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))

		counts := countIDs(tree.QueryShape(slab, tr, nil))
		if len(counts) != n {
			t.Fatalf("QueryShape() returned %d ids, want %d", len(counts), n)
		}
		for y := 0; y < n; y++ {
			if counts[gridID(n, 2, y, 2)] != 1 {
				t.Errorf("element (2,%d,2) missing", y)
			}
		}
	})

	t.Run("invalid query shape", func(t *testing.T) {
		nan := math.NaN()
		if ids := tree.QueryShape(shape.NewSphere(1), shape.At(mgl64.Vec3{nan, 0, 0}, mgl64.QuatIdent()), nil); ids != nil {
			t.Errorf("QueryShape() = %v, want nil", ids)
		}
	})
}

// ========== Benchmarks ==========

func BenchmarkRaycast(b *testing.B) {
	tree := newTree()
	tree.Build(gridItems(10, 0.2), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Raycast(mgl64.Vec3{-5, 4.1, 6}, mgl64.Vec3{1, 0, 0}, 0, nil)
	}
}

func BenchmarkQueryShape(b *testing.B) {
	tree := newTree()
	tree.Build(gridItems(10, 0.2), DefaultLooseness, DefaultMaxDepth, DefaultMinElementsPerNode)
	query := shape.NewSphere(1.5)
	tr := shape.At(mgl64.Vec3{5, 5, 5}, mgl64.QuatIdent())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.QueryShape(query, tr, nil)
	}
}
