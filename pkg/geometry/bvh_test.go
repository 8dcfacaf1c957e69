package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// mockShape for testing
type mockShape struct {
	box     core.AABB
	bounded bool
	hitFn   func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}

func (m mockShape) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return m.hitFn(ray, tMin, tMax)
}

func (m mockShape) BoundingBox(timeStart, timeEnd float64) (core.AABB, bool) {
	return m.box, m.bounded
}

// fixedHit returns a shape that reports a hit at tValue whenever allowed
func fixedHit(box core.AABB, tValue float64) mockShape {
	return mockShape{
		box:     box,
		bounded: true,
		hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
			if tValue >= tMin && tValue <= tMax {
				return &material.HitRecord{T: tValue}, true
			}
			return nil, false
		},
	}
}

func newTestSampler(seed int64) core.Sampler {
	return core.NewRandomSampler(rand.New(rand.NewSource(seed)))
}

func TestBVH_Errors(t *testing.T) {
	_, err := NewBVH(nil, 0, 1, newTestSampler(42))
	if !errors.Is(err, ErrEmptyScene) {
		t.Errorf("Expected ErrEmptyScene, got %v", err)
	}

	shapes := []Shape{
		NewSphere(core.NewVec3(0, 0, 0), 1, nil),
		mockShape{bounded: false},
	}
	_, err = NewBVH(shapes, 0, 1, newTestSampler(42))
	if !errors.Is(err, ErrUnboundedShape) {
		t.Errorf("Expected ErrUnboundedShape, got %v", err)
	}

	// An empty list nested inside is also unbounded
	_, err = NewBVH([]Shape{NewShapeList()}, 0, 1, newTestSampler(42))
	if !errors.Is(err, ErrUnboundedShape) {
		t.Errorf("Expected ErrUnboundedShape for empty list, got %v", err)
	}
}

func TestBVH_SingleShape(t *testing.T) {
	box := core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
	bvh, err := NewBVH([]Shape{fixedHit(box, 1.0)}, 0, 1, newTestSampler(42))
	if err != nil {
		t.Fatalf("NewBVH failed: %v", err)
	}

	stats := bvh.Stats()
	if stats.TotalNodes != 1 || stats.LeafNodes != 1 {
		t.Errorf("Expected a single leaf, got %+v", stats)
	}

	ray := core.NewRay(core.NewVec3(0.5, 0.5, -1), core.NewVec3(0, 0, 1))
	hit, ok := bvh.Hit(ray, 0.001, 100)
	if !ok || hit.T != 1.0 {
		t.Errorf("Expected hit at t=1, got %v %v", hit, ok)
	}
}

func TestBVH_StructureAndBoxes(t *testing.T) {
	sampler := newTestSampler(42)
	shapes := make([]Shape, 100)
	for i := range shapes {
		center := core.SignedUnitInterval.SampleVec3(sampler).Multiply(20)
		shapes[i] = NewSphere(center, 0.2+sampler.Get1D(), nil)
	}

	bvh, err := NewBVH(shapes, 0, 1, newTestSampler(7))
	if err != nil {
		t.Fatalf("NewBVH failed: %v", err)
	}

	stats := bvh.Stats()
	if stats.LeafNodes != len(shapes) || stats.TotalShapes != len(shapes) {
		t.Errorf("Expected one leaf per shape, got %+v", stats)
	}
	if stats.TotalNodes != 2*len(shapes)-1 {
		t.Errorf("Expected %d nodes, got %d", 2*len(shapes)-1, stats.TotalNodes)
	}
	// Median splits keep the tree balanced: ceil(log2(100)) = 7
	if stats.MaxDepth != 7 {
		t.Errorf("Expected max depth 7, got %d", stats.MaxDepth)
	}

	var check func(node *BVHNode)
	check = func(node *BVHNode) {
		if node.IsLeaf() {
			box, _ := node.Shape.BoundingBox(0, 1)
			if box != node.BoundingBox {
				t.Errorf("Leaf box %v differs from shape box %v", node.BoundingBox, box)
			}
			return
		}
		for _, child := range []*BVHNode{node.Left, node.Right} {
			for _, corner := range child.BoundingBox.Corners() {
				if !node.BoundingBox.Contains(corner) {
					t.Errorf("Branch box %v does not enclose child corner %v", node.BoundingBox, corner)
				}
			}
			check(child)
		}
	}
	check(bvh.Root)
}

func TestBVH_MatchesLinearScan(t *testing.T) {
	sampler := newTestSampler(42)
	list := NewShapeList()
	for i := 0; i < 200; i++ {
		center := core.SignedUnitInterval.SampleVec3(sampler).Multiply(10)
		if i%4 == 0 {
			end := center.Add(core.NewVec3(0, sampler.Get1D(), 0))
			list.Add(NewMovingSphere(center, end, 0, 1, 0.1+0.5*sampler.Get1D(), nil))
		} else {
			list.Add(NewSphere(center, 0.1+0.5*sampler.Get1D(), nil))
		}
	}

	bvh, err := NewBVH(list.Shapes, 0, 1, newTestSampler(99))
	if err != nil {
		t.Fatalf("NewBVH failed: %v", err)
	}

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.SignedUnitInterval.SampleVec3(sampler).Multiply(15)
		dir := core.RandomUnitVector(sampler)
		ray := core.NewRayAt(origin, dir, sampler.Get1D())

		listHit, listOK := list.Hit(ray, 0.001, math.Inf(1))
		bvhHit, bvhOK := bvh.Hit(ray, 0.001, math.Inf(1))

		if listOK != bvhOK {
			t.Fatalf("Ray %d: linear scan hit=%v, BVH hit=%v", i, listOK, bvhOK)
		}
		if !listOK {
			continue
		}
		hits++
		if listHit.T != bvhHit.T || !listHit.Point.Equals(bvhHit.Point) {
			t.Errorf("Ray %d: linear scan t=%f, BVH t=%f", i, listHit.T, bvhHit.T)
		}
	}
	if hits == 0 {
		t.Fatal("Test setup error: no ray hit anything")
	}
}

func TestBVH_RightChildTightened(t *testing.T) {
	// Overlapping boxes: both children hit, nearer one must win either way round
	box := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))

	for seed := int64(0); seed < 20; seed++ {
		bvh, err := NewBVH([]Shape{fixedHit(box, 5.0), fixedHit(box, 4.0), fixedHit(box, 6.0)}, 0, 1, newTestSampler(seed))
		if err != nil {
			t.Fatalf("NewBVH failed: %v", err)
		}
		hit, ok := bvh.Hit(ray, 0.001, 100)
		if !ok || hit.T != 4.0 {
			t.Errorf("Seed %d: expected closest hit t=4, got %v %v", seed, hit, ok)
		}
	}
}

func TestBVH_PrunesMissedBoxes(t *testing.T) {
	called := false
	shape := mockShape{
		box:     core.NewAABB(core.NewVec3(10, 10, 10), core.NewVec3(11, 11, 11)),
		bounded: true,
		hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
			called = true
			return nil, false
		},
	}
	bvh, err := NewBVH([]Shape{shape}, 0, 1, newTestSampler(42))
	if err != nil {
		t.Fatalf("NewBVH failed: %v", err)
	}

	if _, ok := bvh.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)), 0.001, 100); ok {
		t.Error("Expected miss")
	}
	if called {
		t.Error("Shape should not be tested when its box is missed")
	}
}

func TestBVH_Deterministic(t *testing.T) {
	build := func() *BVH {
		sampler := newTestSampler(1)
		shapes := make([]Shape, 50)
		for i := range shapes {
			shapes[i] = NewSphere(core.SignedUnitInterval.SampleVec3(sampler).Multiply(5), 0.3, nil)
		}
		bvh, err := NewBVH(shapes, 0, 1, newTestSampler(2))
		if err != nil {
			t.Fatalf("NewBVH failed: %v", err)
		}
		return bvh
	}

	a, b := build(), build()
	var same func(x, y *BVHNode) bool
	same = func(x, y *BVHNode) bool {
		if x.BoundingBox != y.BoundingBox || x.IsLeaf() != y.IsLeaf() {
			return false
		}
		if x.IsLeaf() {
			return true
		}
		return same(x.Left, y.Left) && same(x.Right, y.Right)
	}
	if !same(a.Root, b.Root) {
		t.Error("Same seed produced different trees")
	}
}

func TestShapeList_ClosestHitAndBox(t *testing.T) {
	near := NewSphere(core.NewVec3(0, 0, -2), 0.5, nil)
	far := NewSphere(core.NewVec3(0, 0, -5), 0.5, nil)
	list := NewShapeList(far, near)

	hit, ok := list.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, 100)
	if !ok {
		t.Fatal("Expected hit")
	}
	if math.Abs(hit.T-1.5) > 1e-9 {
		t.Errorf("Expected nearest hit at t=1.5, got %f", hit.T)
	}

	box, ok := list.BoundingBox(0, 1)
	if !ok {
		t.Fatal("Expected bounded list")
	}
	if !box.Min.Equals(core.NewVec3(-0.5, -0.5, -5.5)) || !box.Max.Equals(core.NewVec3(0.5, 0.5, -1.5)) {
		t.Errorf("Unexpected list box %v", box)
	}

	list.Add(mockShape{bounded: false})
	if _, ok := list.BoundingBox(0, 1); ok {
		t.Error("List with an unbounded member should be unbounded")
	}
	if _, ok := NewShapeList().BoundingBox(0, 1); ok {
		t.Error("Empty list should be unbounded")
	}
}
