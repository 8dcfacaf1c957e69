package geometry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

var (
	// ErrEmptyScene is returned when a BVH is built from no shapes
	ErrEmptyScene = errors.New("no shapes to build a BVH from")
	// ErrUnboundedShape is returned when a shape cannot report a bounding box
	ErrUnboundedShape = errors.New("shape has no bounding box")
)

// BVHNode is either a leaf holding one shape or a branch with two children.
// Branch boxes enclose both children.
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Shape       Shape // Set for leaf nodes only
}

// IsLeaf reports whether the node wraps a single shape
func (n *BVHNode) IsLeaf() bool {
	return n.Shape != nil
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection.
// It is immutable once built and shared read-only by all render workers.
type BVH struct {
	Root      *BVHNode
	TimeStart float64
	TimeEnd   float64
}

// boxedShape caches a shape's box over the build interval
type boxedShape struct {
	shape Shape
	box   core.AABB
}

// NewBVH builds a hierarchy over shapes using boxes that cover
// [timeStart, timeEnd]. Split axes are drawn from sampler.
func NewBVH(shapes []Shape, timeStart, timeEnd float64, sampler core.Sampler) (*BVH, error) {
	if len(shapes) == 0 {
		return nil, ErrEmptyScene
	}

	// Work on a copy so the caller's slice order is untouched
	boxed := make([]boxedShape, len(shapes))
	for i, shape := range shapes {
		box, ok := shape.BoundingBox(timeStart, timeEnd)
		if !ok {
			return nil, fmt.Errorf("shape %d (%T): %w", i, shape, ErrUnboundedShape)
		}
		boxed[i] = boxedShape{shape: shape, box: box}
	}

	return &BVH{
		Root:      buildBVH(boxed, sampler),
		TimeStart: timeStart,
		TimeEnd:   timeEnd,
	}, nil
}

// buildBVH recursively splits shapes at the median along a random axis
func buildBVH(shapes []boxedShape, sampler core.Sampler) *BVHNode {
	if len(shapes) == 1 {
		return &BVHNode{BoundingBox: shapes[0].box, Shape: shapes[0].shape}
	}

	axis := core.RandomAxis(sampler)
	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].box.Min.Axis(axis) < shapes[j].box.Min.Axis(axis)
	})

	mid := len(shapes) / 2
	left := buildBVH(shapes[:mid], sampler)
	right := buildBVH(shapes[mid:], sampler)

	return &BVHNode{
		BoundingBox: left.BoundingBox.Union(right.BoundingBox),
		Left:        left,
		Right:       right,
	}
}

// Hit tests if a ray intersects any shape in the BVH
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	return hitNode(bvh.Root, ray, tMin, tMax)
}

// hitNode searches the left child first, then the right child with tMax
// tightened to any left hit, so a right hit is always the nearer one
func hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return nil, false
	}

	if node.IsLeaf() {
		return node.Shape.Hit(ray, tMin, tMax)
	}

	leftHit, hitLeft := hitNode(node.Left, ray, tMin, tMax)
	if hitLeft {
		tMax = leftHit.T
	}

	if rightHit, hitRight := hitNode(node.Right, ray, tMin, tMax); hitRight {
		return rightHit, true
	}
	return leftHit, hitLeft
}

// BoundingBox implements the Shape interface. The box covers the interval
// the BVH was built for regardless of the requested times.
func (bvh *BVH) BoundingBox(timeStart, timeEnd float64) (core.AABB, bool) {
	if bvh.Root == nil {
		return core.AABB{}, false
	}
	return bvh.Root.BoundingBox, true
}

// BVHStats describes the shape of a built hierarchy
type BVHStats struct {
	TotalNodes  int
	LeafNodes   int
	MaxDepth    int
	AvgDepth    float64 // Average leaf depth
	TotalShapes int
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() BVHStats {
	if bvh.Root == nil {
		return BVHStats{}
	}

	stats := BVHStats{}
	collectStats(bvh.Root, 0, &stats)

	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}

	return stats
}

func collectStats(node *BVHNode, depth int, stats *BVHStats) {
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.LeafNodes++
		stats.TotalShapes++
		stats.AvgDepth += float64(depth) // Accumulate depth for average calculation
		return
	}

	collectStats(node.Left, depth+1, stats)
	collectStats(node.Right, depth+1, stats)
}
