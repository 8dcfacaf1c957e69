package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Shape interface for objects that can be hit by rays.
// Implementations are immutable after construction and safe for concurrent Hit calls.
type Shape interface {
	// Hit returns the nearest intersection with t in [tMin, tMax]
	Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)

	// BoundingBox returns a box enclosing the shape for every time in
	// [timeStart, timeEnd]. The bool is false for unbounded shapes.
	BoundingBox(timeStart, timeEnd float64) (core.AABB, bool)
}
