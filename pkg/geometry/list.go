package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// ShapeList is a flat collection tested by linear scan
type ShapeList struct {
	Shapes []Shape
}

// NewShapeList creates a list over shapes
func NewShapeList(shapes ...Shape) *ShapeList {
	return &ShapeList{Shapes: shapes}
}

// Add appends a shape to the list
func (l *ShapeList) Add(shape Shape) {
	l.Shapes = append(l.Shapes, shape)
}

// Hit returns the closest hit among all shapes
func (l *ShapeList) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestSoFar := tMax

	for _, shape := range l.Shapes {
		if hit, ok := shape.Hit(ray, tMin, closestSoFar); ok {
			closest = hit
			closestSoFar = hit.T
		}
	}

	return closest, closest != nil
}

// BoundingBox returns the union of every member's box. It is unbounded when
// the list is empty or any member is unbounded.
func (l *ShapeList) BoundingBox(timeStart, timeEnd float64) (core.AABB, bool) {
	if len(l.Shapes) == 0 {
		return core.AABB{}, false
	}

	var box core.AABB
	for i, shape := range l.Shapes {
		shapeBox, ok := shape.BoundingBox(timeStart, timeEnd)
		if !ok {
			return core.AABB{}, false
		}
		if i == 0 {
			box = shapeBox
		} else {
			box = box.Union(shapeBox)
		}
	}
	return box, true
}
