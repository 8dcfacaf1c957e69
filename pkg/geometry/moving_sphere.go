package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// MovingSphere is a sphere whose center travels linearly from Center0 at
// Time0 to Center1 at Time1. Rays outside that interval extrapolate.
type MovingSphere struct {
	Center0  core.Point
	Center1  core.Point
	Time0    float64
	Time1    float64
	Radius   float64
	Material material.Material
}

// NewMovingSphere creates a new moving sphere
func NewMovingSphere(center0, center1 core.Point, time0, time1, radius float64, mat material.Material) *MovingSphere {
	return &MovingSphere{
		Center0:  center0,
		Center1:  center1,
		Time0:    time0,
		Time1:    time1,
		Radius:   radius,
		Material: mat,
	}
}

// CenterAt returns the sphere center at the given time
func (s *MovingSphere) CenterAt(time float64) core.Point {
	if s.Time1 == s.Time0 {
		return s.Center0
	}
	f := (time - s.Time0) / (s.Time1 - s.Time0)
	return s.Center0.Lerp(s.Center1, f)
}

// Hit intersects the ray with the sphere at the ray's time
func (s *MovingSphere) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return hitSphere(s.CenterAt(ray.Time), s.Radius, s.Material, ray, tMin, tMax)
}

// BoundingBox covers the whole sweep between timeStart and timeEnd
func (s *MovingSphere) BoundingBox(timeStart, timeEnd float64) (core.AABB, bool) {
	start := sphereBox(s.CenterAt(timeStart), s.Radius)
	end := sphereBox(s.CenterAt(timeEnd), s.Radius)
	return start.Union(end), true
}
