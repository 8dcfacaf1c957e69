package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor estimates the radiance arriving along ray from world,
	// following at most depth bounces
	RayColor(ray core.Ray, world geometry.Shape, depth int, sampler core.Sampler) core.Color
}

// Background supplies the radiance for rays that escape the scene
type Background interface {
	Color(ray core.Ray) core.Color
}

// GradientBackground blends vertically from Bottom to Top by ray direction
type GradientBackground struct {
	Bottom core.Color
	Top    core.Color
}

// NewGradientBackground creates a new gradient background
func NewGradientBackground(bottom, top core.Color) *GradientBackground {
	return &GradientBackground{Bottom: bottom, Top: top}
}

// NewSkyBackground returns the white-to-light-blue sky
func NewSkyBackground() *GradientBackground {
	return NewGradientBackground(core.NewVec3(1.0, 1.0, 1.0), core.NewVec3(0.5, 0.7, 1.0))
}

// Color returns a gradient color based on ray direction
func (g *GradientBackground) Color(ray core.Ray) core.Color {
	unitDirection := ray.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	return g.Bottom.Lerp(g.Top, t)
}

// SolidBackground returns the same color in every direction
type SolidBackground struct {
	Value core.Color
}

// Color returns the background color
func (s SolidBackground) Color(ray core.Ray) core.Color {
	return s.Value
}
