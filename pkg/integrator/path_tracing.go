package integrator

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// ShadowEpsilon is the minimum hit distance, which keeps scattered rays
// from re-hitting the surface they leave
const ShadowEpsilon = 0.001

// PathTracingIntegrator implements unidirectional path tracing without
// light sampling: all light comes from the background
type PathTracingIntegrator struct {
	Background Background
}

// NewPathTracingIntegrator creates a new path tracing integrator.
// A nil background uses the default sky.
func NewPathTracingIntegrator(background Background) *PathTracingIntegrator {
	if background == nil {
		background = NewSkyBackground()
	}
	return &PathTracingIntegrator{Background: background}
}

// RayColor computes the color for a single ray using unidirectional path tracing
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Shape, depth int, sampler core.Sampler) core.Color {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := world.Hit(ray, ShadowEpsilon, math.Inf(1))
	if !isHit {
		return pt.Background.Color(ray)
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		return core.Vec3{}
	}

	return scatter.Attenuation.MultiplyVec(pt.RayColor(scatter.Scattered, world, depth-1, sampler))
}
