package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// createTestWorld creates a diffuse sphere at (0,0,-1) over a large ground sphere
func createTestWorld(t *testing.T) geometry.Shape {
	t.Helper()
	shapes := []geometry.Shape{
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3))),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))),
	}
	bvh, err := geometry.NewBVH(shapes, 0, 1, core.NewRandomSampler(rand.New(rand.NewSource(42))))
	if err != nil {
		t.Fatalf("NewBVH failed: %v", err)
	}
	return bvh
}

// TestPathTracingDepthTermination tests that ray depth is properly limited
func TestPathTracingDepthTermination(t *testing.T) {
	world := createTestWorld(t)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	integrator := NewPathTracingIntegrator(nil)

	// Pointing at the sphere and pointing at the sky
	rays := []core.Ray{
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)),
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)),
	}

	for _, ray := range rays {
		for _, depth := range []int{0, -1} {
			if c := integrator.RayColor(ray, world, depth, sampler); c != (core.Vec3{}) {
				t.Errorf("Expected black color for depth %d, got %v", depth, c)
			}
		}
	}

	c := integrator.RayColor(rays[0], world, 10, sampler)
	if c == (core.Vec3{}) {
		t.Error("Expected non-black color for positive depth")
	}
}

func TestPathTracingBackgroundGradient(t *testing.T) {
	world := createTestWorld(t)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	integrator := NewPathTracingIntegrator(nil)

	tests := []struct {
		name     string
		dir      core.Vec3
		expected core.Color
	}{
		{"straight up", core.NewVec3(0, 1, 0), core.NewVec3(0.5, 0.7, 1.0)},
		{"horizon", core.NewVec3(0, 0, 1), core.NewVec3(0.75, 0.85, 1.0)},
		{"unnormalized up", core.NewVec3(0, 7, 0), core.NewVec3(0.5, 0.7, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Origin well above the ground so the ray escapes
			ray := core.NewRay(core.NewVec3(0, 5, 0), tt.dir)
			c := integrator.RayColor(ray, world, 5, sampler)
			if !c.ApproxEquals(tt.expected, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.expected, c)
			}
		})
	}
}

func TestPathTracingAbsorption(t *testing.T) {
	// A perfect mirror facing away never receives light from a black sky
	mirror := geometry.NewSphere(core.NewVec3(0, 0, -2), 1, material.NewMetal(core.NewVec3(1, 1, 1), 0))
	integrator := NewPathTracingIntegrator(SolidBackground{})
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	c := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), mirror, 50, sampler)
	if c != (core.Vec3{}) {
		t.Errorf("Expected black under black sky, got %v", c)
	}
}

func TestPathTracingEnergyBounds(t *testing.T) {
	world := createTestWorld(t)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	integrator := NewPathTracingIntegrator(nil)

	// Attenuations never exceed one, so no path is brighter than the brightest sky
	for i := 0; i < 500; i++ {
		dir := core.RandomUnitVector(sampler)
		c := integrator.RayColor(core.NewRay(core.NewVec3(0, 0.2, 0.5), dir), world, 20, sampler)
		if c.X < 0 || c.Y < 0 || c.Z < 0 {
			t.Fatalf("Negative color %v", c)
		}
		if c.X > 1 || c.Y > 1 || c.Z > 1 {
			t.Fatalf("Color %v exceeds the background", c)
		}
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
			t.Fatalf("NaN color")
		}
	}
}

func TestPathTracingSingleBounceAttenuation(t *testing.T) {
	// With depth 2 and a white sky, a diffuse hit returns albedo unless the bounce hits again
	albedo := core.NewVec3(0.5, 0.25, 0.125)
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -2), 0.5, material.NewLambertian(albedo))
	integrator := NewPathTracingIntegrator(SolidBackground{Value: core.NewVec3(1, 1, 1)})
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	c := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), sphere, 2, sampler)
	if !c.ApproxEquals(albedo, 1e-12) {
		t.Errorf("Expected %v, got %v", albedo, c)
	}
}

func TestGradientBackground(t *testing.T) {
	bg := NewGradientBackground(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
	down := bg.Color(core.NewRay(core.Vec3{}, core.NewVec3(0, -1, 0)))
	if !down.ApproxEquals(core.NewVec3(0, 0, 0), 1e-12) {
		t.Errorf("Expected bottom color looking down, got %v", down)
	}
	up := bg.Color(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)))
	if !up.ApproxEquals(core.NewVec3(1, 1, 1), 1e-12) {
		t.Errorf("Expected top color looking up, got %v", up)
	}
}
