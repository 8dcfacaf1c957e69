package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// NewSingleSphereScene creates the smallest useful scene: one white diffuse
// sphere in front of a pinhole camera at the origin, under the sky gradient
func NewSingleSphereScene(sampler core.Sampler) *Scene {
	cameraConfig := renderer.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90, // Viewport two units tall at focal length one
		AspectRatio: 16.0 / 9.0,
	}

	s := &Scene{
		Name:           "single-sphere",
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
		Width:          400,
		Height:         imageHeight(400, cameraConfig.AspectRatio),
		Background:     integrator.NewSkyBackground(),
	}

	white := material.NewLambertian(core.NewVec3(1, 1, 1))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, white))

	return s
}

// NewDefaultScene creates a default scene with spheres, ground, and camera
func NewDefaultScene(sampler core.Sampler) *Scene {
	cameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(3, 3, 2), // Above and to the right of the spheres
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Aperture:      2.0, // Strong depth of field blur
		FocusDistance: 0,   // Focus on the center sphere
	}

	s := &Scene{
		Name:           "default",
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
		Width:          400,
		Height:         imageHeight(400, cameraConfig.AspectRatio),
		Background:     integrator.NewSkyBackground(),
	}

	// Create materials
	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	glass := material.NewDielectric(1.5)
	gold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)

	s.AddSphere(geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, center))

	// Hollow glass sphere: the negative radius flips the inner normals
	s.AddSphere(geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, glass))

	s.AddSphere(geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, gold))

	return s
}
