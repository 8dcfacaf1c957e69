package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// groundChecker is the green and white checker shared by the sphere scenes
func groundChecker() *material.CheckerTexture {
	return material.NewCheckerTextureFromColors(core.NewVec3(0.2, 0.3, 0.1), core.Splat(0.9))
}

// wideShotCamera frames the origin from (13,2,3), used by the showcase scenes
func wideShotCamera(aperture float64) renderer.CameraConfig {
	return renderer.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Aperture:      aperture,
		FocusDistance: 10,
		TimeStart:     0,
		TimeEnd:       1,
	}
}

// NewRandomSpheresScene creates a checker ground covered in a grid of small
// random spheres around three large ones. Diffuse spheres bounce upwards
// during the shutter interval.
func NewRandomSpheresScene(sampler core.Sampler) *Scene {
	cameraConfig := wideShotCamera(0.1)

	s := &Scene{
		Name:           "random-spheres",
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
		Width:          400,
		Height:         imageHeight(400, cameraConfig.AspectRatio),
		Background:     integrator.NewSkyBackground(),
	}

	// Shared materials
	ground := material.NewTexturedLambertian(groundChecker())
	glass := material.NewDielectric(1.5)
	brown := material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))
	bronze := material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)

	s.AddSphere(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, ground))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 1, 0), 1, glass))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-4, 1, 0), 1, brown))
	s.AddSphere(geometry.NewSphere(core.NewVec3(4, 1, 0), 1, bronze))

	bounce := core.Uniform{Min: 0, Max: 0.5}
	offset := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := sampler.Get1D()
			center := core.NewVec3(
				float64(a)+0.9*sampler.Get1D(),
				0.2,
				float64(b)+0.9*sampler.Get1D(),
			)

			// Keep clear of the bronze sphere
			if center.Subtract(offset).Length() <= 0.9 {
				continue
			}

			switch {
			case chooseMat < 0.8:
				albedo := core.RandomColor(sampler, 0, 1).MultiplyVec(core.RandomColor(sampler, 0, 1))
				centerEnd := center.Add(core.NewVec3(0, bounce.Sample(sampler), 0))
				s.Add(geometry.NewMovingSphere(center, centerEnd, 0, 1, 0.2, material.NewLambertian(albedo)))
			case chooseMat < 0.95:
				albedo := core.RandomColor(sampler, 0.5, 1)
				fuzz := bounce.Sample(sampler)
				s.AddSphere(geometry.NewSphere(center, 0.2, material.NewMetal(albedo, fuzz)))
			default:
				s.AddSphere(geometry.NewSphere(center, 0.2, glass))
			}
		}
	}

	return s
}

// NewTwoSpheresScene creates two large checkered spheres touching at the origin
func NewTwoSpheresScene(sampler core.Sampler) *Scene {
	cameraConfig := wideShotCamera(0)

	s := &Scene{
		Name:           "two-spheres",
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
		Width:          400,
		Height:         imageHeight(400, cameraConfig.AspectRatio),
		Background:     integrator.NewSkyBackground(),
	}

	checker := material.NewTexturedLambertian(groundChecker())
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, -10, 0), 10, checker))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 10, 0), 10, checker))

	return s
}

// NewPerlinSpheresScene creates a noise-textured sphere resting on a
// noise-textured ground. The noise table is drawn from sampler.
func NewPerlinSpheresScene(sampler core.Sampler) *Scene {
	cameraConfig := wideShotCamera(0)

	s := &Scene{
		Name:           "perlin-spheres",
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
		Width:          400,
		Height:         imageHeight(400, cameraConfig.AspectRatio),
		Background:     integrator.NewSkyBackground(),
	}

	noise := material.NewTexturedLambertian(material.NewNoiseTexture(material.NewPerlin(sampler), 1))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, noise))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 2, 0), 2, noise))

	return s
}
