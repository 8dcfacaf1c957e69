package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	Camera         *renderer.Camera
	CameraConfig   renderer.CameraConfig
	Shapes         []geometry.Shape // Objects in the scene
	SamplingConfig renderer.SamplingConfig
	Width          int                   // Image width
	Height         int                   // Image height
	Background     integrator.Background // Color for rays that escape
	BVH            *geometry.BVH         // Acceleration structure, set by Preprocess
}

// imageHeight derives a height from width and aspect ratio, never below 1
func imageHeight(width int, aspectRatio float64) int {
	height := int(math.Round(float64(width) / aspectRatio))
	if height < 1 {
		height = 1
	}
	return height
}

// AddSphere adds a static sphere to the scene
func (s *Scene) AddSphere(sphere *geometry.Sphere) {
	s.Shapes = append(s.Shapes, sphere)
}

// Add appends arbitrary shapes to the scene
func (s *Scene) Add(shapes ...geometry.Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

// Preprocess prepares the scene for rendering: it builds the camera if
// needed and a BVH over the shapes for the camera's shutter interval.
// Split axes come from seed so the hierarchy is reproducible.
func (s *Scene) Preprocess(seed int64) error {
	if s.Camera == nil {
		s.Camera = renderer.NewCamera(s.CameraConfig)
	}

	bvh, err := geometry.NewBVH(s.Shapes, s.CameraConfig.TimeStart, s.CameraConfig.TimeEnd, core.NewSeededSampler(seed))
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	s.BVH = bvh
	return nil
}

// World returns the shape the integrator traces against: the BVH once
// preprocessed, otherwise a linear list
func (s *Scene) World() geometry.Shape {
	if s.BVH != nil {
		return s.BVH
	}
	return geometry.NewShapeList(s.Shapes...)
}

// NewRaytracer binds the scene's world, camera and background to a raytracer
func (s *Scene) NewRaytracer() *renderer.Raytracer {
	if s.Camera == nil {
		s.Camera = renderer.NewCamera(s.CameraConfig)
	}
	rt := renderer.NewRaytracer(s.World(), s.Camera, s.Width, s.Height, s.SamplingConfig)
	rt.SetIntegrator(integrator.NewPathTracingIntegrator(s.Background))
	return rt
}

// SetImageSize overrides the output size. A zero height keeps the camera's
// aspect ratio; otherwise the camera is rebuilt with the new aspect.
func (s *Scene) SetImageSize(width, height int) {
	if width <= 0 {
		return
	}
	s.Width = width
	if height <= 0 {
		s.Height = imageHeight(width, s.CameraConfig.AspectRatio)
		return
	}
	s.Height = height
	s.CameraConfig.AspectRatio = float64(width) / float64(height)
	s.Camera = renderer.NewCamera(s.CameraConfig)
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for _, shape := range s.Shapes {
		count += countPrimitivesInShape(shape)
	}
	return count
}

// countPrimitivesInShape counts primitives in a single shape, descending into lists
func countPrimitivesInShape(shape geometry.Shape) int {
	switch obj := shape.(type) {
	case *geometry.ShapeList:
		count := 0
		for _, member := range obj.Shapes {
			count += countPrimitivesInShape(member)
		}
		return count
	case *geometry.BVH:
		return obj.Stats().TotalShapes
	default:
		return 1
	}
}
