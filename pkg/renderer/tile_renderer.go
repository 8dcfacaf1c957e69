package renderer

import (
	"image"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
)

// TileRenderer samples the pixels of a tile through an integrator.
// It holds only read-only scene data and is shared by all workers.
type TileRenderer struct {
	world      geometry.Shape
	camera     *Camera
	integrator integrator.Integrator
	width      int
	height     int
	maxDepth   int
}

// NewTileRenderer creates a tile renderer for a width x height image
func NewTileRenderer(world geometry.Shape, camera *Camera, integratorInst integrator.Integrator, width, height, maxDepth int) *TileRenderer {
	return &TileRenderer{
		world:      world,
		camera:     camera,
		integrator: integratorInst,
		width:      width,
		height:     height,
		maxDepth:   maxDepth,
	}
}

// RenderTileBounds tops up every pixel within bounds to targetSamples
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  targetSamples,
		MinSamples:  targetSamples,
	}

	for row := bounds.Min.Y; row < bounds.Max.Y; row++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			samplesUsed := tr.samplePixel(x, row, &pixelStats[row][x], sampler, targetSamples)

			stats.TotalSamples += samplesUsed
			stats.MinSamples = min(stats.MinSamples, samplesUsed)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}

// samplePixel traces jittered camera rays through pixel (x, row) until it
// holds targetSamples samples, returning how many were added
func (tr *TileRenderer) samplePixel(x, row int, ps *PixelStats, sampler core.Sampler, targetSamples int) int {
	initialSampleCount := ps.SampleCount

	// Image y grows upwards while rows grow downwards
	y := tr.height - 1 - row
	sDenom := float64(max(tr.width-1, 1))
	tDenom := float64(max(tr.height-1, 1))

	for ps.SampleCount < targetSamples {
		s := (float64(x) + sampler.Get1D()) / sDenom
		t := (float64(y) + sampler.Get1D()) / tDenom

		ray := tr.camera.GetRay(s, t, sampler)
		ps.AddSample(tr.integrator.RayColor(ray, tr.world, tr.maxDepth, sampler))
	}

	return ps.SampleCount - initialSampleCount
}
