package renderer

import (
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	MaxSamples     int           // Target samples per pixel
	MinSamples     int           // Minimum samples taken per pixel
	MaxSamplesUsed int           // Maximum samples actually used by any pixel
	Elapsed        time.Duration // Wall-clock render time
}

// PixelStats accumulates the samples for a single pixel
type PixelStats struct {
	ColorAccum  core.Color // RGB accumulator
	SampleCount int        // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Color) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Color {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Divide(float64(ps.SampleCount))
}

// collectStats builds a framebuffer of averaged colors and the matching statistics
func collectStats(pixelStats [][]PixelStats, targetSamples int) (Framebuffer, RenderStats) {
	height := len(pixelStats)
	fb := make(Framebuffer, height)
	stats := RenderStats{
		MaxSamples: targetSamples,
		MinSamples: targetSamples,
	}

	for row := range pixelStats {
		fb[row] = make([]core.Color, len(pixelStats[row]))
		for x := range pixelStats[row] {
			pixel := &pixelStats[row][x]
			fb[row][x] = pixel.GetColor()

			stats.TotalPixels++
			stats.TotalSamples += pixel.SampleCount
			stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return fb, stats
}
