package renderer

import (
	"context"
	"image"
	"time"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	InitialSamples int // Samples for first pass (1 recommended)
	MaxPasses      int // Maximum number of passes
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		InitialSamples: 1,
		MaxPasses:      7,
	}
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber  int
	Framebuffer Framebuffer
	Image       *image.RGBA
	Stats       RenderStats
	IsLast      bool
}

// ProgressiveRaytracer refines an image over several passes, publishing
// the running average after each one. The total sample budget is the
// raytracer's SamplesPerPixel.
type ProgressiveRaytracer struct {
	raytracer  *Raytracer
	config     ProgressiveConfig
	tiles      []*Tile
	pixelStats [][]PixelStats
}

// NewProgressiveRaytracer wraps raytracer for progressive rendering
func NewProgressiveRaytracer(raytracer *Raytracer, config ProgressiveConfig) *ProgressiveRaytracer {
	if config.MaxPasses <= 0 {
		config.MaxPasses = 1
	}
	if config.InitialSamples <= 0 {
		config.InitialSamples = 1
	}
	return &ProgressiveRaytracer{
		raytracer: raytracer,
		config:    config,
	}
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	maxSamples := pr.raytracer.config.SamplesPerPixel

	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return maxSamples
	}

	// First pass is a quick preview
	if passNumber == 1 {
		return min(pr.config.InitialSamples, maxSamples)
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := maxSamples - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber == pr.config.MaxPasses {
		targetSamples = maxSamples
	}

	return min(targetSamples, maxSamples)
}

// RenderPass renders one pass, topping every pixel up to the pass target
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int) (Framebuffer, RenderStats, error) {
	rt := pr.raytracer
	if pr.pixelStats == nil {
		if err := rt.validate(); err != nil {
			return nil, RenderStats{}, err
		}
		pr.pixelStats = newPixelStats(rt.width, rt.height)
		pr.tiles = NewTileGrid(rt.width, rt.height, rt.tileSize, rt.seed)
	}

	targetSamples := pr.getSamplesForPass(passNumber)
	rt.logger.Printf("Pass %d: Target %d samples per pixel...\n", passNumber, targetSamples)

	start := time.Now()
	if err := rt.renderTiles(ctx, pr.tiles, pr.pixelStats, targetSamples); err != nil {
		return nil, RenderStats{}, err
	}

	fb, stats := collectStats(pr.pixelStats, targetSamples)
	stats.Elapsed = time.Since(start)
	return fb, stats, nil
}

// RenderProgressive renders passes in a goroutine and streams each result.
// Both channels are closed when rendering stops; cancelling ctx stops
// rendering between tiles and reports ctx.Err() on the error channel.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		logger := pr.raytracer.logger
		logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			if err := ctx.Err(); err != nil {
				logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- err
				return
			}

			fb, stats, err := pr.RenderPass(ctx, pass)
			if err != nil {
				errChan <- err
				return
			}

			img := ToImage(fb)
			logger.Printf("Pass %d completed in %v (%.0f samples/pixel, luminance %.3f)\n",
				pass, stats.Elapsed, stats.AverageSamples, CalculateAverageLuminance(img))

			isLast := pass == pr.config.MaxPasses || stats.MinSamples >= pr.raytracer.config.SamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Framebuffer: fb, Image: img, Stats: stats, IsLast: isLast}:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if isLast {
				return
			}
		}
	}()

	return passChan, errChan
}
