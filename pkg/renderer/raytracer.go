package renderer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
)

var (
	// ErrInvalidDimensions is returned for non-positive image sizes
	ErrInvalidDimensions = errors.New("image width and height must be positive")
	// ErrInvalidSampling is returned for a sampling config that cannot produce an image
	ErrInvalidSampling = errors.New("samples per pixel must be positive and max depth non-negative")
	// ErrInsufficientMemory is returned when the framebuffer would not fit in available memory
	ErrInsufficientMemory = errors.New("insufficient memory for framebuffer")
)

// DefaultSeed seeds tile samplers when none is configured
const DefaultSeed int64 = 42

// bytesPerPixel covers the accumulator, the averaged framebuffer and the 8-bit image
const bytesPerPixel = 32 + 24 + 4

// availableMemory reports free system memory
var availableMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// Validate checks that the config can produce an image
func (c SamplingConfig) Validate() error {
	if c.SamplesPerPixel <= 0 || c.MaxDepth < 0 {
		return fmt.Errorf("%w: spp=%d depth=%d", ErrInvalidSampling, c.SamplesPerPixel, c.MaxDepth)
	}
	return nil
}

// Raytracer renders a world through a camera into a framebuffer.
// The world and camera are only read during rendering.
type Raytracer struct {
	world      geometry.Shape
	camera     *Camera
	integrator integrator.Integrator
	width      int
	height     int
	config     SamplingConfig
	numWorkers int
	tileSize   int
	seed       int64
	logger     core.Logger
}

// NewRaytracer creates a new raytracer using path tracing under the default sky
func NewRaytracer(world geometry.Shape, camera *Camera, width, height int, config SamplingConfig) *Raytracer {
	return &Raytracer{
		world:      world,
		camera:     camera,
		integrator: integrator.NewPathTracingIntegrator(nil),
		width:      width,
		height:     height,
		config:     config,
		tileSize:   DefaultTileSize,
		seed:       DefaultSeed,
		logger:     core.NopLogger{},
	}
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integratorInst integrator.Integrator) {
	rt.integrator = integratorInst
}

// SetWorkers sets the worker count; n <= 0 uses one per logical CPU
func (rt *Raytracer) SetWorkers(n int) {
	rt.numWorkers = n
}

// SetSeed sets the base seed for tile samplers
func (rt *Raytracer) SetSeed(seed int64) {
	rt.seed = seed
}

// SetTileSize sets the tile edge length in pixels
func (rt *Raytracer) SetTileSize(size int) {
	if size > 0 {
		rt.tileSize = size
	}
}

// SetLogger sets the logger for render progress
func (rt *Raytracer) SetLogger(logger core.Logger) {
	rt.logger = logger
}

// SamplingConfig returns the sampling configuration
func (rt *Raytracer) SamplingConfig() SamplingConfig {
	return rt.config
}

// Render samples every pixel SamplesPerPixel times and returns the averaged
// linear colors. Output depends only on the seed, not on worker scheduling.
func (rt *Raytracer) Render(ctx context.Context) (Framebuffer, RenderStats, error) {
	if err := rt.validate(); err != nil {
		return nil, RenderStats{}, err
	}

	start := time.Now()
	pixelStats := newPixelStats(rt.width, rt.height)
	tiles := NewTileGrid(rt.width, rt.height, rt.tileSize, rt.seed)

	rt.logger.Printf("Rendering %dx%d at %d samples per pixel, max depth %d\n",
		rt.width, rt.height, rt.config.SamplesPerPixel, rt.config.MaxDepth)

	if err := rt.renderTiles(ctx, tiles, pixelStats, rt.config.SamplesPerPixel); err != nil {
		return nil, RenderStats{}, err
	}

	fb, stats := collectStats(pixelStats, rt.config.SamplesPerPixel)
	stats.Elapsed = time.Since(start)

	rt.logger.Printf("Render completed in %v (%d samples)\n", stats.Elapsed, stats.TotalSamples)
	return fb, stats, nil
}

// validate checks dimensions, sampling and memory before any allocation
func (rt *Raytracer) validate() error {
	if rt.width <= 0 || rt.height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rt.width, rt.height)
	}
	if err := rt.config.Validate(); err != nil {
		return err
	}
	return checkMemory(rt.width, rt.height, rt.logger)
}

// checkMemory fails when the framebuffer would not fit in available memory.
// An unreadable memory status is logged and ignored.
func checkMemory(width, height int, logger core.Logger) error {
	available, err := availableMemory()
	if err != nil {
		logger.Printf("Warning: could not read available memory: %v\n", err)
		return nil
	}

	w, h := uint64(width), uint64(height)
	if w > math.MaxUint64/h/bytesPerPixel {
		return fmt.Errorf("%w: %dx%d overflows", ErrInsufficientMemory, width, height)
	}
	if required := w * h * bytesPerPixel; required > available {
		return fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientMemory, required, available)
	}
	return nil
}

// renderTiles brings every tile to targetSamples using a worker pool.
// It returns the first tile error, which is ctx.Err() after cancellation.
func (rt *Raytracer) renderTiles(ctx context.Context, tiles []*Tile, pixelStats [][]PixelStats, targetSamples int) error {
	tileRenderer := NewTileRenderer(rt.world, rt.camera, rt.integrator, rt.width, rt.height, rt.config.MaxDepth)
	pool := NewWorkerPool(tileRenderer, len(tiles), rt.numWorkers)
	rt.logger.Printf("Rendering %d tiles with %d workers\n", len(tiles), pool.GetNumWorkers())
	pool.Start(ctx)
	defer pool.Stop()

	for i, tile := range tiles {
		pool.SubmitTask(TileTask{
			Tile:          tile,
			TargetSamples: targetSamples,
			TaskID:        i,
			PixelStats:    pixelStats,
		})
	}

	var firstErr error
	for range tiles {
		result, ok := pool.GetResult()
		if !ok {
			return fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		tiles[result.TaskID].PassesCompleted++
	}
	return firstErr
}

func newPixelStats(width, height int) [][]PixelStats {
	pixelStats := make([][]PixelStats, height)
	for row := range pixelStats {
		pixelStats[row] = make([]PixelStats, width)
	}
	return pixelStats
}

// Render is a convenience wrapper that renders world through camera with
// the default sky, seed and worker count
func Render(world geometry.Shape, camera *Camera, width, height, samplesPerPixel, maxDepth int) (Framebuffer, error) {
	rt := NewRaytracer(world, camera, width, height, SamplingConfig{
		SamplesPerPixel: samplesPerPixel,
		MaxDepth:        maxDepth,
	})
	fb, _, err := rt.Render(context.Background())
	return fb, err
}
