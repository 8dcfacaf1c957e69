package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], core.NewDefaultLogger()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses flags over the loaded config, renders once and writes the result
func run(ctx context.Context, args []string, logger core.Logger) error {
	defaults := config.Default()

	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "Environment file with PATHTRACER_* settings")
	sceneName := fs.String("scene", defaults.Scene, "Built-in scene ID, or path to a .json scene file")
	sceneFile := fs.String("scene-file", "", "JSON scene file (overrides -scene)")
	width := fs.Int("width", 0, "Image width (0 = scene default)")
	height := fs.Int("height", 0, "Image height (0 = derived from the camera aspect ratio)")
	samples := fs.Int("samples", 0, "Samples per pixel (0 = scene default)")
	maxDepth := fs.Int("depth", 0, "Maximum bounce depth (0 = scene default)")
	workers := fs.Int("workers", 0, "Worker goroutines (0 = one per logical CPU)")
	seed := fs.Int64("seed", defaults.Seed, "Random seed; equal seeds give identical images")
	out := fs.String("output", defaults.Output, "Output image (.png, .jpg, .bmp, .tif, .gif or .ppm)")
	thumbWidth := fs.Int("thumbnail", 0, "Also write a thumbnail this many pixels wide")
	list := fs.Bool("list", false, "List available scenes and exit")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Monte Carlo Path Tracer")
		fmt.Fprintln(fs.Output(), "Usage: pathtracer [options]")
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	// Flags given on the command line win over the environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneName
		case "scene-file":
			cfg.SceneFile = *sceneFile
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "samples":
			cfg.SamplesPerPixel = *samples
		case "depth":
			cfg.MaxDepth = *maxDepth
		case "workers":
			cfg.Workers = *workers
		case "seed":
			cfg.Seed = *seed
		case "output":
			cfg.Output = *out
		case "thumbnail":
			cfg.ThumbnailWidth = *thumbWidth
		}
	})

	if *list {
		return listScenes(cfg.ScenesDir)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := createScene(cfg)
	if err != nil {
		return err
	}
	logger.Printf("Scene %q: %d primitives, %dx%d, %d spp, depth %d\n",
		s.Name, s.GetPrimitiveCount(), s.Width, s.Height, s.SamplingConfig.SamplesPerPixel, s.SamplingConfig.MaxDepth)

	rt := s.NewRaytracer()
	rt.SetWorkers(cfg.Workers)
	rt.SetSeed(cfg.Seed)
	rt.SetLogger(logger)

	fb, stats, err := rt.Render(ctx)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	logger.Printf("Samples per pixel: %.1f (range %d - %d)\n", stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed)

	return writeOutputs(ctx, cfg, fb, logger)
}

// createScene resolves the configured scene, applies size and sampling
// overrides, and builds its BVH
func createScene(cfg config.Config) (*scene.Scene, error) {
	var s *scene.Scene

	sceneFile := cfg.SceneFile
	if sceneFile == "" && strings.EqualFold(filepath.Ext(cfg.Scene), ".json") {
		sceneFile = cfg.Scene
	}

	if sceneFile != "" {
		loaded, err := loaders.LoadScene(sceneFile, core.NewSeededSampler(cfg.Seed))
		if err != nil {
			return nil, err
		}
		s = loaded
	} else {
		builder, err := scene.Lookup(cfg.Scene)
		if err != nil {
			return nil, err
		}
		s = builder(core.NewSeededSampler(cfg.Seed))
	}

	if cfg.Width > 0 {
		s.SetImageSize(cfg.Width, cfg.Height)
	}
	if cfg.SamplesPerPixel > 0 {
		s.SamplingConfig.SamplesPerPixel = cfg.SamplesPerPixel
	}
	if cfg.MaxDepth > 0 {
		s.SamplingConfig.MaxDepth = cfg.MaxDepth
	}

	if err := s.Preprocess(cfg.Seed); err != nil {
		return nil, err
	}
	return s, nil
}

// writeOutputs saves the render and optional thumbnail, then uploads both
// when S3 is configured
func writeOutputs(ctx context.Context, cfg config.Config, fb renderer.Framebuffer, logger core.Logger) error {
	if dir := filepath.Dir(cfg.Output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	if err := output.Save(cfg.Output, fb); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", cfg.Output)
	files := []string{cfg.Output}

	if cfg.ThumbnailWidth > 0 {
		thumbPath := output.ThumbnailPath(cfg.Output)
		if strings.EqualFold(filepath.Ext(thumbPath), ".ppm") {
			thumbPath = strings.TrimSuffix(thumbPath, filepath.Ext(thumbPath)) + ".png"
		}
		thumb := output.Thumbnail(renderer.ToImage(fb), uint(cfg.ThumbnailWidth))
		if err := output.SaveImage(thumbPath, thumb); err != nil {
			return err
		}
		logger.Printf("Thumbnail saved as %s\n", thumbPath)
		files = append(files, thumbPath)
	}

	if !cfg.S3.Enabled() {
		return nil
	}

	sink, err := output.NewS3Sink(cfg.S3, logger)
	if err != nil {
		return err
	}
	return upload(ctx, sink, files)
}

// upload sends each file to sink under its base name
func upload(ctx context.Context, sink output.Sink, files []string) error {
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		contentType := "image/x-portable-pixmap"
		if format, err := output.FormatFromFilename(path); err == nil {
			contentType = output.ContentType(format)
		}
		if err := sink.Put(ctx, filepath.Base(path), data, contentType); err != nil {
			return err
		}
	}
	return nil
}

func listScenes(scenesDir string) error {
	response, err := scene.ListAllScenes(scenesDir)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Printf("%s:\n", group.Name)
		for _, info := range group.Scenes {
			id := info.ID
			if info.FilePath != "" {
				id = info.FilePath
			}
			fmt.Printf("  %-24s %s\n", id, info.DisplayName)
		}
	}
	return nil
}
