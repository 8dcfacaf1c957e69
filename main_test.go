package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// recordingSink captures uploads in memory
type recordingSink struct {
	keys  []string
	types []string
}

func (r *recordingSink) Put(ctx context.Context, key string, data []byte, contentType string) error {
	r.keys = append(r.keys, key)
	r.types = append(r.types, contentType)
	return nil
}

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		sceneFile   string
		expectError bool
	}{
		// Built-in scenes
		{"single sphere", "single-sphere", "", false},
		{"default scene", "default", "", false},
		{"random spheres", "random-spheres", "", false},
		{"two spheres", "two-spheres", "", false},
		{"perlin spheres", "perlin-spheres", "", false},

		// Scene files
		{"json path as scene", "scenes/checker-marbles.json", "", false},
		{"explicit scene file", "default", "scenes/checker-marbles.json", false},

		// Invalid scenes
		{"unknown scene", "nonexistent", "", true},
		{"missing scene file", "default", "scenes/nonexistent.json", true},
		{"empty scene name", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Scene = tt.sceneType
			cfg.SceneFile = tt.sceneFile
			s, err := createScene(cfg)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene '%s', but got none", tt.sceneType)
				}
				if s != nil {
					t.Errorf("Expected nil scene, got %T", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for scene '%s': %v", tt.sceneType, err)
			}
			if s.Width <= 0 || s.Height <= 0 {
				t.Errorf("Scene size should be positive, got %dx%d", s.Width, s.Height)
			}
			if s.BVH == nil {
				t.Error("Scene should be preprocessed")
			}
		})
	}
}

func TestCreateScene_UnknownIsSentinel(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = "cornell"
	if _, err := createScene(cfg); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestCreateScene_Overrides(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = "single-sphere"
	cfg.Width = 64
	cfg.SamplesPerPixel = 3
	cfg.MaxDepth = 7

	s, err := createScene(cfg)
	if err != nil {
		t.Fatalf("createScene failed: %v", err)
	}
	if s.Width != 64 || s.Height != 36 {
		t.Errorf("Expected 64x36, got %dx%d", s.Width, s.Height)
	}
	if s.SamplingConfig.SamplesPerPixel != 3 || s.SamplingConfig.MaxDepth != 7 {
		t.Errorf("Expected sampling overrides, got %+v", s.SamplingConfig)
	}
}

func TestRun_WritesImageAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "renders", "sphere.png")

	args := []string{
		"-env", filepath.Join(dir, "none.env"),
		"-scene", "single-sphere",
		"-width", "32", "-height", "16",
		"-samples", "2", "-depth", "3",
		"-workers", "2",
		"-output", out,
		"-thumbnail", "8",
	}
	if err := run(context.Background(), args, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, path := range []string{out, filepath.Join(dir, "renders", "sphere_thumb.png")} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("Expected %s to be written: %v", path, err)
		}
	}
}

func TestRun_PPMOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sphere.ppm")

	args := []string{"-env", filepath.Join(dir, "none.env"), "-scene", "single-sphere",
		"-width", "4", "-height", "2", "-samples", "1", "-depth", "2", "-output", out}
	if err := run(context.Background(), args, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "P3" || lines[1] != "4 2" || lines[2] != "255" || len(lines) != 3+8 {
		t.Errorf("Unexpected PPM layout: %q", lines[:3])
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "none.env")

	if err := run(context.Background(), []string{"-env", env, "-scene", "nope"}, core.NopLogger{}); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
	if err := run(context.Background(), []string{"-env", env, "-samples", "-1"}, core.NopLogger{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := run(context.Background(), []string{"-bogus"}, core.NopLogger{}); err == nil {
		t.Error("Expected flag parse error")
	}
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	ppm := filepath.Join(dir, "a.ppm")
	for _, p := range []string{png, ppm} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sink := &recordingSink{}
	if err := upload(context.Background(), sink, []string{png, ppm}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if strings.Join(sink.keys, ",") != "a.png,a.ppm" {
		t.Errorf("Unexpected keys %v", sink.keys)
	}
	if sink.types[0] != "image/png" || sink.types[1] != "image/x-portable-pixmap" {
		t.Errorf("Unexpected content types %v", sink.types)
	}
}
