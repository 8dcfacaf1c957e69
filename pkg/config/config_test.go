package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// unsetForTest clears key for the duration of the test
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PATHTRACER_SCENE", "PATHTRACER_WIDTH", "PATHTRACER_SEED", "PATHTRACER_PORT", "PATHTRACER_S3_BUCKET"} {
		unsetForTest(t, key)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Default()
	if cfg.Scene != want.Scene || cfg.Seed != want.Seed || cfg.Port != want.Port || cfg.Width != 0 {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.S3.Enabled() {
		t.Error("S3 should be disabled without a bucket")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	for _, key := range []string{"PATHTRACER_SCENE", "PATHTRACER_WIDTH", "PATHTRACER_SAMPLES", "PATHTRACER_S3_BUCKET", "PATHTRACER_S3_REGION"} {
		unsetForTest(t, key)
	}
	// Real environment wins over the .env file
	t.Setenv("PATHTRACER_SEED", "7")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "PATHTRACER_SCENE=random-spheres\n" +
		"PATHTRACER_WIDTH=320\n" +
		"PATHTRACER_SAMPLES=16\n" +
		"PATHTRACER_SEED=99\n" +
		"PATHTRACER_S3_BUCKET=renders\n" +
		"PATHTRACER_S3_REGION=eu-west-1\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scene != "random-spheres" || cfg.Width != 320 || cfg.SamplesPerPixel != 16 {
		t.Errorf("Expected .env values, got %+v", cfg)
	}
	if cfg.Seed != 7 {
		t.Errorf("Expected environment seed 7 to win, got %d", cfg.Seed)
	}
	if !cfg.S3.Enabled() || cfg.S3.Bucket != "renders" || cfg.S3.Region != "eu-west-1" {
		t.Errorf("Expected S3 settings, got %+v", cfg.S3)
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("PATHTRACER_WIDTH", "wide")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no scene", func(c *Config) { c.Scene = "" }},
		{"negative width", func(c *Config) { c.Width = -1 }},
		{"negative samples", func(c *Config) { c.SamplesPerPixel = -5 }},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"negative thumbnail", func(c *Config) { c.ThumbnailWidth = -1 }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	cfg := Default()
	cfg.Scene = ""
	cfg.SceneFile = "scenes/checker-marbles.json"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Scene file alone should validate: %v", err)
	}
}
