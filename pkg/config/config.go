package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/df07/go-pathtracer/pkg/output"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "PATHTRACER_"

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings shared by the CLI and the web server.
// Zero Width/Height/SamplesPerPixel/MaxDepth keep the scene's own values.
type Config struct {
	Scene           string // Built-in scene ID
	SceneFile       string // JSON scene file; overrides Scene
	ScenesDir       string // Directory scanned for scene files
	Width           int
	Height          int
	SamplesPerPixel int
	MaxDepth        int
	Workers         int // 0 = one per logical CPU
	Seed            int64
	Output          string // Output image path
	ThumbnailWidth  int    // 0 disables thumbnails
	Port            int
	S3              output.S3Config
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Scene:     "default",
		ScenesDir: "scenes",
		Seed:      42,
		Output:    "output/render.png",
		Port:      8080,
	}
}

// Load reads envFile (a missing file is not an error), then applies
// PATHTRACER_* environment variables over the defaults
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	var err error

	cfg.Scene = getEnv("SCENE", cfg.Scene)
	cfg.SceneFile = getEnv("SCENE_FILE", cfg.SceneFile)
	cfg.ScenesDir = getEnv("SCENES_DIR", cfg.ScenesDir)
	cfg.Output = getEnv("OUTPUT", cfg.Output)

	ints := []struct {
		key string
		dst *int
	}{
		{"WIDTH", &cfg.Width},
		{"HEIGHT", &cfg.Height},
		{"SAMPLES", &cfg.SamplesPerPixel},
		{"MAX_DEPTH", &cfg.MaxDepth},
		{"WORKERS", &cfg.Workers},
		{"THUMBNAIL_WIDTH", &cfg.ThumbnailWidth},
		{"PORT", &cfg.Port},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, *v.dst); err != nil {
			return Config{}, err
		}
	}

	seed, err := getEnvInt("SEED", int(cfg.Seed))
	if err != nil {
		return Config{}, err
	}
	cfg.Seed = int64(seed)

	cfg.S3 = output.S3Config{
		AccessKey: getEnv("S3_ACCESS_KEY", ""),
		SecretKey: getEnv("S3_SECRET_KEY", ""),
		Endpoint:  getEnv("S3_ENDPOINT", ""),
		Region:    getEnv("S3_REGION", ""),
		Bucket:    getEnv("S3_BUCKET", ""),
		Prefix:    getEnv("S3_PREFIX", ""),
		ACL:       getEnv("S3_ACL", ""),
	}

	return cfg, nil
}

// Validate rejects values no render can use
func (c Config) Validate() error {
	switch {
	case c.Scene == "" && c.SceneFile == "":
		return fmt.Errorf("%w: no scene selected", ErrInvalidConfig)
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("%w: negative image size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.SamplesPerPixel < 0:
		return fmt.Errorf("%w: negative samples per pixel %d", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: negative max depth %d", ErrInvalidConfig, c.MaxDepth)
	case c.Workers < 0:
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers)
	case c.ThumbnailWidth < 0:
		return fmt.Errorf("%w: negative thumbnail width %d", ErrInvalidConfig, c.ThumbnailWidth)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	return nil
}

// getEnv looks up PATHTRACER_<key> with a fallback
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	name := EnvPrefix + key
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, name, value)
	}
	return n, nil
}
