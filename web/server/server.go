package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Size limits accepted from clients
const (
	MinImageSize = 16
	MaxImageSize = 2000
)

// Server handles web requests for the path tracer
type Server struct {
	cfg    config.Config
	logger core.Logger
	sink   output.Sink // S3 when configured, else the output directory
	echo   *echo.Echo
}

// NewServer creates a web server. A nil logger logs through echo.
func NewServer(cfg config.Config, logger core.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(corsMiddleware)

	s := &Server{cfg: cfg, logger: logger, echo: e}
	if s.logger == nil {
		s.logger = e.Logger
	}

	if cfg.S3.Enabled() {
		sink, err := output.NewS3Sink(cfg.S3, s.logger)
		if err != nil {
			return nil, err
		}
		s.sink = sink
	} else {
		s.sink = output.FileSink{Dir: filepath.Dir(cfg.Output)}
	}

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/scene-config", s.handleSceneConfig)
	e.GET("/api/render", s.handleRender)
	e.GET("/api/image", s.handleImage)

	return s, nil
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// SetSink replaces the target used by /api/image?store=true
func (s *Server) SetSink(sink output.Sink) {
	s.sink = sink
}

// Start serves until the server is shut down
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Printf("Starting web server on http://localhost%s\n", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

// RenderRequest represents a render request from the client.
// Zero Width and Height keep the scene's size.
type RenderRequest struct {
	Scene      string `json:"scene"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	MaxSamples int    `json:"maxSamples"`
	MaxDepth   int    `json:"maxDepth"`
	MaxPasses  int    `json:"maxPasses"`
	Seed       int64  `json:"seed"`
}

// ProgressUpdate represents a single progressive update sent via SSE
type ProgressUpdate struct {
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	PrimitiveCount int     `json:"primitiveCount"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScenes(c echo.Context) error {
	response, err := scene.ListAllScenes(s.cfg.ScenesDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, response)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(c echo.Context) error {
	sceneID := c.QueryParam("scene")
	if sceneID == "" {
		sceneID = s.cfg.Scene
	}

	sc, err := s.buildScene(sceneID, s.cfg.Seed)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sampling := sc.SamplingConfig
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scene": sceneID,
		"name":  sc.Name,
		"defaults": map[string]interface{}{
			"width":           sc.Width,
			"height":          sc.Height,
			"samplesPerPixel": sampling.SamplesPerPixel,
			"maxDepth":        sampling.MaxDepth,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": MinImageSize, "max": MaxImageSize},
			"height":     map[string]int{"min": MinImageSize, "max": MaxImageSize},
			"maxSamples": map[string]int{"min": 1, "max": 10000},
			"maxDepth":   map[string]int{"min": 1, "max": 1000},
			"maxPasses":  map[string]int{"min": 1, "max": 100},
		},
	})
}

// parseRenderRequest parses and validates query parameters
func (s *Server) parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: values.Get("scene")}
	if req.Scene == "" {
		req.Scene = s.cfg.Scene
	}

	var err error
	if req.Width, err = parseSizeParam(values, "width", s.cfg.Width); err != nil {
		return nil, err
	}
	if req.Height, err = parseSizeParam(values, "height", s.cfg.Height); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(values, "maxSamples", 50, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(values, "maxDepth", 50, 1, 1000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(values, "maxPasses", 7, 1, 100); err != nil {
		return nil, err
	}

	req.Seed = s.cfg.Seed
	if value := values.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	return req, nil
}

// parseSizeParam accepts 0 (scene default) or a size within the limits
func parseSizeParam(values url.Values, key string, defaultValue int) (int, error) {
	if values.Get(key) == "0" {
		return 0, nil
	}
	return parseIntParam(values, key, defaultValue, MinImageSize, MaxImageSize)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// buildScene resolves a built-in ID or a "file:<name>" ID from the scenes directory
func (s *Server) buildScene(id string, seed int64) (*scene.Scene, error) {
	if name, ok := strings.CutPrefix(id, "file:"); ok {
		if name == "" || name != filepath.Base(name) {
			return nil, fmt.Errorf("%w: %s", scene.ErrUnknownScene, id)
		}
		return loaders.LoadScene(filepath.Join(s.cfg.ScenesDir, name+".json"), core.NewSeededSampler(seed))
	}

	builder, err := scene.Lookup(id)
	if err != nil {
		return nil, err
	}
	return builder(core.NewSeededSampler(seed)), nil
}

// createScene builds the requested scene with size and sampling overrides applied
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	sc, err := s.buildScene(req.Scene, req.Seed)
	if err != nil {
		return nil, err
	}

	if req.Width > 0 {
		sc.SetImageSize(req.Width, req.Height)
	}
	sc.SamplingConfig.SamplesPerPixel = req.MaxSamples
	sc.SamplingConfig.MaxDepth = req.MaxDepth

	if err := sc.Preprocess(req.Seed); err != nil {
		return nil, err
	}
	return sc, nil
}
