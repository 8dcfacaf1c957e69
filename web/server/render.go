package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"

	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// handleRender streams progressive passes as Server-Sent Events. Each pass
// is a "progress" event carrying a base64 PNG; log lines arrive as
// "console" events. The render stops when the client disconnects.
func (s *Server) handleRender(c echo.Context) error {
	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()

	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return sendSSEEvent(w, "error", fmt.Sprintf("Invalid request: %v", err))
	}

	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewWebLogger(s.logger, consoleChan)

	sc, err := s.createScene(req)
	if err != nil {
		return sendSSEEvent(w, "error", err.Error())
	}
	logger.Printf("Scene %q: %d primitives, %dx%d\n", sc.Name, sc.GetPrimitiveCount(), sc.Width, sc.Height)

	rt := sc.NewRaytracer()
	rt.SetSeed(req.Seed)
	rt.SetWorkers(s.cfg.Workers)
	rt.SetLogger(logger)

	progressive := renderer.NewProgressiveRaytracer(rt, renderer.ProgressiveConfig{
		InitialSamples: 1,
		MaxPasses:      req.MaxPasses,
	})

	startTime := time.Now()
	passChan, errChan := progressive.RenderProgressive(ctx)

	// This loop is the only writer to w
	for passChan != nil || errChan != nil {
		select {
		case msg := <-consoleChan:
			if err := sendConsole(w, msg); err != nil {
				return nil
			}

		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			update, err := newProgressUpdate(result, req, sc, startTime)
			if err != nil {
				return sendSSEEvent(w, "error", err.Error())
			}
			if err := sendSSEUpdate(w, update); err != nil {
				return nil
			}

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if ctx.Err() != nil {
				s.logger.Printf("Render of %q cancelled by client\n", req.Scene)
				return nil
			}
			flushConsole(w, consoleChan)
			return sendSSEEvent(w, "error", fmt.Sprintf("Rendering failed: %v", err))

		case <-ctx.Done():
			return nil
		}
	}

	flushConsole(w, consoleChan)
	return sendSSEEvent(w, "complete", "Rendering completed")
}

func newProgressUpdate(result renderer.PassResult, req *RenderRequest, sc *scene.Scene, startTime time.Time) (ProgressUpdate, error) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return ProgressUpdate{}, fmt.Errorf("encoding pass %d: %w", result.PassNumber, err)
	}

	stats := result.Stats
	return ProgressUpdate{
		PassNumber:  result.PassNumber,
		TotalPasses: req.MaxPasses,
		ImageData:   imageData,
		Stats: Stats{
			TotalPixels:    stats.TotalPixels,
			TotalSamples:   stats.TotalSamples,
			AverageSamples: stats.AverageSamples,
			MaxSamples:     stats.MaxSamples,
			MinSamples:     stats.MinSamples,
			MaxSamplesUsed: stats.MaxSamplesUsed,
			PrimitiveCount: sc.GetPrimitiveCount(),
		},
		IsComplete: result.IsLast,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	}, nil
}

// handleImage renders synchronously and returns the encoded image.
// format=jpeg|png selects the encoding, thumbnail=N scales the result and
// store=true also writes it to the server's sink.
func (s *Server) handleImage(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	thumbWidth, err := parseIntParam(c.QueryParams(), "thumbnail", 0, 0, MaxImageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	format := imaging.PNG
	switch c.QueryParam("format") {
	case "", "png":
	case "jpg", "jpeg":
		format = imaging.JPEG
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported format %q", c.QueryParam("format")))
	}

	sc, err := s.createScene(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rt := sc.NewRaytracer()
	rt.SetSeed(req.Seed)
	rt.SetWorkers(s.cfg.Workers)
	rt.SetLogger(s.logger)

	fb, _, err := rt.Render(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var img image.Image = renderer.ToImage(fb)
	if thumbWidth > 0 {
		img = output.Thumbnail(img, uint(thumbWidth))
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, format); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	contentType := output.ContentType(format)

	if c.QueryParam("store") == "true" {
		ext := "png"
		if format == imaging.JPEG {
			ext = "jpg"
		}
		key := fmt.Sprintf("%s-%d.%s", strings.TrimPrefix(req.Scene, "file:"), req.Seed, ext)
		if err := s.sink.Put(c.Request().Context(), key, buf.Bytes(), contentType); err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		c.Response().Header().Set("X-Stored-Key", key)
	}

	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := output.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendSSEUpdate sends a progress update via SSE
func sendSSEUpdate(w *echo.Response, update ProgressUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return sendSSEEvent(w, "progress", string(data))
}

func sendConsole(w *echo.Response, msg ConsoleMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return sendSSEEvent(w, "console", string(data))
}

// flushConsole sends whatever console messages are already queued
func flushConsole(w *echo.Response, consoleChan <-chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			if sendConsole(w, msg) != nil {
				return
			}
		default:
			return
		}
	}
}

// sendSSEEvent writes one event and flushes it to the client
func sendSSEEvent(w *echo.Response, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
