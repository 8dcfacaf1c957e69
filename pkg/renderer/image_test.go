package renderer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestColorToRGBA(t *testing.T) {
	tests := []struct {
		name     string
		input    core.Color
		expected color.RGBA
	}{
		{"black", core.NewVec3(0, 0, 0), color.RGBA{0, 0, 0, 255}},
		{"white clamps to 255", core.NewVec3(1, 1, 1), color.RGBA{255, 255, 255, 255}},
		{"over-bright clamps", core.NewVec3(4, 9, 100), color.RGBA{255, 255, 255, 255}},
		{"negative clamps to zero", core.NewVec3(-1, -0.5, 0), color.RGBA{0, 0, 0, 255}},
		// sqrt(0.25) = 0.5 -> 128
		{"gamma quarter", core.NewVec3(0.25, 0.25, 0.25), color.RGBA{128, 128, 128, 255}},
		// sqrt(0.01) = 0.1 -> 25
		{"dark channel", core.NewVec3(0.01, 0.0, 0.25), color.RGBA{25, 0, 128, 255}},
		{"NaN channels become black", core.NewVec3(math.NaN(), 1, math.NaN()), color.RGBA{0, 255, 0, 255}},
		{"NaN beside infinity", core.NewVec3(math.Inf(1), math.NaN(), 0.25), color.RGBA{255, 0, 128, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorToRGBA(tt.input); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestToImageOrientation(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb[0][1] = core.NewVec3(1, 1, 1) // top-right

	img := ToImage(fb)
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected white at top-right, got %v", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("Expected black at bottom-left, got %v", got)
	}
}

func TestCalculateAverageLuminance(t *testing.T) {
	// Red, green, blue and black average to (0.299 + 0.587 + 0.114) / 4
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})

	avgLum := CalculateAverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminance %f, got %f", expected, avgLum)
	}

	if lum := CalculateAverageLuminance(image.NewRGBA(image.Rect(0, 0, 0, 0))); lum != 0 {
		t.Errorf("Expected 0 for empty image, got %f", lum)
	}
}

func TestPixelStats(t *testing.T) {
	var ps PixelStats
	if c := ps.GetColor(); c != (core.Vec3{}) {
		t.Errorf("Expected black for no samples, got %v", c)
	}

	ps.AddSample(core.NewVec3(1, 0, 0.5))
	ps.AddSample(core.NewVec3(0, 1, 0.5))
	if ps.SampleCount != 2 {
		t.Errorf("Expected 2 samples, got %d", ps.SampleCount)
	}
	if c := ps.GetColor(); !c.Equals(core.NewVec3(0.5, 0.5, 0.5)) {
		t.Errorf("Expected average (0.5,0.5,0.5), got %v", c)
	}
}
