package renderer

import (
	"image"
	"math"
	"image/color"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Framebuffer is a dense grid of linear colors, indexed [row][x] with row 0 at the top
type Framebuffer [][]core.Color

// NewFramebuffer allocates a black framebuffer
func NewFramebuffer(width, height int) Framebuffer {
	fb := make(Framebuffer, height)
	for row := range fb {
		fb[row] = make([]core.Color, width)
	}
	return fb
}

// Width returns the number of columns
func (fb Framebuffer) Width() int {
	if len(fb) == 0 {
		return 0
	}
	return len(fb[0])
}

// Height returns the number of rows
func (fb Framebuffer) Height() int {
	return len(fb)
}

// ColorToRGBA gamma-corrects a linear color with a square root and
// quantizes each channel as 256·clamp(c, 0, 0.999). NaN channels become 0.
func ColorToRGBA(c core.Color) color.RGBA {
	c = zeroNaN(c).GammaCorrect(2.0).Clamp(0.0, 0.999)

	return color.RGBA{
		R: uint8(256 * c.X),
		G: uint8(256 * c.Y),
		B: uint8(256 * c.Z),
		A: 255,
	}
}

// zeroNaN replaces NaN channels with 0; min and max pass NaN through
func zeroNaN(c core.Color) core.Color {
	if math.IsNaN(c.X) {
		c.X = 0
	}
	if math.IsNaN(c.Y) {
		c.Y = 0
	}
	if math.IsNaN(c.Z) {
		c.Z = 0
	}
	return c
}

// ToImage converts a framebuffer to a display-ready image
func ToImage(fb Framebuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width(), fb.Height()))
	for row := range fb {
		for x, c := range fb[row] {
			img.SetRGBA(x, row, ColorToRGBA(c))
		}
	}
	return img
}

// CalculateAverageLuminance returns the mean luminance of img in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := core.NewVec3(float64(r)/65535, float64(g)/65535, float64(b)/65535)
			total += c.Luminance()
		}
	}
	return total / float64(pixels)
}
