package material

import (
	"image"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ImageTexture provides color from a 2D image
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Color // Row-major: Pixels[y*Width + x], row 0 at the top
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Color) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// NewImageTextureFromImage converts img to linear [0,1] colors.
// Stored sRGB values are squared so that output gamma correction round-trips.
func NewImageTextureFromImage(img image.Image) *ImageTexture {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]core.Color, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := core.NewVec3(float64(r)/65535, float64(g)/65535, float64(b)/65535)
			pixels[y*width+x] = c.MultiplyVec(c)
		}
	}
	return NewImageTexture(width, height, pixels)
}

// Evaluate samples the texture with nearest-neighbor filtering.
// UV outside [0,1] wraps, so the negative v produced by spheres is valid.
func (t *ImageTexture) Evaluate(uv core.Vec2, point core.Point) core.Color {
	if t.Width == 0 || t.Height == 0 {
		return core.NewVec3(0, 1, 1)
	}

	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)

	// v=0 is the bottom row
	x := clampIndex(int(u*float64(t.Width)), t.Width)
	y := clampIndex(int((1.0-v)*float64(t.Height)), t.Height)

	return t.Pixels[y*t.Width+x]
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
