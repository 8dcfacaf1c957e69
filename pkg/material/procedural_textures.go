package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// DefaultCheckerScale gives checks roughly 0.3 world units across
const DefaultCheckerScale = 10.0

// CheckerTexture alternates between two sources in a 3D checker pattern
// defined by the sign of sin(sx)·sin(sy)·sin(sz)
type CheckerTexture struct {
	Even  ColorSource
	Odd   ColorSource
	Scale float64
}

// NewCheckerTexture creates a checker pattern from two sources
func NewCheckerTexture(even, odd ColorSource) *CheckerTexture {
	return &CheckerTexture{Even: even, Odd: odd, Scale: DefaultCheckerScale}
}

// NewCheckerTextureFromColors creates a checker pattern from two solid colors
func NewCheckerTextureFromColors(even, odd core.Color) *CheckerTexture {
	return NewCheckerTexture(NewSolidColor(even), NewSolidColor(odd))
}

// Evaluate picks Even or Odd depending on which cell point falls in
func (c *CheckerTexture) Evaluate(uv core.Vec2, point core.Point) core.Color {
	sines := math.Sin(c.Scale*point.X) * math.Sin(c.Scale*point.Y) * math.Sin(c.Scale*point.Z)
	if sines < 0 {
		return c.Even.Evaluate(uv, point)
	}
	return c.Odd.Evaluate(uv, point)
}

// NoiseTexture is a grey-scale Perlin noise texture
type NoiseTexture struct {
	Noise *Perlin
	Scale float64 // Frequency multiplier applied to the point before lookup
}

// NewNoiseTexture creates a noise texture backed by the given generator
func NewNoiseTexture(noise *Perlin, scale float64) *NoiseTexture {
	if scale <= 0 {
		scale = 1
	}
	return &NoiseTexture{Noise: noise, Scale: scale}
}

// Evaluate returns white scaled by the noise value at point
func (n *NoiseTexture) Evaluate(uv core.Vec2, point core.Point) core.Color {
	return core.Splat(n.Noise.Noise(point.Multiply(n.Scale)))
}
