package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

const perlinPointCount = 256

// Perlin is a lattice value-noise generator with trilinear smoothing.
// The tables are filled once at construction and only read afterwards.
type Perlin struct {
	randFloat [perlinPointCount]float64
	permX     [perlinPointCount]int
	permY     [perlinPointCount]int
	permZ     [perlinPointCount]int
}

// NewPerlin builds the lattice tables from sampler
func NewPerlin(sampler core.Sampler) *Perlin {
	p := &Perlin{}
	for i := range p.randFloat {
		p.randFloat[i] = sampler.Get1D()
	}
	p.permX = perlinPermutation(sampler)
	p.permY = perlinPermutation(sampler)
	p.permZ = perlinPermutation(sampler)
	return p
}

// Noise returns a value in [0, 1) at point
func (p *Perlin) Noise(point core.Point) float64 {
	fx, fy, fz := math.Floor(point.X), math.Floor(point.Y), math.Floor(point.Z)
	u := point.X - fx
	v := point.Y - fy
	w := point.Z - fz

	// The &255 mask wraps negative lattice coordinates too
	i, j, k := int(fx), int(fy), int(fz)

	var c [2][2][2]float64
	for di := 0; di < 2; di++ {
		for dj := 0; dj < 2; dj++ {
			for dk := 0; dk < 2; dk++ {
				c[di][dj][dk] = p.randFloat[p.permX[(i+di)&255]^
					p.permY[(j+dj)&255]^
					p.permZ[(k+dk)&255]]
			}
		}
	}

	return trilinearInterpolate(c, u, v, w)
}

func trilinearInterpolate(c [2][2][2]float64, u, v, w float64) float64 {
	acc := 0.0
	for i := 0; i < 2; i++ {
		fi := float64(i)
		for j := 0; j < 2; j++ {
			fj := float64(j)
			for k := 0; k < 2; k++ {
				fk := float64(k)
				acc += (fi*u + (1-fi)*(1-u)) *
					(fj*v + (1-fj)*(1-v)) *
					(fk*w + (1-fk)*(1-w)) *
					c[i][j][k]
			}
		}
	}
	return acc
}

// perlinPermutation returns a Fisher-Yates shuffle of 0..255
func perlinPermutation(sampler core.Sampler) [perlinPointCount]int {
	var perm [perlinPointCount]int
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		target := int(sampler.Get1D() * float64(i))
		perm[i], perm[target] = perm[target], perm[i]
	}
	return perm
}
