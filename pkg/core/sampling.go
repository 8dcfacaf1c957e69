package core

import (
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator.
// It is not safe for concurrent use; every worker owns its own.
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own deterministic generator
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// Uniform is a continuous uniform distribution over [Min, Max)
type Uniform struct {
	Min, Max float64
}

// Sample draws one value from the distribution
func (u Uniform) Sample(sampler Sampler) float64 {
	return u.Min + (u.Max-u.Min)*sampler.Get1D()
}

// SampleVec3 draws three independent values from the distribution
func (u Uniform) SampleVec3(sampler Sampler) Vec3 {
	return NewVec3(u.Sample(sampler), u.Sample(sampler), u.Sample(sampler))
}

// Shared distributions. They hold no state; each worker samples them
// with its own Sampler.
var (
	UnitInterval       = Uniform{Min: 0, Max: 1}
	SignedUnitInterval = Uniform{Min: -1, Max: 1}
)

// RandomInUnitSphere returns a point strictly inside the unit sphere
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for {
		p := SignedUnitInterval.SampleVec3(sampler)
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomUnitVector returns a direction uniformly distributed on the unit sphere
func RandomUnitVector(sampler Sampler) Vec3 {
	for {
		p := RandomInUnitSphere(sampler)
		if lenSq := p.LengthSquared(); lenSq > 1e-160 {
			return p.Normalize()
		}
	}
}

// RandomInUnitDisk returns a point strictly inside the unit disk in the XY plane
func RandomInUnitDisk(sampler Sampler) Vec3 {
	for {
		p := NewVec3(SignedUnitInterval.Sample(sampler), SignedUnitInterval.Sample(sampler), 0)
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomAxis picks X, Y or Z with equal probability
func RandomAxis(sampler Sampler) Axis {
	axis := Axis(sampler.Get1D() * 3)
	if axis > AxisZ {
		axis = AxisZ
	}
	return axis
}

// RandomColor returns a color with every channel drawn from [lo, hi)
func RandomColor(sampler Sampler, lo, hi float64) Color {
	return Uniform{Min: lo, Max: hi}.SampleVec3(sampler)
}
