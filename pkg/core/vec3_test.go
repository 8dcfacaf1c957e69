package core

import (
	"math"
	"testing"
)

func TestVec3_BasicArithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	tests := []struct {
		name     string
		got      Vec3
		expected Vec3
	}{
		{"Add", a.Add(b), NewVec3(5, -3, 9)},
		{"Subtract", a.Subtract(b), NewVec3(-3, 7, -3)},
		{"Multiply", a.Multiply(2), NewVec3(2, 4, 6)},
		{"Divide", a.Divide(2), NewVec3(0.5, 1, 1.5)},
		{"MultiplyVec", a.MultiplyVec(b), NewVec3(4, -10, 18)},
		{"Negate", a.Negate(), NewVec3(-1, -2, -3)},
		{"Cross", NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)), NewVec3(0, 0, 1)},
		{"Lerp midpoint", NewVec3(1, 1, 1).Lerp(NewVec3(0.5, 0.7, 1.0), 0.5), NewVec3(0.75, 0.85, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.ApproxEquals(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}

	if dot := a.Dot(b); dot != 12 {
		t.Errorf("Expected dot product 12, got %f", dot)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if math.Abs(v.Length()-1.0) > 1e-12 {
		t.Errorf("Expected unit length, got %f", v.Length())
	}

	zero := Vec3{}.Normalize()
	if !zero.Equals(Vec3{}) {
		t.Errorf("Normalizing zero vector should return zero, got %v", zero)
	}
}

func TestVec3_NearZero(t *testing.T) {
	if !NewVec3(1e-9, -1e-9, 0).NearZero() {
		t.Error("Expected tiny vector to be near zero")
	}
	if NewVec3(1e-9, 1e-3, 0).NearZero() {
		t.Error("Expected vector with one large component not to be near zero")
	}
}

func TestVec3_Reflect(t *testing.T) {
	incoming := NewVec3(1, -1, 0)
	normal := NewVec3(0, 1, 0)

	reflected := incoming.Reflect(normal)
	expected := NewVec3(1, 1, 0)
	if !reflected.ApproxEquals(expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, reflected)
	}
}

func TestVec3_Refract(t *testing.T) {
	normal := NewVec3(0, 1, 0)

	// Head-on rays pass straight through regardless of ratio
	straight := NewVec3(0, -1, 0).Refract(normal, 1.0/1.5)
	if !straight.ApproxEquals(NewVec3(0, -1, 0), 1e-12) {
		t.Errorf("Expected undeviated ray, got %v", straight)
	}

	// Entering a denser medium bends toward the normal (Snell's law)
	incoming := NewVec3(1, -1, 0).Normalize()
	ratio := 1.0 / 1.5
	refracted := incoming.Refract(normal, ratio)

	sinIn := math.Abs(incoming.X)
	sinOut := math.Abs(refracted.Normalize().X)
	if math.Abs(sinOut-ratio*sinIn) > 1e-9 {
		t.Errorf("Snell's law violated: sinOut=%f, expected %f", sinOut, ratio*sinIn)
	}
	if math.Abs(refracted.Length()-1.0) > 1e-9 {
		t.Errorf("Refracted unit vector should stay unit length, got %f", refracted.Length())
	}
}

func TestVec3_GammaCorrect(t *testing.T) {
	c := NewVec3(0.25, 1.0, 0.0).GammaCorrect(2.0)
	expected := NewVec3(0.5, 1.0, 0.0)
	if !c.ApproxEquals(expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, c)
	}

	negative := NewVec3(-0.5, 0, 0).GammaCorrect(2.0)
	if math.IsNaN(negative.X) || negative.X != 0 {
		t.Errorf("Negative channel should gamma-correct to 0, got %f", negative.X)
	}
}

func TestVec3_Axis(t *testing.T) {
	v := NewVec3(7, 8, 9)
	for axis, expected := range map[Axis]float64{AxisX: 7, AxisY: 8, AxisZ: 9} {
		if got := v.Axis(axis); got != expected {
			t.Errorf("Axis %v: expected %f, got %f", axis, expected, got)
		}
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRayAt(NewVec3(1, 0, 0), NewVec3(0, 2, 0), 0.25)
	if p := ray.At(1.5); !p.Equals(NewVec3(1, 3, 0)) {
		t.Errorf("Expected (1,3,0), got %v", p)
	}
	if ray.Time != 0.25 {
		t.Errorf("Expected time 0.25, got %f", ray.Time)
	}
}
