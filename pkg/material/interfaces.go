package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Material interface for objects that can scatter rays.
// Materials are immutable once built and are shared read-only by every
// shape and render worker that references them.
type Material interface {
	// Scatter decides how rayIn continues after striking the surface.
	// Returning false means the ray was absorbed.
	Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray   // The scattered ray
	Attenuation core.Color // Multiplicative color contribution of this bounce
}

// Face records which side of a surface a ray struck
type Face int

const (
	FrontFace Face = iota // Ray arrived against the outward normal
	BackFace              // Ray arrived from inside the surface
)

// String returns the face name
func (f Face) String() string {
	if f == FrontFace {
		return "front"
	}
	return "back"
}

// HitRecord contains information about a ray-object intersection.
// Material points at the hit shape's material; the record never outlives
// the scene that owns it.
type HitRecord struct {
	Point    core.Point // Point of intersection
	Normal   core.Vec3  // Unit surface normal, facing against the incoming ray
	T        float64    // Parameter t along the ray
	UV       core.Vec2  // Surface coordinates for texturing
	Face     Face       // Which side of the surface was hit
	Material Material   // Material of the hit object
}

// SetFaceNormal sets the normal vector and determines front/back face.
// outwardNormal must be unit length.
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	if ray.Direction.Dot(outwardNormal) < 0 {
		h.Face = FrontFace
		h.Normal = outwardNormal
	} else {
		h.Face = BackFace
		h.Normal = outwardNormal.Negate()
	}
}

// IsFrontFace reports whether the ray hit the outside of the surface
func (h *HitRecord) IsFrontFace() bool {
	return h.Face == FrontFace
}
