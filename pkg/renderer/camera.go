package renderer

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center        core.Point // Eye position
	LookAt        core.Point // Point the camera looks at
	Up            core.Vec3  // Up direction
	VFov          float64    // Vertical field of view in degrees
	AspectRatio   float64    // Width / height
	Aperture      float64    // Lens diameter; 0 gives a pinhole camera
	FocusDistance float64    // Distance to the sharp plane; <= 0 uses |Center - LookAt|
	TimeStart     float64    // Shutter open
	TimeEnd       float64    // Shutter close
}

// Camera generates rays for rendering. It is immutable after construction.
type Camera struct {
	origin          core.Point
	lowerLeftCorner core.Point
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3
	lensRadius      float64
	timeStart       float64
	timeEnd         float64
}

// NewCamera creates a thin-lens camera from config
func NewCamera(config CameraConfig) *Camera {
	theta := config.VFov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := config.AspectRatio * halfHeight

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = config.Center.Subtract(config.LookAt).Length()
	}

	// Orthonormal basis; w points backwards out of the lens
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(2 * halfWidth * focusDistance)
	vertical := v.Multiply(2 * halfHeight * focusDistance)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
		timeStart:       config.TimeStart,
		timeEnd:         config.TimeEnd,
	}
}

// GetRay generates a ray for image-plane coordinates (s, t) in [0,1],
// with s=0 at the left edge and t=0 at the bottom
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	origin := c.origin
	if c.lensRadius > 0 {
		rd := core.RandomInUnitDisk(sampler).Multiply(c.lensRadius)
		origin = origin.Add(c.u.Multiply(rd.X)).Add(c.v.Multiply(rd.Y))
	}

	target := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t))

	time := c.timeStart
	if c.timeEnd > c.timeStart {
		time = core.Uniform{Min: c.timeStart, Max: c.timeEnd}.Sample(sampler)
	}

	return core.NewRayAt(origin, target.Subtract(origin), time)
}

// Forward returns the unit viewing direction
func (c *Camera) Forward() core.Vec3 {
	return c.w.Negate()
}
