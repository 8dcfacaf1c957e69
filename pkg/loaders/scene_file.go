package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

var (
	// ErrUnknownTexture is returned when a name matches no texture in the file
	ErrUnknownTexture = errors.New("unknown texture")
	// ErrUnknownMaterial is returned when a name matches no material in the file
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrUnknownType is returned for an unrecognised texture, material or background type
	ErrUnknownType = errors.New("unknown type")
	// ErrDegenerateCamera is returned when the camera has no usable orientation
	ErrDegenerateCamera = errors.New("degenerate camera")
)

// SceneFile is the JSON scene description. Textures and materials are
// declared once by name and shared by every sphere that references them.
type SceneFile struct {
	Name        string `json:"name"`
	Variant     string `json:"variant"`
	Description string `json:"description"`
	Group       string `json:"group"`

	Width      int             `json:"width"`
	Height     int             `json:"height"` // 0 derives the height from the camera aspect ratio
	Sampling   *SamplingSpec   `json:"sampling"`
	Camera     CameraSpec      `json:"camera"`
	Background *BackgroundSpec `json:"background"`

	Textures      map[string]TextureSpec  `json:"textures"`
	Materials     map[string]MaterialSpec `json:"materials"`
	Spheres       []SphereSpec            `json:"spheres"`
	MovingSpheres []MovingSphereSpec      `json:"movingSpheres"`
}

// SamplingSpec mirrors renderer.SamplingConfig
type SamplingSpec struct {
	SamplesPerPixel int `json:"samplesPerPixel"`
	MaxDepth        int `json:"maxDepth"`
}

// CameraSpec mirrors renderer.CameraConfig; zero values fall back to defaults
type CameraSpec struct {
	Center        *[3]float64 `json:"center"`
	LookAt        *[3]float64 `json:"lookAt"`
	Up            *[3]float64 `json:"up"`
	VFov          float64     `json:"vfov"`
	AspectRatio   float64     `json:"aspectRatio"`
	Aperture      float64     `json:"aperture"`
	FocusDistance float64     `json:"focusDistance"`
	TimeStart     float64     `json:"timeStart"`
	TimeEnd       float64     `json:"timeEnd"`
}

// BackgroundSpec is either {"type":"gradient","bottom":..,"top":..} or {"type":"solid","color":..}
type BackgroundSpec struct {
	Type   string     `json:"type"`
	Bottom [3]float64 `json:"bottom"`
	Top    [3]float64 `json:"top"`
	Color  [3]float64 `json:"color"`
}

// TextureSpec describes a solid, checker, noise or image texture
type TextureSpec struct {
	Type        string     `json:"type"`
	Color       [3]float64 `json:"color"`       // solid
	Even        [3]float64 `json:"even"`        // checker
	Odd         [3]float64 `json:"odd"`         // checker
	EvenTexture string     `json:"evenTexture"` // checker, overrides Even
	OddTexture  string     `json:"oddTexture"`  // checker, overrides Odd
	Scale       float64    `json:"scale"`       // checker, noise
	Path        string     `json:"path"`        // image, relative to the scene file
}

// MaterialSpec describes a lambertian, metal or dielectric material
type MaterialSpec struct {
	Type            string      `json:"type"`
	Albedo          *[3]float64 `json:"albedo"`
	Texture         string      `json:"texture"` // lambertian, overrides Albedo
	Fuzz            float64     `json:"fuzz"`
	RefractiveIndex float64     `json:"refractiveIndex"`
}

// SphereSpec places a static sphere
type SphereSpec struct {
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`
	Material string     `json:"material"`
}

// MovingSphereSpec places a sphere moving linearly between two centers
type MovingSphereSpec struct {
	Center0  [3]float64 `json:"center0"`
	Center1  [3]float64 `json:"center1"`
	Time0    float64    `json:"time0"`
	Time1    float64    `json:"time1"`
	Radius   float64    `json:"radius"`
	Material string     `json:"material"`
}

func vec(a [3]float64) core.Vec3 {
	return core.NewVec3(a[0], a[1], a[2])
}

func vecOr(a *[3]float64, fallback core.Vec3) core.Vec3 {
	if a == nil {
		return fallback
	}
	return vec(*a)
}

// LoadScene reads a JSON scene file. Noise textures draw their tables from
// sampler. The returned scene still needs Preprocess before rendering.
func LoadScene(filename string, sampler core.Sampler) (*scene.Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}

	var file SceneFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scene file %s: %w", filename, err)
	}

	if file.Name == "" {
		file.Name = filepath.Base(filename)
	}

	s, err := file.Build(filepath.Dir(filename), sampler)
	if err != nil {
		return nil, fmt.Errorf("scene file %s: %w", filename, err)
	}
	return s, nil
}

// Build converts the description into a scene. Image paths are resolved
// against baseDir.
func (f *SceneFile) Build(baseDir string, sampler core.Sampler) (*scene.Scene, error) {
	b := &sceneBuilder{
		file:      f,
		baseDir:   baseDir,
		sampler:   sampler,
		textures:  make(map[string]material.ColorSource),
		resolving: make(map[string]bool),
		materials: make(map[string]material.Material),
	}

	// Sorted so noise tables are drawn in a stable order
	for _, name := range sortedKeys(f.Textures) {
		if _, err := b.texture(name); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(f.Materials) {
		mat, err := b.buildMaterial(name, f.Materials[name])
		if err != nil {
			return nil, err
		}
		b.materials[name] = mat
	}

	cameraConfig, err := f.cameraConfig()
	if err != nil {
		return nil, err
	}

	// Unset fields keep their defaults
	sampling := renderer.DefaultSamplingConfig()
	if f.Sampling != nil {
		if f.Sampling.SamplesPerPixel > 0 {
			sampling.SamplesPerPixel = f.Sampling.SamplesPerPixel
		}
		if f.Sampling.MaxDepth > 0 {
			sampling.MaxDepth = f.Sampling.MaxDepth
		}
	}

	background, err := f.background()
	if err != nil {
		return nil, err
	}

	s := &scene.Scene{
		Name:           f.Name,
		CameraConfig:   cameraConfig,
		SamplingConfig: sampling,
		Width:          400,
		Background:     background,
	}
	if f.Width > 0 {
		s.Width = f.Width
	}
	s.SetImageSize(s.Width, f.Height)

	for i, sp := range f.Spheres {
		mat, err := b.material(sp.Material)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		s.AddSphere(geometry.NewSphere(vec(sp.Center), sp.Radius, mat))
	}
	for i, ms := range f.MovingSpheres {
		mat, err := b.material(ms.Material)
		if err != nil {
			return nil, fmt.Errorf("moving sphere %d: %w", i, err)
		}
		s.Add(geometry.NewMovingSphere(vec(ms.Center0), vec(ms.Center1), ms.Time0, ms.Time1, ms.Radius, mat))
	}

	return s, nil
}

func (f *SceneFile) cameraConfig() (renderer.CameraConfig, error) {
	c := f.Camera
	config := renderer.CameraConfig{
		Center:        vecOr(c.Center, core.NewVec3(0, 0, 0)),
		LookAt:        vecOr(c.LookAt, core.NewVec3(0, 0, -1)),
		Up:            vecOr(c.Up, core.NewVec3(0, 1, 0)),
		VFov:          c.VFov,
		AspectRatio:   c.AspectRatio,
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
		TimeStart:     c.TimeStart,
		TimeEnd:       c.TimeEnd,
	}
	if config.VFov <= 0 {
		config.VFov = 90
	}
	if config.AspectRatio <= 0 {
		config.AspectRatio = 16.0 / 9.0
	}

	view := config.Center.Subtract(config.LookAt)
	if view.NearZero() {
		return config, fmt.Errorf("camera: %w: center and lookAt coincide", ErrDegenerateCamera)
	}
	if config.Up.Cross(view.Normalize()).NearZero() {
		return config, fmt.Errorf("camera: %w: up %v is parallel to the view direction", ErrDegenerateCamera, config.Up)
	}
	return config, nil
}

func (f *SceneFile) background() (integrator.Background, error) {
	if f.Background == nil {
		return integrator.NewSkyBackground(), nil
	}
	switch f.Background.Type {
	case "gradient":
		return integrator.NewGradientBackground(vec(f.Background.Bottom), vec(f.Background.Top)), nil
	case "solid":
		return integrator.SolidBackground{Value: vec(f.Background.Color)}, nil
	default:
		return nil, fmt.Errorf("background: %w %q", ErrUnknownType, f.Background.Type)
	}
}

// sceneBuilder resolves named textures and materials
type sceneBuilder struct {
	file      *SceneFile
	baseDir   string
	sampler   core.Sampler
	textures  map[string]material.ColorSource
	resolving map[string]bool // Guards against checker cycles
	materials map[string]material.Material
}

func (b *sceneBuilder) texture(name string) (material.ColorSource, error) {
	if tex, ok := b.textures[name]; ok {
		return tex, nil
	}
	spec, ok := b.file.Textures[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTexture, name)
	}
	if b.resolving[name] {
		return nil, fmt.Errorf("texture %q refers to itself", name)
	}
	b.resolving[name] = true
	defer delete(b.resolving, name)

	tex, err := b.buildTexture(name, spec)
	if err != nil {
		return nil, err
	}
	b.textures[name] = tex
	return tex, nil
}

func (b *sceneBuilder) buildTexture(name string, spec TextureSpec) (material.ColorSource, error) {
	switch spec.Type {
	case "solid":
		return material.NewSolidColor(vec(spec.Color)), nil
	case "checker":
		even, err := b.checkerSide(spec.EvenTexture, spec.Even)
		if err != nil {
			return nil, err
		}
		odd, err := b.checkerSide(spec.OddTexture, spec.Odd)
		if err != nil {
			return nil, err
		}
		checker := material.NewCheckerTexture(even, odd)
		if spec.Scale > 0 {
			checker.Scale = spec.Scale
		}
		return checker, nil
	case "noise":
		return material.NewNoiseTexture(material.NewPerlin(b.sampler), spec.Scale), nil
	case "image":
		path := spec.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.baseDir, path)
		}
		return LoadImageTexture(path)
	default:
		return nil, fmt.Errorf("texture %q: %w %q", name, ErrUnknownType, spec.Type)
	}
}

func (b *sceneBuilder) checkerSide(textureName string, color [3]float64) (material.ColorSource, error) {
	if textureName != "" {
		return b.texture(textureName)
	}
	return material.NewSolidColor(vec(color)), nil
}

func (b *sceneBuilder) buildMaterial(name string, spec MaterialSpec) (material.Material, error) {
	switch spec.Type {
	case "lambertian":
		if spec.Texture != "" {
			tex, err := b.texture(spec.Texture)
			if err != nil {
				return nil, fmt.Errorf("material %q: %w", name, err)
			}
			return material.NewTexturedLambertian(tex), nil
		}
		return material.NewLambertian(vecOr(spec.Albedo, core.Splat(0.5))), nil
	case "metal":
		return material.NewMetal(vecOr(spec.Albedo, core.Splat(0.8)), spec.Fuzz), nil
	case "dielectric":
		if spec.RefractiveIndex <= 0 {
			return nil, fmt.Errorf("material %q: refractive index must be positive", name)
		}
		return material.NewDielectric(spec.RefractiveIndex), nil
	default:
		return nil, fmt.Errorf("material %q: %w %q", name, ErrUnknownType, spec.Type)
	}
}

func (b *sceneBuilder) material(name string) (material.Material, error) {
	mat, ok := b.materials[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMaterial, name)
	}
	return mat, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
