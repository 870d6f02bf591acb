// Package scenefile reads YAML scene descriptions. Assets referenced by a
// description are decoded concurrently; the scene itself is assembled on
// the calling goroutine.
package scenefile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"render-graph/core"
	"render-graph/gpu"
	"render-graph/internal/logger"
	"render-graph/scene"
)

// ErrUnknown is wrapped by errors about names the loader does not know:
// shapes, light types, animation kinds and material references.
var ErrUnknown = errors.New("unknown reference")

// ── Document ──────────────────────────────────────────────────────────────────

type Document struct {
	Version   int        `yaml:"version"`
	Camera    Camera     `yaml:"camera"`
	Materials []Material `yaml:"materials,omitempty"`
	Lights    []Light    `yaml:"lights,omitempty"`
	Meshes    []Mesh     `yaml:"meshes,omitempty"`
	Models    []Model    `yaml:"models,omitempty"`
}

type Camera struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	FOV      float32    `yaml:"fov"` // degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

type Material struct {
	Name         string    `yaml:"name"`
	Color        []float32 `yaml:"color,omitempty"`
	Metalness    float32   `yaml:"metalness,omitempty"`
	Opacity      *float32  `yaml:"opacity,omitempty"`
	Transparent  bool      `yaml:"transparent,omitempty"`
	Specular     *Specular `yaml:"specular,omitempty"`
	DiffuseMap   string    `yaml:"diffuseMap,omitempty"`
	NormalMap    string    `yaml:"normalMap,omitempty"`
	RoughnessMap string    `yaml:"roughnessMap,omitempty"`
}

type Specular struct {
	Color     []float32 `yaml:"color,omitempty"`
	Shininess float32   `yaml:"shininess"`
}

type Light struct {
	Type      string     `yaml:"type"` // point or directional
	Position  [3]float32 `yaml:"position,omitempty"`
	Direction [3]float32 `yaml:"direction,omitempty"`
	Color     []float32  `yaml:"color,omitempty"`
	Intensity float32    `yaml:"intensity"`
	Cutoff    float32    `yaml:"cutoff,omitempty"`
	Decay     *float32   `yaml:"decay,omitempty"`
}

type Mesh struct {
	Name       string       `yaml:"name"`
	Shape      string       `yaml:"shape"` // cube, sphere, plane or grid
	Size       float32      `yaml:"size,omitempty"`
	Segments   int          `yaml:"segments,omitempty"`
	Material   string       `yaml:"material,omitempty"`
	Position   [3]float32   `yaml:"position,omitempty"`
	Rotation   [3]float32   `yaml:"rotation,omitempty"` // degrees, applied X then Y then Z
	Scale      [3]float32   `yaml:"scale,omitempty"`
	Instances  [][3]float32 `yaml:"instances,omitempty"`
	Animations []Animation  `yaml:"animations,omitempty"`
}

type Animation struct {
	Kind      string  `yaml:"kind"` // wave or pulse
	Amplitude float32 `yaml:"amplitude,omitempty"`
	Frequency float32 `yaml:"frequency,omitempty"`
	Speed     float32 `yaml:"speed,omitempty"`
	Amount    float32 `yaml:"amount,omitempty"`
}

// Model places every mesh of an OBJ or glTF file.
type Model struct {
	Path     string     `yaml:"path"`
	Position [3]float32 `yaml:"position,omitempty"`
	Scale    float32    `yaml:"scale,omitempty"`
}

func (d *Document) normalize() {
	if d.Version == 0 {
		d.Version = 1
	}
	if d.Camera.FOV == 0 {
		d.Camera.FOV = 60
	}
	if d.Camera.Near == 0 {
		d.Camera.Near = 0.1
	}
	if d.Camera.Far == 0 {
		d.Camera.Far = 100
	}
	if d.Camera.Position == ([3]float32{}) {
		d.Camera.Position = [3]float32{0, 2, 6}
	}
}

// Parse decodes a scene description.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	doc.normalize()
	return &doc, nil
}

// Read loads a scene description from path.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data)
}

// Write saves doc as YAML.
func Write(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ── Build ─────────────────────────────────────────────────────────────────────

type Options struct {
	// MaxTextureSize downscales larger textures; 0 keeps them.
	MaxTextureSize int
	// Workers bounds concurrent asset decoding; 0 uses GOMAXPROCS.
	Workers int
	// Progress is called after every decoded asset. Calls are serialized.
	Progress func(done, total int)
}

// Result is a scene ready to hand to a renderer.
type Result struct {
	Scene    *scene.Scene
	Camera   *scene.Camera
	Textures []*scene.Texture
}

// Load reads path and builds it, resolving assets relative to its directory.
func Load(ctx context.Context, path string, opts Options) (*Result, error) {
	doc, err := Read(path)
	if err != nil {
		return nil, err
	}
	return doc.Build(ctx, filepath.Dir(path), opts)
}

type assets struct {
	paths    []string
	textures map[string]*scene.Texture
	models   []*scene.Asset
}

// AssetCount returns the number of files Build decodes.
func (d *Document) AssetCount() int {
	return len(d.texturePaths()) + len(d.Models)
}

func (d *Document) texturePaths() []string {
	var paths []string
	seen := make(map[string]bool)
	for _, m := range d.Materials {
		for _, p := range []string{m.DiffuseMap, m.NormalMap, m.RoughnessMap} {
			if p != "" && !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// Build decodes every asset, then assembles the scene. dir resolves
// relative asset paths.
func (d *Document) Build(ctx context.Context, dir string, opts Options) (*Result, error) {
	a, err := d.loadAssets(ctx, dir, opts)
	if err != nil {
		return nil, err
	}

	s := scene.NewScene()
	res := &Result{Scene: s}
	for _, p := range a.paths {
		res.Textures = append(res.Textures, a.textures[p])
	}

	materials := make(map[string]*scene.Material, len(d.Materials))
	for _, md := range d.Materials {
		m := buildMaterial(md, a.textures)
		materials[md.Name] = m
		s.AddMaterial(m)
	}
	for i, ld := range d.Lights {
		l, err := buildLight(ld)
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		s.AddLight(l)
	}
	for _, md := range d.Meshes {
		m, err := buildMesh(md, materials)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", md.Name, err)
		}
		s.Add(m)
	}
	for i, model := range a.models {
		place := transform(d.Models[i].Position, [3]float32{}, uniformScale(d.Models[i].Scale))
		for _, m := range model.Meshes {
			m.SetMatrix(place.Mul4(m.Matrix()))
			s.Add(m)
		}
		res.Textures = append(res.Textures, model.Textures...)
	}

	c := d.Camera
	res.Camera = scene.NewCamera(mgl32.DegToRad(c.FOV), 1, c.Near, c.Far)
	res.Camera.SetPosition(mgl32.Vec3(c.Position))
	res.Camera.LookAt(mgl32.Vec3(c.Target), mgl32.Vec3{0, 1, 0})

	logger.Log.Info("scene built",
		zap.Int("meshes", len(s.Meshes())),
		zap.Int("lights", len(s.Lights())),
		zap.Int("textures", len(res.Textures)),
	)
	return res, nil
}

func (d *Document) loadAssets(ctx context.Context, dir string, opts Options) (*assets, error) {
	paths := d.texturePaths()
	total := len(paths) + len(d.Models)
	textures := make([]*scene.Texture, len(paths))
	models := make([]*scene.Asset, len(d.Models))

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if opts.Progress != nil {
			opts.Progress(done, total)
		}
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := scene.LoadTexture(resolve(p), opts.MaxTextureSize)
			if err != nil {
				return fmt.Errorf("texture %s: %w", p, err)
			}
			textures[i] = t
			report()
			return nil
		})
	}
	for i, m := range d.Models {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := scene.LoadModel(resolve(m.Path), opts.MaxTextureSize)
			if err != nil {
				return fmt.Errorf("model %s: %w", m.Path, err)
			}
			models[i] = r
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &assets{paths: paths, textures: make(map[string]*scene.Texture, len(paths)), models: models}
	for i, p := range paths {
		a.textures[p] = textures[i]
	}
	return a, nil
}

// ── Conversion ────────────────────────────────────────────────────────────────

func toColor(v []float32, fallback core.Color) core.Color {
	switch len(v) {
	case 3:
		return core.RGB(v[0], v[1], v[2])
	case 4:
		return core.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
	}
	return fallback
}

func uniformScale(s float32) [3]float32 {
	if s == 0 {
		s = 1
	}
	return [3]float32{s, s, s}
}

// transform returns T * Rz * Ry * Rx * S. A zero scale means 1.
func transform(pos, rotDeg, scale [3]float32) mgl32.Mat4 {
	if scale == ([3]float32{}) {
		scale = [3]float32{1, 1, 1}
	}
	r := mgl32.HomogRotate3DZ(mgl32.DegToRad(rotDeg[2])).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rotDeg[1]))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rotDeg[0])))
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(r).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

func buildMaterial(md Material, textures map[string]*scene.Texture) *scene.Material {
	m := scene.NewMaterial(md.Name, toColor(md.Color, core.ColorWhite))
	m.SetMetalness(md.Metalness)
	if md.Opacity != nil {
		m.SetOpacity(*md.Opacity)
	}
	m.SetTransparent(md.Transparent)
	if sp := md.Specular; sp != nil {
		m.SetSpecular(&scene.Specular{Color: toColor(sp.Color, core.ColorWhite), Shininess: sp.Shininess})
	}
	if t := textures[md.DiffuseMap]; t != nil {
		m.SetDiffuseMap(&scene.TextureMap{Texture: t})
	}
	if t := textures[md.NormalMap]; t != nil {
		m.SetNormalMap(&scene.TextureMap{Texture: t})
	}
	if t := textures[md.RoughnessMap]; t != nil {
		m.SetRoughnessMap(&scene.TextureMap{Texture: t})
	}
	return m
}

func buildLight(ld Light) (*scene.Light, error) {
	l := &scene.Light{
		Position:  mgl32.Vec3(ld.Position),
		Direction: mgl32.Vec3(ld.Direction),
		Color:     toColor(ld.Color, core.ColorWhite),
		Intensity: ld.Intensity,
		Cutoff:    ld.Cutoff,
		Decay:     2,
	}
	if ld.Decay != nil {
		l.Decay = *ld.Decay
	}
	switch ld.Type {
	case "", "point":
		l.Type = scene.LightPoint
	case "directional":
		l.Type = scene.LightDirectional
	default:
		return nil, fmt.Errorf("%w: light type %q", ErrUnknown, ld.Type)
	}
	return l, nil
}

func buildGeometry(md Mesh) (scene.Geometry, error) {
	size := md.Size
	if size == 0 {
		size = 1
	}
	switch md.Shape {
	case "cube":
		return scene.CubeGeometry(size), nil
	case "sphere":
		segments := md.Segments
		if segments == 0 {
			segments = 32
		}
		return scene.SphereGeometry(size/2, segments, max(segments/2, 2)), nil
	case "plane":
		return scene.PlaneGeometry(size, size, max(md.Segments, 1)), nil
	case "grid":
		return scene.GridGeometry(size, max(md.Segments, 1)), nil
	}
	return scene.Geometry{}, fmt.Errorf("%w: shape %q", ErrUnknown, md.Shape)
}

func buildMesh(md Mesh, materials map[string]*scene.Material) (*scene.Mesh, error) {
	g, err := buildGeometry(md)
	if err != nil {
		return nil, err
	}
	mat := scene.DefaultMaterial()
	if md.Material != "" {
		m, ok := materials[md.Material]
		if !ok {
			return nil, fmt.Errorf("%w: material %q", ErrUnknown, md.Material)
		}
		mat = m
	}
	m := scene.NewMesh(md.Name, g, mat)
	if md.Shape == "grid" {
		m.Topology = gpu.Lines
	}

	base := transform(md.Position, md.Rotation, md.Scale)
	if len(md.Instances) > 0 {
		mats := make([]mgl32.Mat4, len(md.Instances))
		for i, p := range md.Instances {
			mats[i] = mgl32.Translate3D(p[0], p[1], p[2]).Mul4(base)
		}
		m.SetInstances(mats)
	} else {
		m.SetMatrix(base)
	}

	for _, ad := range md.Animations {
		switch ad.Kind {
		case "wave":
			m.Animations = append(m.Animations, &scene.Wave{Amplitude: ad.Amplitude, Frequency: ad.Frequency, Speed: ad.Speed})
		case "pulse":
			m.Animations = append(m.Animations, &scene.Pulse{Speed: ad.Speed, Amount: ad.Amount})
		default:
			return nil, fmt.Errorf("%w: animation %q", ErrUnknown, ad.Kind)
		}
	}
	return m, nil
}
