package scenefile

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"render-graph/scene"
)

const sceneYAML = `
camera:
  position: [0, 3, 8]
  target: [0, 0, 0]
  fov: 45
materials:
  - name: brick
    color: [0.8, 0.3, 0.2]
    diffuseMap: brick.png
  - name: glass
    color: [0.6, 0.8, 1, 1]
    opacity: 0.4
    transparent: true
    specular:
      shininess: 64
lights:
  - type: point
    position: [2, 4, 2]
    intensity: 3
  - type: directional
    direction: [0, -1, 0]
    intensity: 1
meshes:
  - name: box
    shape: cube
    material: brick
    position: [0, 0.5, 0]
  - name: orbs
    shape: sphere
    size: 0.5
    segments: 8
    material: glass
    instances:
      - [-1, 0, 0]
      - [1, 0, 0]
  - name: water
    shape: plane
    size: 10
    animations:
      - kind: wave
        amplitude: 0.1
        frequency: 2
        speed: 1
models:
  - path: tri.glb
    position: [5, 0, 0]
`

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeGLB(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "tri", Mesh: gltf.Index(0), Translation: [3]float64{0, 0, 1}}}
	doc.Scene = gltf.Index(0)
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatal(err)
	}
}

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "brick.png"))
	writeGLB(t, filepath.Join(dir, "tri.glb"))
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte(sceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDefaults(t *testing.T) {
	doc, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Version != 1 || doc.Camera.FOV != 60 || doc.Camera.Near != 0.1 || doc.Camera.Far != 100 {
		t.Errorf("defaults = %+v", doc)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte("meshes: {")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadBuildsScene(t *testing.T) {
	var calls [][2]int
	res, err := Load(context.Background(), writeFixture(t), Options{
		Workers:  2,
		Progress: func(done, total int) { calls = append(calls, [2]int{done, total}) },
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(calls) != 2 || calls[1] != [2]int{2, 2} {
		t.Errorf("progress calls = %v", calls)
	}

	s := res.Scene
	if len(s.Materials()) != 2 || len(s.Lights()) != 2 {
		t.Fatalf("materials = %d, lights = %d", len(s.Materials()), len(s.Lights()))
	}
	if s.Lights()[1].Type != scene.LightDirectional || s.Lights()[0].Decay != 2 {
		t.Errorf("lights = %+v %+v", s.Lights()[0], s.Lights()[1])
	}

	meshes := s.Meshes()
	if len(meshes) != 4 {
		t.Fatalf("meshes = %d, want 4", len(meshes))
	}
	box, orbs, water, tri := meshes[0], meshes[1], meshes[2], meshes[3]

	brick := s.Materials()[0]
	if box.Material != brick || brick.DiffuseMap() == nil || brick.DiffuseMap().Texture.Width != 2 {
		t.Error("box should use the textured brick material")
	}
	if got := box.Translation(); !got.ApproxEqual(mgl32.Vec3{0, 0.5, 0}) {
		t.Errorf("box translation = %v", got)
	}
	if orbs.InstanceCount() != 2 || !orbs.Material.IsTransparent() {
		t.Errorf("orbs instances = %d transparent = %v", orbs.InstanceCount(), orbs.Material.IsTransparent())
	}
	if len(water.Animations) != 1 || water.Animations[0].Name() != "wave" {
		t.Errorf("water animations = %v", water.Animations)
	}
	if water.Material == nil {
		t.Error("water should get the default material")
	}
	if got := tri.Translation(); !got.ApproxEqual(mgl32.Vec3{5, 0, 1}) {
		t.Errorf("model translation = %v, want [5 0 1]", got)
	}

	if len(res.Textures) != 1 {
		t.Errorf("textures = %d", len(res.Textures))
	}
	if got := res.Camera.Position(); !got.ApproxEqual(mgl32.Vec3{0, 3, 8}) {
		t.Errorf("camera position = %v", got)
	}
}

func TestBuildUnknownReferences(t *testing.T) {
	cases := map[string]string{
		"shape":     "meshes: [{name: a, shape: torus}]",
		"material":  "meshes: [{name: a, shape: cube, material: missing}]",
		"light":     "lights: [{type: spot}]",
		"animation": "meshes: [{name: a, shape: cube, animations: [{kind: spin}]}]",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(src))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := doc.Build(context.Background(), t.TempDir(), Options{}); !errors.Is(err, ErrUnknown) {
				t.Errorf("err = %v, want ErrUnknown", err)
			}
		})
	}
}

func TestBuildMissingAsset(t *testing.T) {
	doc, err := Parse([]byte("materials: [{name: a, diffuseMap: nope.png}]"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Build(context.Background(), t.TempDir(), Options{}); err == nil {
		t.Error("expected missing texture error")
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc, err := Read(writeFixture(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Build(ctx, t.TempDir(), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	doc := &Document{Meshes: []Mesh{{Name: "box", Shape: "cube", Rotation: [3]float32{0, 90, 0}}}}
	doc.normalize()
	if err := Write(path, doc); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Meshes) != 1 || got.Meshes[0].Rotation[1] != 90 || got.Camera.FOV != 60 {
		t.Errorf("read back %+v", got)
	}
}

func TestTransformRotatesThenTranslates(t *testing.T) {
	m := transform([3]float32{1, 0, 0}, [3]float32{0, 90, 0}, [3]float32{})
	got := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	if !got.ApproxEqualThreshold(mgl32.Vec3{1, 0, -1}, 1e-5) {
		t.Errorf("transformed = %v, want [1 0 -1]", got)
	}
}
