package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"render-graph/core"
)

func TestMeshSpecial(t *testing.T) {
	m := NewMesh("box", CubeGeometry(1), nil)
	if m.Special() {
		t.Error("plain mesh should not be special")
	}

	m.SetInstances([]mgl32.Mat4{mgl32.Ident4()})
	if m.Special() {
		t.Error("one instance should not be special")
	}
	m.SetInstances([]mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 0, 0)})
	if !m.Special() || m.InstanceCount() != 2 {
		t.Errorf("two instances: special=%v count=%d", m.Special(), m.InstanceCount())
	}

	w := NewMesh("water", PlaneGeometry(1, 1, 4), nil)
	w.Animations = []Animation{&Pulse{Speed: 1, Amount: 0.2}}
	if w.Special() {
		t.Error("fragment animation should not make a mesh special")
	}
	if !w.RequiresTime() {
		t.Error("pulse requires time")
	}
	w.Animations = append(w.Animations, &Wave{Amplitude: 1})
	if !w.Special() {
		t.Error("vertex animation should make a mesh special")
	}
}

func TestMeshRevisionAndTranslation(t *testing.T) {
	m := NewMesh("box", CubeGeometry(1), nil)
	if m.HasMatrix() {
		t.Error("new mesh should not carry a matrix")
	}
	r := m.Rev()
	m.SetMatrix(mgl32.Translate3D(1, 2, 3))
	if m.Rev() == r {
		t.Error("SetMatrix should bump Rev")
	}
	if got := m.Translation(); got != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("Translation = %v", got)
	}
}

func TestMaterialRevisions(t *testing.T) {
	m := NewMaterial("red", core.ColorRed)
	if m.IsTransparent() {
		t.Error("new material should be opaque")
	}

	rev, shaderRev := m.Rev(), m.ShaderRev()
	m.SetColor(core.ColorBlue)
	if m.Rev() == rev || m.ShaderRev() != shaderRev {
		t.Error("SetColor should bump Rev only")
	}

	m.SetDiffuseMap(&TextureMap{Texture: NewSolidTexture("white", 255, 255, 255, 255)})
	if m.ShaderRev() == shaderRev {
		t.Error("SetDiffuseMap should bump ShaderRev")
	}

	m.SetOpacity(0.5)
	if !m.IsTransparent() {
		t.Error("opacity < 1 should be transparent")
	}
	m.SetOpacity(1)
	m.SetTransparent(true)
	if !m.IsTransparent() {
		t.Error("explicit flag should be transparent")
	}
}

func TestMaterialCapabilityOrder(t *testing.T) {
	m := DefaultMaterial()
	rough := &TextureMap{}
	diffuse := &TextureMap{}
	sp := &Specular{Color: core.ColorWhite, Shininess: 16}
	m.SetRoughnessMap(rough)
	m.SetDiffuseMap(diffuse)
	m.SetSpecular(sp)

	caps := m.Capabilities()
	if len(caps) != 3 || caps[0] != Capability(sp) || caps[1] != Capability(diffuse) || caps[2] != Capability(rough) {
		t.Errorf("unexpected order %v", caps)
	}
	if diffuse.Unit() != 0 || rough.Unit() != 2 {
		t.Errorf("units diffuse=%d roughness=%d", diffuse.Unit(), rough.Unit())
	}
}

func TestSceneRevisions(t *testing.T) {
	s := NewScene()
	a := NewMesh("a", CubeGeometry(1), nil)
	b := NewMesh("b", CubeGeometry(1), nil)
	s.Add(a, b)
	rev := s.Rev()

	s.Remove(a)
	if s.Rev() == rev || len(s.Meshes()) != 1 || s.Meshes()[0] != b {
		t.Errorf("Remove: rev=%d meshes=%v", s.Rev(), s.Meshes())
	}

	rev = s.Rev()
	s.Remove(a)
	if s.Rev() != rev {
		t.Error("removing an absent mesh should not bump Rev")
	}

	lights := s.LightsRev()
	l := NewPointLight(mgl32.Vec3{}, core.ColorWhite, 1)
	s.AddLight(l)
	s.RemoveLight(l)
	if s.LightsRev() != lights+2 {
		t.Errorf("LightsRev = %d, want %d", s.LightsRev(), lights+2)
	}
}

func TestCameraRev(t *testing.T) {
	c := NewCamera(1, 1, 0.1, 100)
	r := c.Rev()
	c.SetPosition(mgl32.Vec3{0, 0, 10})
	c.LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if c.Rev() != r+2 {
		t.Errorf("Rev = %d, want %d", c.Rev(), r+2)
	}
	// A point in front of the camera lands inside clip space.
	p := c.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p.W() <= 0 || p.Z()/p.W() < -1 || p.Z()/p.W() > 1 {
		t.Errorf("origin not inside the frustum: %v", p)
	}
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		g        Geometry
		vertices int
		indices  int
	}{
		{"cube", CubeGeometry(2), 24, 36},
		{"plane", PlaneGeometry(1, 1, 2), 9, 24},
		{"sphere", SphereGeometry(1, 8, 4), 45, 8 * 4 * 6},
		{"quad", FullscreenQuad(), 4, 6},
	}
	for _, tt := range tests {
		if got := tt.g.VertexCount(); got != tt.vertices {
			t.Errorf("%s: vertices = %d, want %d", tt.name, got, tt.vertices)
		}
		if got := len(tt.g.Indices); got != tt.indices {
			t.Errorf("%s: indices = %d, want %d", tt.name, got, tt.indices)
		}
	}
}

func TestInterleavedGeometry(t *testing.T) {
	g := Geometry{Interleaved: &Interleaved{
		Data:     []float32{1, 2, 3, 0, 0, 4, 5, 6, 1, 1},
		Stride:   20,
		Position: 0,
		Normal:   -1,
		UV:       12,
		Color:    -1,
	}}
	if g.VertexCount() != 2 {
		t.Fatalf("VertexCount = %d", g.VertexCount())
	}
	if p := g.Position(1); p != [3]float32{4, 5, 6} {
		t.Errorf("Position(1) = %v", p)
	}
	attrs := g.Attributes()
	if len(attrs) != 2 || attrs[1].Offset != 12 || attrs[1].Stride != 20 {
		t.Errorf("unexpected attributes %+v", attrs)
	}
	if g.HasColors() {
		t.Error("no color attribute expected")
	}
}
