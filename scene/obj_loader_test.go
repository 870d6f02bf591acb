package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quadOBJ = `# two objects sharing one material
mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
o quad
usemtl tinted
f 1/1 2/2 3/3 4/4
o tri
f -4/1 -3/2 -2/3
`

const quadMTL = `newmtl tinted
Kd 1 0.5 0
Ns 64
d 0.5
`

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte(quadMTL), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := LoadModel(filepath.Join(dir, "quad.obj"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Meshes) != 2 || len(a.Materials) != 1 {
		t.Fatalf("meshes = %d, materials = %d", len(a.Meshes), len(a.Materials))
	}

	quad, tri := a.Meshes[0], a.Meshes[1]
	if quad.Name != "quad" || tri.Name != "tri" {
		t.Errorf("names = %q, %q", quad.Name, tri.Name)
	}
	if quad.Geometry.VertexCount() != 4 || len(quad.Geometry.Indices) != 6 {
		t.Errorf("quad: %d vertices, %d indices", quad.Geometry.VertexCount(), len(quad.Geometry.Indices))
	}
	// usemtl carries over to the next object.
	mat := quad.Material
	if tri.Material != mat {
		t.Error("tri should inherit the current material")
	}
	if !mat.IsTransparent() || mat.Opacity() != 0.5 || mat.Color().G != 0.5 {
		t.Errorf("material transparent=%v opacity=%v color=%v", mat.IsTransparent(), mat.Opacity(), mat.Color())
	}
	if sp := mat.Specular(); sp == nil || sp.Shininess != 64 {
		t.Errorf("specular = %+v", sp)
	}

	// No vn lines: normals are generated facing +Z.
	n := quad.Geometry.Normals
	if len(n) != 12 || n[2] < 0.99 {
		t.Errorf("normals = %v", n)
	}
}

func TestDecodeOBJWithoutFaces(t *testing.T) {
	if _, err := DecodeOBJ(strings.NewReader("v 0 0 0\n"), ".", 0); err == nil {
		t.Error("expected an error for an OBJ without faces")
	}
}

func TestLoadModelRejectsUnknownFormat(t *testing.T) {
	if _, err := LoadModel("scene.fbx", 0); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestParseFaceVertex(t *testing.T) {
	cases := map[string][3]int{
		"3":        {2, -1, -1},
		"3/2":      {2, 1, -1},
		"3//4":     {2, -1, 3},
		"-1/-1/-1": {9, 4, 1},
	}
	for tok, want := range cases {
		if got := parseFaceVertex(tok, 10, 5, 2); got != want {
			t.Errorf("parseFaceVertex(%q) = %v, want %v", tok, got, want)
		}
	}
}

func TestGridGeometry(t *testing.T) {
	g := GridGeometry(4, 4)
	// 5 lines per axis, 2 vertices each.
	if g.VertexCount() != 20 || len(g.Indices) != 20 {
		t.Fatalf("vertices = %d, indices = %d", g.VertexCount(), len(g.Indices))
	}
	if !g.HasColors() || len(g.Colors) != 80 {
		t.Fatalf("colors = %d", len(g.Colors))
	}
	// The third line (x = 0) is the blue Z axis.
	if b := g.Colors[4*4+2]; b != 0.9 {
		t.Errorf("z axis blue = %v", b)
	}
}
