package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"render-graph/gpu"
)

func triangleDocument() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Materials = []*gltf.Material{{
		Name:      "glass",
		AlphaMode: gltf.AlphaBlend,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0, 0, 0.5},
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "parent", Translation: [3]float64{1, 2, 3}, Children: []int{1}},
		{Name: "child", Mesh: gltf.Index(0), Translation: [3]float64{0, 0, -1}},
	}
	doc.Scene = gltf.Index(0)
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	return doc
}

func TestFromGLTFFlattensHierarchy(t *testing.T) {
	res, err := FromGLTF(triangleDocument(), ".", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Meshes) != 1 {
		t.Fatalf("meshes = %d, want 1", len(res.Meshes))
	}
	m := res.Meshes[0]
	if got := m.Translation(); !got.ApproxEqual(mgl32.Vec3{1, 2, 2}) {
		t.Errorf("world translation = %v, want [1 2 2]", got)
	}
	if m.Geometry.VertexCount() != 3 || len(m.Geometry.Indices) != 3 {
		t.Errorf("geometry: %d vertices, %d indices", m.Geometry.VertexCount(), len(m.Geometry.Indices))
	}
	if m.Topology != gpu.Triangles {
		t.Errorf("topology = %v", m.Topology)
	}
}

func TestFromGLTFMaterials(t *testing.T) {
	res, err := FromGLTF(triangleDocument(), ".", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Materials) != 1 {
		t.Fatalf("materials = %d", len(res.Materials))
	}
	mat := res.Materials[0]
	if res.Meshes[0].Material != mat {
		t.Error("mesh should reference the imported material")
	}
	if !mat.IsTransparent() || mat.Opacity() != 0.5 || mat.Color().R != 1 {
		t.Errorf("material transparent=%v opacity=%v color=%v", mat.IsTransparent(), mat.Opacity(), mat.Color())
	}
}

func TestLocalMatrixFromTRS(t *testing.T) {
	n := &gltf.Node{
		Translation: [3]float64{1, 0, 0},
		Scale:       [3]float64{2, 2, 2},
	}
	m := localMatrix(n)
	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !p.ApproxEqual(mgl32.Vec4{3, 0, 0, 1}) {
		t.Errorf("transformed point = %v, want [3 0 0 1]", p)
	}
}
