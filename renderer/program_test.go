package renderer

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"render-graph/core"
	"render-graph/scene"
)

func TestTransparentProgramsOrderedByFarthestMesh(t *testing.T) {
	s := scene.NewScene()
	a := scene.NewMaterial("a", core.ColorRed)
	a.SetOpacity(0.5)
	b := scene.NewMaterial("b", core.ColorBlue)
	b.SetTransparent(true)

	near := scene.NewMesh("near", scene.CubeGeometry(1), a)
	near.SetMatrix(mgl32.Translate3D(0, 0, -1))
	far := scene.NewMesh("far", scene.CubeGeometry(1), b)
	far.SetMatrix(mgl32.Translate3D(0, 0, -8))
	s.Add(near, far)

	cam := scene.NewCamera(mgl32.DegToRad(60), 1, 0.1, 100)
	programs := groupPrograms(s)
	sortTransparent(programs, cam.ViewProjection())
	if programs[0].Material != b || programs[1].Material != a {
		t.Errorf("order = %s, %s", programs[0].Label(), programs[1].Label())
	}
}

func TestMeshesWithoutMatrixKeepOrder(t *testing.T) {
	s := scene.NewScene()
	glass := scene.NewMaterial("glass", core.ColorWhite)
	glass.SetOpacity(0.2)
	first := scene.NewMesh("first", scene.CubeGeometry(1), glass)
	second := scene.NewMesh("second", scene.CubeGeometry(1), glass)
	second.SetMatrix(mgl32.Translate3D(0, 0, -50))
	s.Add(first, second)

	programs := groupPrograms(s)
	sortTransparent(programs, scene.NewCamera(1, 1, 0.1, 100).ViewProjection())
	if programs[0].Meshes[0] != first {
		t.Error("a mesh of unknown depth must keep its position")
	}
}

func TestSceneMaterialsOrderPrograms(t *testing.T) {
	s := scene.NewScene()
	red := scene.NewMaterial("red", core.ColorRed)
	blue := scene.NewMaterial("blue", core.ColorBlue)
	s.AddMaterial(blue, red)
	s.Add(scene.NewMesh("r", scene.CubeGeometry(1), red), scene.NewMesh("b", scene.CubeGeometry(1), blue))
	s.Add(scene.NewMesh("orphan", scene.CubeGeometry(1), nil))

	programs := groupPrograms(s)
	if len(programs) != 2 || programs[0].Material != blue || programs[1].Material != red {
		t.Errorf("programs must follow the scene material list")
	}
}

func TestSameGrouping(t *testing.T) {
	s := scene.NewScene()
	mat := scene.DefaultMaterial()
	s.Add(scene.NewMesh("a", scene.CubeGeometry(1), mat))
	if !sameGrouping(groupPrograms(s), groupPrograms(s)) {
		t.Error("regrouping an unchanged scene must compare equal")
	}
	before := groupPrograms(s)
	s.Add(scene.NewMesh("b", scene.CubeGeometry(1), mat))
	if sameGrouping(before, groupPrograms(s)) {
		t.Error("adding a mesh must change the grouping")
	}
}

func TestBlendedOrderChangesGraph(t *testing.T) {
	s := scene.NewScene()
	a := scene.NewMaterial("a", core.ColorRed)
	a.SetOpacity(0.5)
	b := scene.NewMaterial("b", core.ColorBlue)
	b.SetOpacity(0.5)
	near := scene.NewMesh("near", scene.CubeGeometry(1), a)
	near.SetMatrix(mgl32.Translate3D(0, 0, -1))
	far := scene.NewMesh("far", scene.CubeGeometry(1), a)
	far.SetMatrix(mgl32.Translate3D(0, 0, -10))
	mid := scene.NewMesh("mid", scene.CubeGeometry(1), b)
	mid.SetMatrix(mgl32.Translate3D(0, 0, -5))
	s.Add(near, far, mid)
	vp := scene.NewCamera(mgl32.DegToRad(60), 1, 0.1, 100).ViewProjection()

	build := func() graph {
		programs := groupPrograms(s)
		return graph{programs: programs, blended: sortTransparent(programs, vp)}
	}
	before := build()
	var names []string
	for _, d := range before.blended {
		names = append(names, d.m.Name)
	}
	if !slices.Equal(names, []string{"far", "mid", "near"}) {
		t.Fatalf("blended order = %v", names)
	}
	if !sameGraph(before, build()) {
		t.Error("regrouping an unchanged scene must compare equal")
	}

	mid.SetMatrix(mgl32.Translate3D(0, 0, -0.5))
	after := build()
	if !sameGrouping(before.programs, after.programs) {
		t.Fatal("programs and their mesh order are unchanged")
	}
	if sameGraph(before, after) {
		t.Error("a new blended order must change the graph")
	}
}
