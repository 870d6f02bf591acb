package renderer

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"render-graph/core"
	"render-graph/gpu/gputest"
	"render-graph/scene"
)

func TestPackLightLayout(t *testing.T) {
	l := &scene.Light{
		Type:      scene.LightPoint,
		Position:  mgl32.Vec3{1, 2, 3},
		Color:     core.Color{R: 0.5, G: 1, B: 0.25, A: 1},
		Intensity: 2,
		Cutoff:    10,
		Decay:     1.5,
	}
	dst := make([]float32, LightStride)
	PackLight(dst, l)
	want := []float32{1, 2, 3, 0, 1, 2, 0.5, 0, 10, 1.5, 0, 0}
	if !slices.Equal(dst, want) {
		t.Errorf("packed = %v, want %v", dst, want)
	}
}

func TestBuildSkipsDirectionalLights(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(obs))
	t.Cleanup(func() { SetLogger(nil) })

	ctx := gputest.NewContext()
	b := NewLightBuffer(ctx)
	sun := &scene.Light{Type: scene.LightDirectional, Direction: mgl32.Vec3{0, -1, 0}, Color: core.ColorWhite, Intensity: 1}
	bulb := scene.NewPointLight(mgl32.Vec3{0, 2, 0}, core.ColorWhite, 1)
	lights := []*scene.Light{sun, bulb}
	b.Build(lights)

	if b.Count() != 1 || len(ctx.BufferContents(b.Buffer())) != LightStride {
		t.Fatalf("count = %d, floats = %d", b.Count(), len(ctx.BufferContents(b.Buffer())))
	}
	if logs.FilterMessage("non-point lights are not packed into the light buffer").Len() != 1 {
		t.Error("skipped light was not reported")
	}
	if b.UpdateOne(lights, sun) {
		t.Error("a directional light has no slot")
	}
	if !b.UpdateOne(lights, bulb) {
		t.Error("point light update failed")
	}
}

func TestBuildReusesBuffer(t *testing.T) {
	ctx := gputest.NewContext()
	b := NewLightBuffer(ctx)
	lights := []*scene.Light{scene.NewPointLight(mgl32.Vec3{}, core.ColorRed, 1)}
	b.Build(lights)
	first := b.Buffer()
	lights = append(lights, scene.NewPointLight(mgl32.Vec3{1, 0, 0}, core.ColorBlue, 1))
	b.Build(lights)
	if b.Buffer() != first || ctx.Count("CreateBuffer") != 1 {
		t.Error("rebuild must reuse the uniform buffer")
	}
	if got := len(ctx.BufferContents(first)); got != 2*LightStride {
		t.Errorf("floats = %d, want %d", got, 2*LightStride)
	}

	b.Release()
	if b.Buffer() != 0 || ctx.Count("DeleteBuffer") != 1 {
		t.Error("release must delete the buffer")
	}
}

func TestUpdateOneBeforeBuild(t *testing.T) {
	b := NewLightBuffer(gputest.NewContext())
	l := scene.NewPointLight(mgl32.Vec3{}, core.ColorWhite, 1)
	if b.UpdateOne([]*scene.Light{l}, l) {
		t.Error("update before build must fail")
	}
}
