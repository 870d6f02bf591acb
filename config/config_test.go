package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"render-graph/gpu/gputest"
	"render-graph/renderer"
	"render-graph/scene"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.yaml")
	data := []byte(`
window:
  width: 800
  title: preview
renderer:
  background: [1, 0, 0]
  toneMapping:
    - kind: exposure
      value: 1
    - kind: gamma
contactShadow:
  enabled: true
  blurSize: 10
  position: [0, -0.5, 0]
log:
  level: DEBUG
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 720 || cfg.Window.Title != "preview" {
		t.Errorf("window = %+v", cfg.Window)
	}
	if !cfg.Window.VSync || !cfg.Renderer.Enabled {
		t.Error("defaults not kept for unset fields")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	tms, err := cfg.Renderer.ToneMappings()
	if err != nil || len(tms) != 2 {
		t.Fatalf("tone mappings = %v, %v", tms, err)
	}
	if cs := cfg.ContactShadow.Compositor(); cs.BlurSize != 10 || cs.Position != (mgl32.Vec3{0, -0.5, 0}) {
		t.Errorf("contact shadow = %+v", cs)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"short color", "renderer:\n  background: [1, 0]\n"},
		{"tone mapping", "renderer:\n  toneMapping:\n    - kind: filmic\n"},
		{"even kernel", "contactShadow:\n  enabled: true\n  blurSize: 9\n"},
		{"shadow position", "contactShadow:\n  enabled: true\n  position: [1, 2]\n"},
		{"log level", "log:\n  level: chatty\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDisabledShadowSkipsValidation(t *testing.T) {
	if _, err := Parse([]byte("contactShadow:\n  blurSize: 9\n")); err != nil {
		t.Errorf("disabled pass must not be validated: %v", err)
	}
}

func TestParseError(t *testing.T) {
	if _, err := Parse([]byte("window: [")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestApply(t *testing.T) {
	cfg, err := Parse([]byte("contactShadow:\n  enabled: true\nrenderer:\n  toneMapping:\n    - kind: reinhard\n"))
	if err != nil {
		t.Fatal(err)
	}
	s := scene.NewScene()
	r := renderer.New(gputest.NewContext(), s, scene.NewCamera(1, 1, 0.1, 10))
	cs, err := cfg.Apply(r)
	if err != nil || cs == nil {
		t.Fatalf("apply = %v, %v", cs, err)
	}
	if w, h := r.Canvas(); w != 1280 || h != 720 {
		t.Errorf("canvas = %dx%d", w, h)
	}

	s.Add(scene.NewMesh("cube", scene.CubeGeometry(1), scene.DefaultMaterial()))
	r.Pipeline()
	if n := len(r.Programs()); n != 4 {
		t.Errorf("programs = %d, want 3 shadow stages and 1 material", n)
	}
}
