package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunDumpsFrames(t *testing.T) {
	dir := t.TempDir()
	scenePath := writeFile(t, dir, "scene.yaml", `
lights:
  - position: [0, 4, 0]
    intensity: 2
meshes:
  - name: box
    shape: cube
    position: [0, 0.5, 0]
`)
	configPath := writeFile(t, dir, "render.yaml", `
contactShadow:
  enabled: true
log:
  level: error
`)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-scene", scenePath, "-frames", "2"}, &out)
	if err != nil {
		t.Fatal(err)
	}

	frames := strings.Split(out.String(), "frame 1:")
	if len(frames) != 2 {
		t.Fatalf("output:\n%s", out.String())
	}
	first, second := frames[0], frames[1]
	for _, want := range []string{"frame 0:", "sync-lights", "create-program", "begin-pass", "draw"} {
		if !strings.Contains(first, want) {
			t.Errorf("first frame missing %q", want)
		}
	}
	if !strings.Contains(second, "select-program") || strings.Contains(second, "create-program") {
		t.Errorf("second frame should reuse programs:\n%s", second)
	}
}

func TestRunRequiresScene(t *testing.T) {
	if err := run(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Error("expected an error without -scene")
	}
}
