package shader

import (
	"strings"
	"testing"
)

type tint struct{ name string }

func (t tint) Contribute(b *Builder) {
	b.Define("TINT", "")
	b.Add(FragmentDeclarations, "uniform vec3 u"+t.name+";")
	b.Add(Fragment, "    color *= u"+t.name+";")
}

func TestBuildSubstitutesSlots(t *testing.T) {
	src := New().
		Define("LIGHT_COUNT", "2").
		Use(tint{"Tint"}).
		Add(Vertex, "    position.y += 1.0;").
		Build()

	for _, want := range []string{"#define LIGHT_COUNT 2", "position.y += 1.0;"} {
		if !strings.Contains(src.Vertex, want) {
			t.Errorf("vertex stage missing %q", want)
		}
	}
	for _, want := range []string{"#define TINT\n", "uniform vec3 uTint;", "color *= uTint;"} {
		if !strings.Contains(src.Fragment, want) {
			t.Errorf("fragment stage missing %q", want)
		}
	}
	if strings.Contains(src.Vertex, "{{") || strings.Contains(src.Fragment, "{{") {
		t.Error("unreplaced placeholder left in output")
	}
	if !strings.HasPrefix(src.Vertex, "#version 410 core\n") {
		t.Error("#version must stay on the first line")
	}
}

func TestDefinesAreSorted(t *testing.T) {
	src := NewWithTemplates("{{defines}}", "").
		Define("ZETA", "").
		Define("ALPHA", "1").
		Build()
	if src.Vertex != "#define ALPHA 1\n#define ZETA\n" {
		t.Errorf("unexpected defines %q", src.Vertex)
	}
}

func TestOnceDeduplicates(t *testing.T) {
	b := NewWithTemplates("{{vertex}}", "")
	for i := 0; i < 3; i++ {
		b.Once("wave", func(b *Builder) { b.Add(Vertex, "wave();") })
	}
	if got := b.Build().Vertex; got != "wave();" {
		t.Errorf("got %q, want a single contribution", got)
	}
}

func TestUseSkipsNil(t *testing.T) {
	var c Contributor
	b := New().Use(c, tint{"X"})
	if !b.Defined("TINT") {
		t.Error("non-nil contributor was not applied")
	}
}
