package core

import "testing"

func TestColorScale(t *testing.T) {
	c := Color{R: 0.5, G: 1, B: 0.25, A: 0.5}.Scale(2)
	expected := Color{R: 1, G: 2, B: 0.5, A: 0.5}
	if c != expected {
		t.Errorf("Scale: expected %v, got %v", expected, c)
	}
}

func TestColorVectors(t *testing.T) {
	c := RGB(0.1, 0.2, 0.3)
	if c.A != 1 {
		t.Errorf("RGB: expected opaque alpha, got %v", c.A)
	}
	v := c.Vec4()
	if v[0] != 0.1 || v[1] != 0.2 || v[2] != 0.3 || v[3] != 1 {
		t.Errorf("Vec4: got %v", v)
	}
	if c.Vec3() != v.Vec3() {
		t.Errorf("Vec3: got %v, want %v", c.Vec3(), v.Vec3())
	}
}
