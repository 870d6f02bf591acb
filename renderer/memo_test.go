package renderer

import "testing"

func TestMemoKeepsValueWhenUnchanged(t *testing.T) {
	var m memo[int, string]
	calls := 0
	compute := func(v string, changed bool) func(string) (string, bool) {
		return func(string) (string, bool) {
			calls++
			return v, changed
		}
	}

	if v, changed := m.get(1, compute("a", true)); v != "a" || !changed {
		t.Fatalf("first get = %q, %v", v, changed)
	}
	if v, changed := m.get(1, compute("b", true)); v != "a" || changed || calls != 1 {
		t.Fatalf("same key recomputed: %q, %v, calls %d", v, changed, calls)
	}
	if v, changed := m.get(2, compute("c", false)); v != "a" || changed {
		t.Fatalf("unchanged signal must keep the previous value, got %q, %v", v, changed)
	}
	if v, changed := m.get(3, compute("d", true)); v != "d" || !changed {
		t.Fatalf("changed value = %q, %v", v, changed)
	}

	m.reset()
	if v, changed := m.get(3, compute("e", false)); v != "e" || !changed {
		t.Errorf("after reset = %q, %v", v, changed)
	}
}
