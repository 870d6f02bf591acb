package renderer

// memo caches a value derived from inputs summarized by a comparable key.
type memo[K comparable, T any] struct {
	key   K
	value T
	valid bool
}

// get returns the cached value while key is unchanged. Otherwise compute
// runs with the previous value; when it reports changed == false the
// previous value is kept. The second result reports whether the returned
// value differs from the one cached before the call.
func (m *memo[K, T]) get(key K, compute func(prev T) (T, bool)) (T, bool) {
	if m.valid && m.key == key {
		return m.value, false
	}
	m.key = key
	next, changed := compute(m.value)
	if !m.valid || changed {
		m.value = next
		m.valid = true
		return next, true
	}
	return m.value, false
}

func (m *memo[K, T]) reset() {
	var zero T
	m.value = zero
	m.valid = false
}
