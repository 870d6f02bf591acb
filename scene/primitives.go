package scene

import (
	"math"
)

// SphereGeometry generates a UV sphere.
func SphereGeometry(radius float32, segments, rings int) Geometry {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var g Geometry
	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * math.Pi / float64(rings)
		sinPhi := float32(math.Sin(phi))
		cosPhi := float32(math.Cos(phi))

		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2.0 * math.Pi / float64(segments)
			nx := sinPhi * float32(math.Cos(theta))
			nz := sinPhi * float32(math.Sin(theta))

			g.Positions = append(g.Positions, nx*radius, cosPhi*radius, nz*radius)
			g.Normals = append(g.Normals, nx, cosPhi, nz)
			g.UVs = append(g.UVs, float32(seg)/float32(segments), float32(ring)/float32(rings))
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)
			g.Indices = append(g.Indices,
				current, next, current+1,
				current+1, next, next+1)
		}
	}
	return g
}

// PlaneGeometry generates a plane in XZ facing +Y, centered on the origin.
func PlaneGeometry(width, depth float32, subdivisions int) Geometry {
	if subdivisions < 1 {
		subdivisions = 1
	}

	var g Geometry
	n := subdivisions
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			u := float32(x) / float32(n)
			v := float32(z) / float32(n)
			g.Positions = append(g.Positions, (u-0.5)*width, 0, (v-0.5)*depth)
			g.Normals = append(g.Normals, 0, 1, 0)
			g.UVs = append(g.UVs, u, 1-v)
		}
	}
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			i := uint32(z*(n+1) + x)
			row := uint32(n + 1)
			g.Indices = append(g.Indices,
				i, i+row, i+1,
				i+1, i+row, i+row+1)
		}
	}
	return g
}

// CubeGeometry generates an axis-aligned cube with per-face normals.
func CubeGeometry(size float32) Geometry {
	s := size / 2
	faces := []struct {
		normal [3]float32
		corner [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{s, -s, -s}, {-s, -s, -s}, {-s, s, -s}, {s, s, -s}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-s, s, s}, {s, s, s}, {s, s, -s}, {-s, s, -s}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-s, -s, -s}, {s, -s, -s}, {s, -s, s}, {-s, -s, s}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{s, -s, s}, {s, -s, -s}, {s, s, -s}, {s, s, s}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-s, -s, -s}, {-s, -s, s}, {-s, s, s}, {-s, s, -s}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	var g Geometry
	for f, face := range faces {
		for i, c := range face.corner {
			g.Positions = append(g.Positions, c[0], c[1], c[2])
			g.Normals = append(g.Normals, face.normal[0], face.normal[1], face.normal[2])
			g.UVs = append(g.UVs, uvs[i][0], uvs[i][1])
		}
		base := uint32(f * 4)
		g.Indices = append(g.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return g
}

// FullscreenQuad covers clip space with two triangles. UVs span [0, 1].
func FullscreenQuad() Geometry {
	return Geometry{
		Positions: []float32{
			-1, -1, 0,
			1, -1, 0,
			1, 1, 0,
			-1, 1, 0,
		},
		UVs:     []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}
