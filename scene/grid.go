package scene

import "render-graph/core"

// GridGeometry builds a flat XZ grid of line segments spanning -size/2 to
// size/2 with divisions cells per axis. Draw it with gpu.Lines.
//
// The X-axis centre line is red, the Z-axis centre line is blue and all
// other lines are dark gray.
func GridGeometry(size float32, divisions int) Geometry {
	if divisions < 1 {
		divisions = 1
	}

	half := size / 2
	step := size / float32(divisions)

	gray := core.Color{R: 0.35, G: 0.35, B: 0.35, A: 1}
	red := core.Color{R: 0.8, G: 0.15, B: 0.15, A: 1}
	blue := core.Color{R: 0.15, G: 0.35, B: 0.9, A: 1}

	var g Geometry
	addLine := func(a, b [3]float32, c core.Color) {
		base := uint32(len(g.Positions) / 3)
		for _, p := range [2][3]float32{a, b} {
			g.Positions = append(g.Positions, p[0], p[1], p[2])
			g.Normals = append(g.Normals, 0, 1, 0)
			g.Colors = append(g.Colors, c.R, c.G, c.B, c.A)
		}
		g.Indices = append(g.Indices, base, base+1)
	}

	for i := 0; i <= divisions; i++ {
		x := -half + float32(i)*step
		c := gray
		if 2*i == divisions {
			c = blue
		}
		addLine([3]float32{x, 0, -half}, [3]float32{x, 0, half}, c)
	}
	for i := 0; i <= divisions; i++ {
		z := -half + float32(i)*step
		c := gray
		if 2*i == divisions {
			c = red
		}
		addLine([3]float32{-half, 0, z}, [3]float32{half, 0, z}, c)
	}
	return g
}
