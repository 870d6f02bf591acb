package scene

import "render-graph/gpu"

// Geometry holds CPU-side vertex data. Attributes are either separate
// arrays or a single interleaved array; Interleaved takes precedence when set.
type Geometry struct {
	Positions []float32 // xyz
	Normals   []float32 // xyz
	UVs       []float32 // uv
	Colors    []float32 // rgba
	Indices   []uint32

	Interleaved *Interleaved
}

// Interleaved is a packed vertex array. Stride and offsets are in bytes;
// a negative offset marks an absent attribute.
type Interleaved struct {
	Data     []float32
	Stride   int
	Position int
	Normal   int
	UV       int
	Color    int
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g.Interleaved != nil {
		if g.Interleaved.Stride == 0 {
			return 0
		}
		return len(g.Interleaved.Data) * 4 / g.Interleaved.Stride
	}
	return len(g.Positions) / 3
}

// HasColors reports whether per-vertex colors are present.
func (g *Geometry) HasColors() bool {
	if g.Interleaved != nil {
		return g.Interleaved.Color >= 0
	}
	return len(g.Colors) > 0
}

// Position returns the xyz of vertex i.
func (g *Geometry) Position(i int) [3]float32 {
	if il := g.Interleaved; il != nil {
		base := (i*il.Stride + il.Position) / 4
		return [3]float32{il.Data[base], il.Data[base+1], il.Data[base+2]}
	}
	return [3]float32{g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]}
}

// Attributes returns the vertex attribute layout. Separate arrays are
// uploaded one buffer per attribute, so their Stride and Offset are 0.
func (g *Geometry) Attributes() []gpu.Attribute {
	if il := g.Interleaved; il != nil {
		var attrs []gpu.Attribute
		add := func(loc uint32, size, offset int) {
			if offset >= 0 {
				attrs = append(attrs, gpu.Attribute{Location: loc, Size: size, Stride: il.Stride, Offset: offset})
			}
		}
		add(gpu.AttribPosition, 3, il.Position)
		add(gpu.AttribNormal, 3, il.Normal)
		add(gpu.AttribUV, 2, il.UV)
		add(gpu.AttribColor, 4, il.Color)
		return attrs
	}
	var attrs []gpu.Attribute
	if len(g.Positions) > 0 {
		attrs = append(attrs, gpu.Attribute{Location: gpu.AttribPosition, Size: 3})
	}
	if len(g.Normals) > 0 {
		attrs = append(attrs, gpu.Attribute{Location: gpu.AttribNormal, Size: 3})
	}
	if len(g.UVs) > 0 {
		attrs = append(attrs, gpu.Attribute{Location: gpu.AttribUV, Size: 2})
	}
	if len(g.Colors) > 0 {
		attrs = append(attrs, gpu.Attribute{Location: gpu.AttribColor, Size: 4})
	}
	return attrs
}

// Array returns the float data backing the attribute at loc when the
// geometry is not interleaved.
func (g *Geometry) Array(loc uint32) []float32 {
	switch loc {
	case gpu.AttribPosition:
		return g.Positions
	case gpu.AttribNormal:
		return g.Normals
	case gpu.AttribUV:
		return g.UVs
	case gpu.AttribColor:
		return g.Colors
	}
	return nil
}
