package renderer

import (
	"slices"

	"go.uber.org/zap"

	"render-graph/gpu"
	"render-graph/internal/logger"
	"render-graph/scene"
)

// LightBindingPoint is the uniform buffer binding of the "Lights" block.
const LightBindingPoint uint32 = 0

// LightStride is the number of float slots per point light:
//
//	[0:3]   position
//	[3]     padding
//	[4:7]   color premultiplied by intensity
//	[7]     padding
//	[8]     cutoff distance
//	[9]     decay exponent
//	[10:12] reserved
const LightStride = 12

// LightBuffer packs point lights into one uniform buffer. The buffer is
// created on the first Build and reused for the lifetime of the LightBuffer.
type LightBuffer struct {
	ctx     gpu.Context
	ubo     gpu.Buffer
	count   int
	scratch [LightStride]float32
}

func NewLightBuffer(ctx gpu.Context) *LightBuffer {
	return &LightBuffer{ctx: ctx}
}

// Buffer returns the uniform buffer, or 0 before the first Build.
func (b *LightBuffer) Buffer() gpu.Buffer { return b.ubo }

// Count returns the number of point lights written by the last Build.
func (b *LightBuffer) Count() int { return b.count }

// PointLights returns the point lights of lights in order. Their index in
// the result is their slot in the buffer.
func PointLights(lights []*scene.Light) []*scene.Light {
	out := make([]*scene.Light, 0, len(lights))
	for _, l := range lights {
		if l.Type == scene.LightPoint {
			out = append(out, l)
		}
	}
	return out
}

// PackLight writes one light into dst, which must hold LightStride floats.
func PackLight(dst []float32, l *scene.Light) {
	c := l.Color.Scale(l.Intensity)
	dst[0], dst[1], dst[2], dst[3] = l.Position[0], l.Position[1], l.Position[2], 0
	dst[4], dst[5], dst[6], dst[7] = c.R, c.G, c.B, 0
	dst[8], dst[9], dst[10], dst[11] = l.Cutoff, l.Decay, 0, 0
}

// Build uploads every point light and binds the buffer. With no point
// lights a single zeroed block is uploaded so the binding stays valid.
func (b *LightBuffer) Build(lights []*scene.Light) {
	points := PointLights(lights)
	if skipped := len(lights) - len(points); skipped > 0 {
		logger.Log.Warn("non-point lights are not packed into the light buffer", zap.Int("skipped", skipped))
	}

	data := make([]float32, max(len(points), 1)*LightStride)
	for i, l := range points {
		PackLight(data[i*LightStride:(i+1)*LightStride], l)
	}

	if b.ubo == 0 {
		b.ubo = b.ctx.CreateBuffer()
	}
	b.ctx.BindBuffer(gpu.UniformBuffer, b.ubo)
	b.ctx.BufferData(gpu.UniformBuffer, data, gpu.DynamicDraw)
	b.ctx.BindBufferBase(gpu.UniformBuffer, LightBindingPoint, b.ubo)
	b.count = len(points)
	logger.Log.Debug("light buffer built", zap.Int("lights", len(points)))
}

// UpdateOne rewrites the block of light, located by its index among the
// point lights of lights. It reports false when light is not a point light
// of the list or the buffer has not been built with that many lights.
func (b *LightBuffer) UpdateOne(lights []*scene.Light, light *scene.Light) bool {
	index := slices.Index(PointLights(lights), light)
	if index < 0 || index >= b.count || b.ubo == 0 {
		return false
	}
	PackLight(b.scratch[:], light)
	b.ctx.BindBuffer(gpu.UniformBuffer, b.ubo)
	b.ctx.BufferSubData(gpu.UniformBuffer, index*LightStride*4, b.scratch[:])
	return true
}

// Release deletes the uniform buffer.
func (b *LightBuffer) Release() {
	if b.ubo != 0 {
		b.ctx.DeleteBuffer(b.ubo)
		b.ubo = 0
		b.count = 0
	}
}
