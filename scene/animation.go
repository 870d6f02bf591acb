package scene

import (
	"render-graph/gpu"
	"render-graph/shader"
)

// AnimationKind is the shader stage an animation runs in.
type AnimationKind int

const (
	// AnimationVertex displaces vertices. A mesh carrying one gets a
	// program of its own.
	AnimationVertex AnimationKind = iota
	AnimationFragment
)

// Animation is a shader-driven effect attached to a mesh.
//
// Contributions are deduplicated by Name inside one program. Setup runs when
// the mesh is first uploaded, Update before every draw of the mesh, and
// Disable before drawing a mesh of the same program that does not carry the
// animation.
type Animation interface {
	shader.Contributor
	Name() string
	Kind() AnimationKind
	RequiresTime() bool
	Setup(ctx gpu.Context, u gpu.Uniforms)
	Update(ctx gpu.Context, u gpu.Uniforms)
	Disable(ctx gpu.Context, u gpu.Uniforms)
}

// Wave displaces vertices along Y with a travelling sine wave.
type Wave struct {
	Amplitude float32
	Frequency float32
	Speed     float32
}

func (w *Wave) Name() string        { return "wave" }
func (w *Wave) Kind() AnimationKind { return AnimationVertex }
func (w *Wave) RequiresTime() bool  { return true }

func (w *Wave) Contribute(b *shader.Builder) {
	b.Define("WAVE", "")
	b.Add(shader.VertexDeclarations, "uniform vec3 uWave;")
	b.Add(shader.Vertex, "    position.y += uWave.x * sin(position.x * uWave.y + uTime * uWave.z);")
}

func (w *Wave) Setup(ctx gpu.Context, u gpu.Uniforms) { w.Update(ctx, u) }

func (w *Wave) Update(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform3f(u.Location("uWave"), w.Amplitude, w.Frequency, w.Speed)
}

func (w *Wave) Disable(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform3f(u.Location("uWave"), 0, 0, 0)
}

// Pulse modulates the final color brightness over time.
type Pulse struct {
	Speed  float32
	Amount float32
}

func (p *Pulse) Name() string        { return "pulse" }
func (p *Pulse) Kind() AnimationKind { return AnimationFragment }
func (p *Pulse) RequiresTime() bool  { return true }

func (p *Pulse) Contribute(b *shader.Builder) {
	b.Define("PULSE", "")
	b.Add(shader.FragmentDeclarations, "uniform vec2 uPulse;")
	b.Add(shader.Fragment, "    color *= 1.0 + uPulse.y * sin(uTime * uPulse.x);")
}

func (p *Pulse) Setup(ctx gpu.Context, u gpu.Uniforms) { p.Update(ctx, u) }

func (p *Pulse) Update(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform2f(u.Location("uPulse"), p.Speed, p.Amount)
}

func (p *Pulse) Disable(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform2f(u.Location("uPulse"), 0, 0)
}
