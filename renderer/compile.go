package renderer

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"render-graph/gpu"
	"render-graph/internal/logger"
	"render-graph/scene"
	"render-graph/shader"
)

// compile lowers the program list into operations. The resource cache is
// reconciled first, so every operation sees the entry of the current
// Program value. Transparent programs are not compiled one after the other:
// their meshes are drawn in the blended order, switching programs as needed.
func (r *Renderer) compile(g graph) Pipeline {
	programs := g.programs
	if len(programs) == 0 {
		r.cache.Evict(nil)
		logger.Log.Debug("render graph empty")
		return nil
	}
	for _, p := range programs {
		r.cache.adopt(p)
	}
	r.cache.Evict(programs)

	var l opList
	l.add(OpSyncLights, "", r.syncLights)
	cleared, blended := false, false
	for _, p := range programs {
		if p.Pass != nil {
			r.compilePass(&l, p)
			continue
		}
		if !cleared {
			l.add(OpClear, "", r.clear)
			cleared = true
		}
		if p.Transparent() {
			if !blended {
				r.compileBlended(&l, g.blended)
				blended = true
			}
			continue
		}
		run := r.compileProgram(&l, p)
		for _, m := range p.Meshes {
			r.compileMesh(&l, run, m, r.cache.entry(p))
		}
	}

	logger.Log.Debug("render graph compiled",
		zap.Int("programs", len(programs)),
		zap.Int("ops", len(l.ops)),
		zap.Int("cached", r.cache.Len()),
	)
	return l.ops
}

// programRun is the state shared by the operations of one program. The
// cache entry is resolved when the operations execute.
type programRun struct {
	r          *Renderer
	p          *Program
	e          *cacheEntry
	animations []scene.Animation
}

func (r *Renderer) signatureOf(p *Program) signature {
	if p.Pass != nil {
		return signature{}
	}
	return signature{
		lightCount:  len(PointLights(r.scene.Lights())),
		shaderRev:   r.shaderRev,
		materialRev: p.Material.ShaderRev(),
	}
}

// buildSource assembles the shader of a material program.
func (r *Renderer) buildSource(p *Program, sig signature, animations []scene.Animation) shader.Source {
	b := shader.New()
	b.Define("LIGHT_COUNT", strconv.Itoa(sig.lightCount))
	if p.special != nil && p.special.InstanceCount() > 1 {
		b.Define("INSTANCED", "")
	}
	if p.RequireTime {
		b.Define("USE_TIME", "")
	}
	for _, c := range p.Material.Capabilities() {
		b.Use(c)
	}
	for _, a := range animations {
		b.Once("animation:"+a.Name(), a.Contribute)
	}
	for _, tm := range r.toneMappings {
		b.Use(tm)
	}
	return b.Build()
}

// programAnimations returns the distinct animations of the program's
// meshes, first occurrence wins.
func programAnimations(p *Program) []scene.Animation {
	var out []scene.Animation
	seen := make(map[string]bool)
	for _, m := range p.Meshes {
		for _, a := range m.Animations {
			if !seen[a.Name()] {
				seen[a.Name()] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// compileBlended draws transparent meshes back to front across programs.
// A program is built at its first mesh; later switches back to it only
// select it again.
func (r *Renderer) compileBlended(l *opList, draws []blendedDraw) {
	runs := make(map[*Program]*programRun)
	var current *Program
	for _, d := range draws {
		if d.p != current {
			if run, ok := runs[d.p]; ok {
				label := d.p.Label()
				l.add(OpSelectProgram, label, run.selectCached)
				l.add(OpUseProgram, label, run.use)
				l.add(OpBindTextures, label, run.bindTextures)
				l.add(OpUpdateProgram, label, run.update)
			} else {
				runs[d.p] = r.compileProgram(l, d.p)
			}
			current = d.p
		}
		r.compileMesh(l, runs[d.p], d.m, r.cache.entry(d.p))
	}
}

// compileProgram emits the operations making p the current program with
// its per-frame uniforms set. The mesh operations follow separately.
func (r *Renderer) compileProgram(l *opList, p *Program) *programRun {
	label := p.Label()
	run := &programRun{r: r, p: p, animations: programAnimations(p)}
	sig := r.signatureOf(p)
	e := r.cache.entry(p)

	if e != nil && e.signature == sig {
		l.add(OpSelectProgram, label, run.selectCached)
		l.add(OpUseProgram, label, run.use)
	} else {
		if e != nil {
			logger.Log.Debug("program outdated", zap.String("program", label))
		}
		p.Source = r.buildSource(p, sig, run.animations)
		l.add(OpCreateProgram, label, run.create(sig))
		l.add(OpCompileProgram, label, run.compile)
		l.add(OpUseProgram, label, run.use)
		l.add(OpSetupCapability, "ambient", run.setupAmbient)
		for _, c := range p.Material.Capabilities() {
			l.add(OpSetupCapability, label, func() { c.Setup(r.ctx, run.e) })
		}
		for _, t := range lightTypes(r.scene.Lights()) {
			l.add(OpSetupLights, t.String(), run.setupLights(t))
		}
		if p.RequireTime {
			l.add(OpSetupTime, label, run.setupTime)
		}
	}
	l.add(OpBindTextures, label, run.bindTextures)
	l.add(OpUpdateProgram, label, run.update)
	return run
}

func (r *Renderer) compilePass(l *opList, p *Program) {
	label := p.Label()
	pp := p.Pass
	run := &programRun{r: r, p: p}
	e := r.cache.entry(p)

	if e != nil {
		l.add(OpSelectProgram, label, run.selectCached)
		l.add(OpUseProgram, label, run.use)
	} else {
		p.Source = pp.Source
		l.add(OpCreateProgram, label, run.create(signature{}))
		if !pp.MapCurrent {
			l.add(OpCompileProgram, label, run.compile)
		}
		l.add(OpUseProgram, label, run.use)
		l.add(OpSetupPass, label, run.setupPass)
	}
	l.add(OpBeginPass, label, run.beginPass)
	l.add(OpUpdateProgram, label, run.updatePass)
	if pp.PreDraw != nil {
		l.add(OpPreDraw, label, func() {
			if run.e != nil {
				pp.PreDraw(r.ctx)
			}
		})
	}
	for _, m := range p.Meshes {
		r.compileMesh(l, run, m, e)
	}
	if pp.PostDraw != nil {
		l.add(OpPostDraw, label, func() {
			if run.e != nil {
				pp.PostDraw(r.ctx)
			}
		})
	}
	l.add(OpEndPass, label, run.endPass)
}

func lightTypes(lights []*scene.Light) []scene.LightType {
	var out []scene.LightType
	for _, l := range lights {
		seen := false
		for _, t := range out {
			seen = seen || t == l.Type
		}
		if !seen {
			out = append(out, l.Type)
		}
	}
	return out
}

// ── Program operations ────────────────────────────────────────────────────────

func (run *programRun) selectCached() {
	run.e = run.r.cache.entry(run.p)
}

func (run *programRun) create(sig signature) func() {
	return func() {
		ctx := run.r.ctx
		if run.p.Pass != nil && run.p.Pass.MapCurrent {
			run.e = run.r.cache.store(run.p, ctx.CurrentProgram(), true, sig)
			return
		}
		run.e = run.r.cache.store(run.p, ctx.CreateProgram(), false, sig)
	}
}

func (run *programRun) compile() {
	src := run.p.Source
	if err := run.r.ctx.CompileProgram(run.e.handle, src.Vertex, src.Fragment); err != nil {
		logger.Log.Error("shader program failed to build",
			zap.String("program", run.p.Label()),
			zap.Error(err),
		)
	}
}

func (run *programRun) use() {
	if run.e == nil {
		return
	}
	run.r.ctx.UseProgram(run.e.handle)
}

func (run *programRun) setupAmbient() {
	a := run.r.ambient
	run.r.ctx.Uniform3f(run.e.Location("uAmbient"), a.R, a.G, a.B)
}

func (run *programRun) setupLights(t scene.LightType) func() {
	return func() {
		switch t {
		case scene.LightPoint:
			if run.e.signature.lightCount > 0 {
				run.r.ctx.UniformBlockBinding(run.e.handle, "Lights", LightBindingPoint)
			}
		default:
			logger.Log.Warn("light type has no shader support", zap.Stringer("type", t))
		}
	}
}

func (run *programRun) setupTime() {
	run.r.ctx.Uniform1f(run.e.Location("uTime"), float32(run.r.now.Seconds()))
}

func (run *programRun) setupPass() {
	pp := run.p.Pass
	ctx := run.r.ctx
	if pp.Init != nil {
		if err := pp.Init(ctx); err != nil {
			logger.Log.Error("pass initialization failed", zap.String("pass", pp.Name), zap.Error(err))
			run.r.cache.drop(run.p)
			run.e = nil
			return
		}
	}
	run.e.passReady = true
	if pp.Setup != nil {
		pp.Setup(ctx, run.e)
	}
}

func (run *programRun) bindTextures() {
	if run.e == nil {
		return
	}
	for _, c := range run.p.Material.Capabilities() {
		c.Bind(run.r.ctx, run.e)
	}
}

// update sets the per-frame uniforms of a material program.
func (run *programRun) update() {
	if run.e == nil {
		return
	}
	r, ctx, u := run.r, run.r.ctx, run.e
	mat := run.p.Material

	ctx.UniformMatrix4(u.Location("uProjection"), r.camera.Projection())
	ctx.UniformMatrix4(u.Location("uView"), r.camera.View())
	eye := r.camera.Position()
	ctx.Uniform3f(u.Location("uCameraPosition"), eye[0], eye[1], eye[2])
	ctx.Uniform3f(u.Location("uAmbient"), r.ambient.R, r.ambient.G, r.ambient.B)
	c := mat.Color()
	ctx.Uniform4f(u.Location("uColor"), c.R, c.G, c.B, c.A)
	ctx.Uniform1f(u.Location("uMetalness"), mat.Metalness())
	ctx.Uniform1f(u.Location("uOpacity"), mat.Opacity())
	if run.p.RequireTime {
		ctx.Uniform1f(u.Location("uTime"), float32(r.now.Seconds()))
	}
	ctx.Blend(run.p.Transparent())
}

func (run *programRun) beginPass() {
	if run.e != nil && run.p.Pass.Target != nil {
		run.p.Pass.Target(run.r.ctx)
	}
}

func (run *programRun) updatePass() {
	if run.e == nil {
		return
	}
	run.r.ctx.Blend(false)
	if run.p.Pass.Update != nil {
		run.p.Pass.Update(run.r.ctx, run.e)
	}
}

func (run *programRun) endPass() {
	run.r.ctx.BindFramebuffer(0)
	run.r.ctx.Viewport(0, 0, run.r.width, run.r.height)
}

// ── Mesh operations ───────────────────────────────────────────────────────────

type meshRun struct {
	prog *programRun
	m    *scene.Mesh
	s    *meshState
}

func (r *Renderer) compileMesh(l *opList, prog *programRun, m *scene.Mesh, e *cacheEntry) {
	run := &meshRun{prog: prog, m: m}
	if e != nil && e.meshes[m] != nil {
		l.add(OpSelectMesh, m.Name, run.selectCached)
	} else {
		l.add(OpUploadMesh, m.Name, run.upload)
		l.add(OpSetupColor, m.Name, run.setupColor)
		l.add(OpSetupTransform, m.Name, run.setupTransform)
		for _, a := range m.Animations {
			l.add(OpSetupAnimation, a.Name(), func() {
				if prog.e != nil {
					a.Setup(r.ctx, prog.e)
				}
			})
		}
	}
	l.add(OpUpdateMesh, m.Name, run.update)
	if m.HasMatrix() {
		l.add(OpWinding, m.Name, run.winding)
	}
	l.add(OpBindVertexArray, m.Name, run.bind)
	l.add(OpDraw, m.Name, run.draw)
	l.add(OpUnbindVertexArray, m.Name, run.unbind)
}

func (run *meshRun) ctx() gpu.Context { return run.prog.r.ctx }

func (run *meshRun) selectCached() {
	if e := run.prog.e; e != nil {
		run.s = e.meshes[run.m]
	}
}

// upload creates the vertex array with position, normal and uv arrays and
// the index buffer. The vertex array stays bound for the setup operations
// that follow.
func (run *meshRun) upload() {
	if run.prog.e == nil {
		return
	}
	ctx := run.ctx()
	g := &run.m.Geometry
	s := &meshState{vao: ctx.CreateVertexArray()}
	ctx.BindVertexArray(s.vao)

	if il := g.Interleaved; il != nil {
		b := ctx.CreateBuffer()
		s.buffers = append(s.buffers, b)
		ctx.BindBuffer(gpu.ArrayBuffer, b)
		ctx.BufferData(gpu.ArrayBuffer, il.Data, gpu.StaticDraw)
		for _, a := range g.Attributes() {
			if a.Location != gpu.AttribColor {
				ctx.VertexAttribPointer(a)
			}
		}
	} else {
		for _, a := range g.Attributes() {
			if a.Location == gpu.AttribColor {
				continue
			}
			b := ctx.CreateBuffer()
			s.buffers = append(s.buffers, b)
			ctx.BindBuffer(gpu.ArrayBuffer, b)
			ctx.BufferData(gpu.ArrayBuffer, g.Array(a.Location), gpu.StaticDraw)
			ctx.VertexAttribPointer(a)
		}
	}

	if len(g.Indices) > 0 {
		b := ctx.CreateBuffer()
		s.buffers = append(s.buffers, b)
		ctx.BindBuffer(gpu.ElementArrayBuffer, b)
		ctx.BufferElements(g.Indices, gpu.StaticDraw)
	}

	run.s = s
	run.prog.r.cache.storeMesh(run.prog.p, run.m, s)
}

// setupColor enables the per-vertex color array, or sets the constant
// white used by geometry without one.
func (run *meshRun) setupColor() {
	if run.s == nil {
		return
	}
	ctx := run.ctx()
	g := &run.m.Geometry
	if !g.HasColors() {
		ctx.VertexAttrib4f(gpu.AttribColor, 1, 1, 1, 1)
		return
	}
	for _, a := range g.Attributes() {
		if a.Location != gpu.AttribColor {
			continue
		}
		if il := g.Interleaved; il != nil {
			ctx.BindBuffer(gpu.ArrayBuffer, run.s.buffers[0])
		} else {
			b := ctx.CreateBuffer()
			run.s.buffers = append(run.s.buffers, b)
			ctx.BindBuffer(gpu.ArrayBuffer, b)
			ctx.BufferData(gpu.ArrayBuffer, g.Colors, gpu.StaticDraw)
		}
		ctx.VertexAttribPointer(a)
	}
}

// setupTransform uploads instance matrices, or sets the model uniforms of
// a mesh drawn once. It unbinds the vertex array.
func (run *meshRun) setupTransform() {
	if run.s == nil {
		return
	}
	ctx := run.ctx()
	if run.m.InstanceCount() > 1 {
		run.s.instances = ctx.CreateBuffer()
		ctx.BindBuffer(gpu.ArrayBuffer, run.s.instances)
		ctx.BufferData(gpu.ArrayBuffer, flattenMatrices(run.m.Instances()), gpu.DynamicDraw)
		for col := range uint32(4) {
			ctx.VertexAttribPointer(gpu.Attribute{
				Location: gpu.AttribInstance + col,
				Size:     4,
				Stride:   64,
				Offset:   int(col) * 16,
				Divisor:  1,
			})
		}
		run.s.instanceRev = run.m.Rev()
	} else if run.prog.e != nil {
		run.setModel()
	}
	ctx.BindVertexArray(0)
}

func (run *meshRun) setModel() {
	ctx, u := run.ctx(), run.prog.e
	model := run.m.Matrix()
	ctx.UniformMatrix4(u.Location("uModel"), model)
	ctx.UniformMatrix3(u.Location("uNormalMatrix"), normalMatrix(model))
}

// update refreshes per-mesh state before every draw.
func (run *meshRun) update() {
	ctx, u := run.ctx(), run.prog.e
	if u == nil || run.s == nil {
		return
	}
	if run.m.InstanceCount() > 1 {
		ctx.Uniform1i(u.Location("uInstanced"), 1)
		if run.s.instances != 0 && run.s.instanceRev != run.m.Rev() {
			ctx.BindBuffer(gpu.ArrayBuffer, run.s.instances)
			ctx.BufferData(gpu.ArrayBuffer, flattenMatrices(run.m.Instances()), gpu.DynamicDraw)
			run.s.instanceRev = run.m.Rev()
		}
	} else {
		ctx.Uniform1i(u.Location("uInstanced"), 0)
		run.setModel()
	}
	if !run.m.Geometry.HasColors() {
		ctx.VertexAttrib4f(gpu.AttribColor, 1, 1, 1, 1)
	}

	for _, a := range run.prog.animations {
		if own := meshAnimation(run.m, a.Name()); own != nil {
			own.Update(ctx, u)
		} else {
			a.Disable(ctx, u)
		}
	}
}

func meshAnimation(m *scene.Mesh, name string) scene.Animation {
	for _, a := range m.Animations {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// winding flips the front face for mirroring transforms.
func (run *meshRun) winding() {
	if run.m.Matrix().Det() < 0 {
		run.ctx().FrontFace(gpu.Clockwise)
	} else {
		run.ctx().FrontFace(gpu.CounterClockwise)
	}
}

func (run *meshRun) bind() {
	if run.s != nil {
		run.ctx().BindVertexArray(run.s.vao)
	}
}

func (run *meshRun) draw() {
	if run.s == nil || run.prog.e == nil {
		return
	}
	g := &run.m.Geometry
	if len(g.Indices) > 0 {
		run.ctx().DrawIndexed(run.m.Topology, len(g.Indices), run.m.InstanceCount())
		return
	}
	run.ctx().Draw(run.m.Topology, 0, g.VertexCount(), run.m.InstanceCount())
}

func (run *meshRun) unbind() {
	run.ctx().BindVertexArray(0)
}

func flattenMatrices(ms []mgl32.Mat4) []float32 {
	out := make([]float32, 0, len(ms)*16)
	for _, m := range ms {
		out = append(out, m[:]...)
	}
	return out
}

func normalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	m3 := model.Mat3()
	if m3.Det() == 0 {
		return mgl32.Ident3()
	}
	return m3.Inv().Transpose()
}
