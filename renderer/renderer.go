// Package renderer compiles a scene into an ordered list of GPU operations
// and drives it frame by frame.
//
// The render graph is recompiled only when a tracked revision changes. GPU
// programs and vertex arrays live in a ResourceCache that persists across
// compiles, so a recompile reuses everything whose identity survived.
package renderer

import (
	"hash/maphash"
	"slices"
	"time"

	"go.uber.org/zap"

	"render-graph/core"
	"render-graph/gpu"
	"render-graph/internal/logger"
	"render-graph/scene"
)

// SetLogger replaces the logger used by the renderer and the packages it
// drives. nil restores the silent default.
func SetLogger(l *zap.Logger) {
	logger.Set(l)
}

// Renderer owns the render graph of one scene on one GPU context.
// It must be used from the goroutine that owns the context.
type Renderer struct {
	ctx    gpu.Context
	scene  *scene.Scene
	camera *scene.Camera

	enabled      bool
	width        int
	height       int
	background   core.Color
	ambient      core.Color
	toneMappings []ToneMapping
	passes       []Pass
	loop         func(time.Duration)

	rev       uint64
	shaderRev uint64

	cache          *ResourceCache
	lights         *LightBuffer
	lightsBuilt    bool
	builtLightsRev uint64
	pendingLights  []*scene.Light

	now  time.Duration
	seed maphash.Seed

	groups        memo[groupKey, graph]
	groupsVersion uint64
	pipeline      memo[pipelineKey, Pipeline]
	programs      []*Program
}

type groupKey struct {
	renderer    uint64
	scene       uint64
	camera      uint64
	materials   uint64
	transparent uint64
	// meshes hashes the material identity and special-ness of every
	// mesh in scene order.
	meshes uint64
}

// graph is the grouped scene: programs in compile order and the
// transparent meshes in draw order.
type graph struct {
	programs []*Program
	blended  []blendedDraw
}

type pipelineKey struct {
	groups     uint64
	lights     uint64
	generation uint64
	shaders    uint64
	materials  uint64
}

// New returns an enabled renderer drawing s from camera.
func New(ctx gpu.Context, s *scene.Scene, camera *scene.Camera) *Renderer {
	return &Renderer{
		ctx:        ctx,
		scene:      s,
		camera:     camera,
		enabled:    true,
		width:      1280,
		height:     720,
		background: core.ColorBlack,
		ambient:    core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
		cache:      NewResourceCache(ctx),
		lights:     NewLightBuffer(ctx),
		seed:       maphash.MakeSeed(),
	}
}

func (r *Renderer) Context() gpu.Context        { return r.ctx }
func (r *Renderer) Scene() *scene.Scene         { return r.scene }
func (r *Renderer) Camera() *scene.Camera       { return r.camera }
func (r *Renderer) Cache() *ResourceCache       { return r.cache }
func (r *Renderer) Lights() *LightBuffer        { return r.lights }
func (r *Renderer) Enabled() bool               { return r.enabled }
func (r *Renderer) Loop() func(time.Duration)   { return r.loop }
func (r *Renderer) Programs() []*Program        { return r.programs }
func (r *Renderer) Canvas() (width, height int) { return r.width, r.height }

// SetEnabled turns rendering on or off. A disabled renderer compiles an
// empty pipeline.
func (r *Renderer) SetEnabled(v bool) {
	if r.enabled != v {
		r.enabled = v
		r.rev++
	}
}

// SetCanvas sets the size of the default framebuffer.
func (r *Renderer) SetCanvas(width, height int) {
	r.width, r.height = width, height
}

func (r *Renderer) SetBackground(c core.Color) { r.background = c }

// SetAmbient sets the ambient light added to every material.
func (r *Renderer) SetAmbient(c core.Color) { r.ambient = c }

// SetToneMapping replaces the tone mapping list. Every material program is
// rebuilt on the next frame.
func (r *Renderer) SetToneMapping(tms ...ToneMapping) {
	r.toneMappings = slices.Clone(tms)
	r.shaderRev++
	r.rev++
}

// SetCamera replaces the camera.
func (r *Renderer) SetCamera(c *scene.Camera) {
	r.camera = c
	r.rev++
}

// SetLoop sets the callback run at the start of every tick, before the
// pipeline executes. It may mutate the scene, camera and lights.
func (r *Renderer) SetLoop(fn func(time.Duration)) { r.loop = fn }

// AddPass adds an auxiliary pass.
func (r *Renderer) AddPass(p Pass) {
	r.passes = append(r.passes, p)
	r.rev++
}

// RemovePass removes a pass. Its programs and targets are released on the
// next compile.
func (r *Renderer) RemovePass(p Pass) {
	if i := slices.Index(r.passes, p); i >= 0 {
		r.passes = slices.Delete(r.passes, i, i+1)
		r.rev++
	}
}

// SetTime sets the value of the time uniform for the next executed frame.
func (r *Renderer) SetTime(t time.Duration) { r.now = t }

// UpdateLight queues an incremental upload of one light. It is applied by
// the first operation of the next executed pipeline. Adding or removing
// lights goes through the scene instead, which rebuilds the whole buffer.
func (r *Renderer) UpdateLight(l *scene.Light) {
	if !slices.Contains(r.pendingLights, l) {
		r.pendingLights = append(r.pendingLights, l)
	}
}

// Pipeline returns the operation list for the current state, recompiling
// only when a tracked revision changed since the previous call.
func (r *Renderer) Pipeline() Pipeline {
	g, changed := r.groups.get(r.groupKey(), func(prev graph) (graph, bool) {
		next := r.group()
		return next, !sameGraph(prev, next)
	})
	if changed {
		r.groupsVersion++
	}

	key := pipelineKey{
		groups:     r.groupsVersion,
		lights:     r.scene.LightsRev(),
		generation: r.cache.Generation(),
		shaders:    r.shaderRev,
		materials:  r.materialShaderSum(),
	}
	p, _ := r.pipeline.get(key, func(Pipeline) (Pipeline, bool) {
		r.programs = g.programs
		return r.compile(g), true
	})
	return p
}

// Release frees every GPU resource held by the renderer.
func (r *Renderer) Release() {
	r.cache.Release()
	r.lights.Release()
	r.lightsBuilt = false
	r.groups.reset()
	r.pipeline.reset()
	r.programs = nil
	logger.Log.Info("renderer released")
}

func (r *Renderer) groupKey() groupKey {
	k := groupKey{
		renderer: r.rev,
		scene:    r.scene.Rev(),
		camera:   r.camera.Rev(),
	}
	for _, m := range r.scene.Materials() {
		k.materials += m.Rev()
	}
	var h maphash.Hash
	h.SetSeed(r.seed)
	for _, m := range r.scene.Meshes() {
		maphash.WriteComparable(&h, m.Material)
		if m.Special() {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
		if m.Material == nil {
			continue
		}
		k.materials += m.Material.Rev()
		if m.Material.IsTransparent() {
			k.transparent += m.Rev()
		}
	}
	k.meshes = h.Sum64()
	return k
}

func (r *Renderer) materialShaderSum() uint64 {
	var sum uint64
	for _, m := range r.scene.Meshes() {
		if m.Material != nil {
			sum += m.Material.ShaderRev()
		}
	}
	return sum
}

// group builds the program list: negative-order passes, the main
// programs, then the remaining passes.
func (r *Renderer) group() graph {
	if !r.enabled {
		return graph{}
	}
	main := groupPrograms(r.scene)
	if len(main) == 0 {
		return graph{}
	}
	blended := sortTransparent(main, r.camera.ViewProjection())

	passes := slices.Clone(r.passes)
	slices.SortStableFunc(passes, func(a, b Pass) int { return a.Order() - b.Order() })

	var pre, post []*Program
	for _, pass := range passes {
		for _, pp := range pass.Programs() {
			p := &Program{Pass: pp, Meshes: pp.Meshes}
			if pp.AllMeshes {
				p.Meshes = slices.Clone(r.scene.Meshes())
			}
			if pass.Order() < 0 {
				pre = append(pre, p)
			} else {
				post = append(post, p)
			}
		}
	}
	return graph{programs: slices.Concat(pre, main, post), blended: blended}
}

// syncLights rebuilds the light buffer when the light list changed and
// flushes queued single-light updates.
func (r *Renderer) syncLights() {
	if !r.lightsBuilt || r.builtLightsRev != r.scene.LightsRev() {
		r.lights.Build(r.scene.Lights())
		r.lightsBuilt = true
		r.builtLightsRev = r.scene.LightsRev()
		r.pendingLights = r.pendingLights[:0]
		return
	}
	for _, l := range r.pendingLights {
		if !r.lights.UpdateOne(r.scene.Lights(), l) {
			logger.Log.Debug("light update skipped: not a packed point light")
		}
	}
	r.pendingLights = r.pendingLights[:0]
}

// clear prepares the default framebuffer for the main programs.
func (r *Renderer) clear() {
	r.ctx.BindFramebuffer(0)
	r.ctx.Viewport(0, 0, r.width, r.height)
	bg := r.background
	r.ctx.ClearColor(bg.R, bg.G, bg.B, bg.A)
	r.ctx.Clear(true, true)
}
