package renderer

import (
	"go.uber.org/zap"

	"render-graph/gpu"
	"render-graph/internal/logger"
	"render-graph/scene"
)

// signature captures everything a built program's shader depends on besides
// its identity. A cached program whose signature differs is rebuilt.
type signature struct {
	lightCount  int
	shaderRev   uint64
	materialRev uint64
}

// meshState is the GPU state of one mesh under one program.
type meshState struct {
	vao         gpu.VertexArray
	buffers     []gpu.Buffer
	instances   gpu.Buffer
	instanceRev uint64
}

type cacheEntry struct {
	ctx       gpu.Context
	handle    gpu.Program
	borrowed  bool
	signature signature
	meshes    map[*scene.Mesh]*meshState
	uniforms  map[string]gpu.Location
	pass      *PassProgram
	passReady bool
}

// Location implements gpu.Uniforms with a per-program location cache.
func (e *cacheEntry) Location(name string) gpu.Location {
	if loc, ok := e.uniforms[name]; ok {
		return loc
	}
	loc := e.ctx.UniformLocation(e.handle, name)
	e.uniforms[name] = loc
	return loc
}

// ResourceCache maps program identities to GPU programs and vertex arrays.
// It survives across compiles; Reconcile moves state from a previous
// Program value to the current one and Evict releases what left the graph.
type ResourceCache struct {
	ctx        gpu.Context
	entries    map[*Program]*cacheEntry
	byKey      map[programKey]*Program
	generation uint64
}

func NewResourceCache(ctx gpu.Context) *ResourceCache {
	return &ResourceCache{
		ctx:     ctx,
		entries: make(map[*Program]*cacheEntry),
		byKey:   make(map[programKey]*Program),
	}
}

// Generation increases whenever GPU state is added to the cache.
func (c *ResourceCache) Generation() uint64 { return c.generation }

// Len returns the number of cached programs.
func (c *ResourceCache) Len() int { return len(c.entries) }

// Handle returns the GPU program cached for p.
func (c *ResourceCache) Handle(p *Program) (gpu.Program, bool) {
	e, ok := c.entries[p]
	if !ok {
		return 0, false
	}
	return e.handle, true
}

// VertexArray returns the vertex array cached for mesh under p.
func (c *ResourceCache) VertexArray(p *Program, mesh *scene.Mesh) (gpu.VertexArray, bool) {
	e, ok := c.entries[p]
	if !ok {
		return 0, false
	}
	ms, ok := e.meshes[mesh]
	if !ok {
		return 0, false
	}
	return ms.vao, true
}

// adopt reconciles p with the previous Program of the same identity.
func (c *ResourceCache) adopt(p *Program) {
	if old, ok := c.byKey[p.key()]; ok && old != p {
		c.Reconcile(old, p)
	}
}

// Reconcile transplants the GPU program and vertex arrays cached for old
// onto next and forgets old. A missing entry is not an error: next then
// goes through the normal creation path.
func (c *ResourceCache) Reconcile(old, next *Program) {
	e, ok := c.entries[old]
	if !ok {
		return
	}
	delete(c.entries, old)
	c.entries[next] = e
	c.byKey[next.key()] = next
	logger.Log.Debug("program reconciled", zap.String("program", next.Label()))
}

// Evict releases every cached program whose identity is not in current,
// and every vertex array whose mesh left its program.
func (c *ResourceCache) Evict(current []*Program) {
	live := make(map[programKey]*Program, len(current))
	for _, p := range current {
		live[p.key()] = p
	}
	for p, e := range c.entries {
		cur, ok := live[p.key()]
		if !ok || cur != p {
			c.release(p, e)
			continue
		}
		keep := make(map[*scene.Mesh]bool, len(cur.Meshes))
		for _, m := range cur.Meshes {
			keep[m] = true
		}
		for m, ms := range e.meshes {
			if !keep[m] {
				c.releaseMesh(ms)
				delete(e.meshes, m)
				logger.Log.Debug("vertex array evicted", zap.String("program", p.Label()), zap.String("mesh", m.Name))
			}
		}
	}
}

// Release frees everything.
func (c *ResourceCache) Release() {
	for p, e := range c.entries {
		c.release(p, e)
	}
}

func (c *ResourceCache) release(p *Program, e *cacheEntry) {
	for _, ms := range e.meshes {
		c.releaseMesh(ms)
	}
	if !e.borrowed && e.handle != 0 {
		c.ctx.DeleteProgram(e.handle)
	}
	if e.pass != nil && e.passReady && e.pass.Release != nil {
		e.pass.Release(c.ctx)
	}
	delete(c.entries, p)
	if c.byKey[p.key()] == p {
		delete(c.byKey, p.key())
	}
	logger.Log.Debug("program evicted", zap.String("program", p.Label()))
}

func (c *ResourceCache) releaseMesh(ms *meshState) {
	c.ctx.DeleteVertexArray(ms.vao)
	for _, b := range ms.buffers {
		c.ctx.DeleteBuffer(b)
	}
	if ms.instances != 0 {
		c.ctx.DeleteBuffer(ms.instances)
	}
}

// store records a freshly created GPU program for p. A previous handle for
// p is deleted; its vertex arrays are kept because attribute locations are
// fixed across programs.
func (c *ResourceCache) store(p *Program, handle gpu.Program, borrowed bool, sig signature) *cacheEntry {
	e, ok := c.entries[p]
	if ok {
		if !e.borrowed && e.handle != 0 && e.handle != handle {
			c.ctx.DeleteProgram(e.handle)
		}
	} else {
		e = &cacheEntry{
			ctx:    c.ctx,
			meshes: make(map[*scene.Mesh]*meshState),
			pass:   p.Pass,
		}
		c.entries[p] = e
	}
	e.handle = handle
	e.borrowed = borrowed
	e.signature = sig
	e.uniforms = make(map[string]gpu.Location)
	c.byKey[p.key()] = p
	c.generation++
	return e
}

// storeMesh records the vertex array created for mesh under p.
func (c *ResourceCache) storeMesh(p *Program, mesh *scene.Mesh, ms *meshState) {
	e, ok := c.entries[p]
	if !ok {
		return
	}
	e.meshes[mesh] = ms
	c.generation++
}

// drop forgets p after a failed setup so that the next compile builds it
// again.
func (c *ResourceCache) drop(p *Program) {
	if e, ok := c.entries[p]; ok {
		c.release(p, e)
		c.generation++
	}
}

func (c *ResourceCache) entry(p *Program) *cacheEntry {
	return c.entries[p]
}
