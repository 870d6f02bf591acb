// Package gputest provides a recording gpu.Context that runs without a
// graphics device. It keeps enough state to check bindings, buffer
// contents and resource lifetimes.
package gputest

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"render-graph/gpu"
)

// DrawCall is a snapshot of the bound state taken at every draw.
type DrawCall struct {
	Program     gpu.Program
	VertexArray gpu.VertexArray
	Framebuffer gpu.Framebuffer
	Topology    gpu.Topology
	Count       int
	Instances   int
	Indexed     bool
	Winding     gpu.Winding
	DepthFunc   gpu.DepthFunc
	Blend       bool
}

// Context is an in-memory gpu.Context.
// The zero value is not usable; call NewContext.
type Context struct {
	// Calls lists every method invocation in order, formatted as
	// "Name arg1 arg2".
	Calls []string
	// Draws lists every draw call in order.
	Draws []DrawCall
	// CompileError, when set, is consulted by CompileProgram.
	CompileError func(vertex, fragment string) error

	next uint32

	programs     map[gpu.Program]*program
	buffers      map[gpu.Buffer][]float32
	elements     map[gpu.Buffer][]uint32
	vertexArrays map[gpu.VertexArray]bool
	textures     map[gpu.Texture][2]int
	framebuffers map[gpu.Framebuffer]gpu.Texture

	current   gpu.Program
	vao       gpu.VertexArray
	fb        gpu.Framebuffer
	bound     map[gpu.BufferTarget]gpu.Buffer
	bases     map[uint32]gpu.Buffer
	units     map[uint32]gpu.Texture
	depthFunc gpu.DepthFunc
	winding   gpu.Winding
	blend     bool
	viewport  [4]int
}

type program struct {
	vertex, fragment string
	linked           bool
	locations        map[string]gpu.Location
	names            map[gpu.Location]string
	values           map[string]any
	blocks           map[string]uint32
}

// NewContext returns an empty recording context.
func NewContext() *Context {
	return &Context{
		programs:     make(map[gpu.Program]*program),
		buffers:      make(map[gpu.Buffer][]float32),
		elements:     make(map[gpu.Buffer][]uint32),
		vertexArrays: make(map[gpu.VertexArray]bool),
		textures:     make(map[gpu.Texture][2]int),
		framebuffers: make(map[gpu.Framebuffer]gpu.Texture),
		bound:        make(map[gpu.BufferTarget]gpu.Buffer),
		bases:        make(map[uint32]gpu.Buffer),
		units:        make(map[uint32]gpu.Texture),
	}
}

func (c *Context) record(name string, args ...any) {
	if len(args) == 0 {
		c.Calls = append(c.Calls, name)
		return
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	c.Calls = append(c.Calls, strings.Join(parts, " "))
}

func (c *Context) handle() uint32 {
	c.next++
	return c.next
}

// Count returns how many recorded calls have the given method name.
func (c *Context) Count(name string) int {
	n := 0
	for _, call := range c.Calls {
		if call == name || strings.HasPrefix(call, name+" ") {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls and draws but keeps all GPU state.
func (c *Context) Reset() {
	c.Calls = nil
	c.Draws = nil
}

// LivePrograms returns the number of programs not yet deleted.
func (c *Context) LivePrograms() int { return len(c.programs) }

// LiveVertexArrays returns the number of vertex arrays not yet deleted.
func (c *Context) LiveVertexArrays() int { return len(c.vertexArrays) }

// LiveFramebuffers returns the number of framebuffers not yet deleted.
func (c *Context) LiveFramebuffers() int { return len(c.framebuffers) }

// LiveTextures returns the number of textures not yet deleted.
func (c *Context) LiveTextures() int { return len(c.textures) }

// BufferContents returns a copy of the float data stored in b.
func (c *Context) BufferContents(b gpu.Buffer) []float32 {
	return append([]float32(nil), c.buffers[b]...)
}

// BufferAt returns the buffer bound to a uniform binding point.
func (c *Context) BufferAt(index uint32) gpu.Buffer { return c.bases[index] }

// TextureAt returns the texture bound to a texture unit.
func (c *Context) TextureAt(unit uint32) gpu.Texture { return c.units[unit] }

// ProgramSource returns the sources last compiled into p.
func (c *Context) ProgramSource(p gpu.Program) (vertex, fragment string) {
	if prog, ok := c.programs[p]; ok {
		return prog.vertex, prog.fragment
	}
	return "", ""
}

// Uniform returns the last value set for the named uniform of p.
func (c *Context) Uniform(p gpu.Program, name string) (any, bool) {
	prog, ok := c.programs[p]
	if !ok {
		return nil, false
	}
	v, ok := prog.values[name]
	return v, ok
}

// BlockBinding returns the binding point assigned to a uniform block of p.
func (c *Context) BlockBinding(p gpu.Program, block string) (uint32, bool) {
	prog, ok := c.programs[p]
	if !ok {
		return 0, false
	}
	b, ok := prog.blocks[block]
	return b, ok
}

// BoundVertexArray returns the vertex array currently bound.
func (c *Context) BoundVertexArray() gpu.VertexArray { return c.vao }

// BoundFramebuffer returns the framebuffer currently bound.
func (c *Context) BoundFramebuffer() gpu.Framebuffer { return c.fb }

// CurrentViewport returns the last viewport set.
func (c *Context) CurrentViewport() (x, y, width, height int) {
	return c.viewport[0], c.viewport[1], c.viewport[2], c.viewport[3]
}

// ── Programs ──────────────────────────────────────────────────────────────────

func (c *Context) CreateProgram() gpu.Program {
	p := gpu.Program(c.handle())
	c.programs[p] = &program{
		locations: make(map[string]gpu.Location),
		names:     make(map[gpu.Location]string),
		values:    make(map[string]any),
		blocks:    make(map[string]uint32),
	}
	c.record("CreateProgram", p)
	return p
}

func (c *Context) CompileProgram(p gpu.Program, vertex, fragment string) error {
	c.record("CompileProgram", p)
	prog, ok := c.programs[p]
	if !ok {
		return fmt.Errorf("program %d does not exist", p)
	}
	prog.vertex, prog.fragment = vertex, fragment
	if c.CompileError != nil {
		if err := c.CompileError(vertex, fragment); err != nil {
			prog.linked = false
			return err
		}
	}
	prog.linked = true
	return nil
}

func (c *Context) UseProgram(p gpu.Program) {
	c.record("UseProgram", p)
	c.current = p
}

func (c *Context) CurrentProgram() gpu.Program { return c.current }

func (c *Context) DeleteProgram(p gpu.Program) {
	c.record("DeleteProgram", p)
	delete(c.programs, p)
	if c.current == p {
		c.current = 0
	}
}

func (c *Context) UniformLocation(p gpu.Program, name string) gpu.Location {
	c.record("UniformLocation", p, name)
	prog, ok := c.programs[p]
	if !ok {
		return gpu.NoLocation
	}
	if loc, ok := prog.locations[name]; ok {
		return loc
	}
	loc := gpu.Location(len(prog.locations))
	prog.locations[name] = loc
	prog.names[loc] = name
	return loc
}

func (c *Context) UniformBlockBinding(p gpu.Program, block string, binding uint32) {
	c.record("UniformBlockBinding", p, block, binding)
	if prog, ok := c.programs[p]; ok {
		prog.blocks[block] = binding
	}
}

func (c *Context) setUniform(name string, loc gpu.Location, v any) {
	c.record(name, loc)
	if loc == gpu.NoLocation {
		return
	}
	prog, ok := c.programs[c.current]
	if !ok {
		return
	}
	if n, ok := prog.names[loc]; ok {
		prog.values[n] = v
	}
}

func (c *Context) Uniform1i(loc gpu.Location, v int32)   { c.setUniform("Uniform1i", loc, v) }
func (c *Context) Uniform1f(loc gpu.Location, v float32) { c.setUniform("Uniform1f", loc, v) }

func (c *Context) Uniform2f(loc gpu.Location, x, y float32) {
	c.setUniform("Uniform2f", loc, mgl32.Vec2{x, y})
}

func (c *Context) Uniform3f(loc gpu.Location, x, y, z float32) {
	c.setUniform("Uniform3f", loc, mgl32.Vec3{x, y, z})
}

func (c *Context) Uniform4f(loc gpu.Location, x, y, z, w float32) {
	c.setUniform("Uniform4f", loc, mgl32.Vec4{x, y, z, w})
}

func (c *Context) Uniform1fv(loc gpu.Location, v []float32) {
	c.setUniform("Uniform1fv", loc, append([]float32(nil), v...))
}

func (c *Context) UniformMatrix3(loc gpu.Location, m mgl32.Mat3) {
	c.setUniform("UniformMatrix3", loc, m)
}

func (c *Context) UniformMatrix4(loc gpu.Location, m mgl32.Mat4) {
	c.setUniform("UniformMatrix4", loc, m)
}

// ── Buffers ───────────────────────────────────────────────────────────────────

func (c *Context) CreateBuffer() gpu.Buffer {
	b := gpu.Buffer(c.handle())
	c.buffers[b] = nil
	c.record("CreateBuffer", b)
	return b
}

func (c *Context) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	c.record("BindBuffer", target, b)
	c.bound[target] = b
}

func (c *Context) BufferData(target gpu.BufferTarget, data []float32, usage gpu.Usage) {
	b := c.bound[target]
	c.record("BufferData", b, len(data))
	c.buffers[b] = append([]float32(nil), data...)
}

func (c *Context) BufferElements(data []uint32, usage gpu.Usage) {
	b := c.bound[gpu.ElementArrayBuffer]
	c.record("BufferElements", b, len(data))
	c.elements[b] = append([]uint32(nil), data...)
}

func (c *Context) BufferSubData(target gpu.BufferTarget, offset int, data []float32) {
	b := c.bound[target]
	c.record("BufferSubData", b, offset, len(data))
	buf := c.buffers[b]
	start := offset / 4
	if start+len(data) > len(buf) {
		panic(fmt.Sprintf("gputest: BufferSubData out of range: %d+%d > %d", start, len(data), len(buf)))
	}
	copy(buf[start:], data)
}

func (c *Context) BindBufferBase(target gpu.BufferTarget, index uint32, b gpu.Buffer) {
	c.record("BindBufferBase", index, b)
	c.bound[target] = b
	c.bases[index] = b
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	c.record("DeleteBuffer", b)
	delete(c.buffers, b)
	delete(c.elements, b)
}

// ── Vertex arrays ─────────────────────────────────────────────────────────────

func (c *Context) CreateVertexArray() gpu.VertexArray {
	v := gpu.VertexArray(c.handle())
	c.vertexArrays[v] = true
	c.record("CreateVertexArray", v)
	return v
}

func (c *Context) BindVertexArray(v gpu.VertexArray) {
	c.record("BindVertexArray", v)
	c.vao = v
}

func (c *Context) DeleteVertexArray(v gpu.VertexArray) {
	c.record("DeleteVertexArray", v)
	delete(c.vertexArrays, v)
	if c.vao == v {
		c.vao = 0
	}
}

func (c *Context) VertexAttribPointer(a gpu.Attribute) {
	c.record("VertexAttribPointer", a.Location, a.Size, a.Stride, a.Offset, a.Divisor)
}

func (c *Context) VertexAttrib4f(location uint32, x, y, z, w float32) {
	c.record("VertexAttrib4f", location)
}

// ── Textures and framebuffers ─────────────────────────────────────────────────

func (c *Context) CreateTexture(width, height int, pixels []byte) gpu.Texture {
	t := gpu.Texture(c.handle())
	c.textures[t] = [2]int{width, height}
	c.record("CreateTexture", t, width, height)
	return t
}

func (c *Context) BindTexture(unit uint32, t gpu.Texture) {
	c.record("BindTexture", unit, t)
	c.units[unit] = t
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	c.record("DeleteTexture", t)
	delete(c.textures, t)
}

// TextureSize returns the dimensions of a live texture.
func (c *Context) TextureSize(t gpu.Texture) (width, height int) {
	s := c.textures[t]
	return s[0], s[1]
}

func (c *Context) CreateFramebuffer(color gpu.Texture, depth bool) (gpu.Framebuffer, error) {
	if _, ok := c.textures[color]; !ok {
		return 0, fmt.Errorf("texture %d does not exist", color)
	}
	f := gpu.Framebuffer(c.handle())
	c.framebuffers[f] = color
	c.record("CreateFramebuffer", f, color, depth)
	return f, nil
}

func (c *Context) BindFramebuffer(f gpu.Framebuffer) {
	c.record("BindFramebuffer", f)
	c.fb = f
}

func (c *Context) DeleteFramebuffer(f gpu.Framebuffer) {
	c.record("DeleteFramebuffer", f)
	delete(c.framebuffers, f)
	if c.fb == f {
		c.fb = 0
	}
}

// ── State ─────────────────────────────────────────────────────────────────────

func (c *Context) DepthFunc() gpu.DepthFunc { return c.depthFunc }

func (c *Context) SetDepthFunc(f gpu.DepthFunc) {
	c.record("SetDepthFunc", f)
	c.depthFunc = f
}

func (c *Context) FrontFace(w gpu.Winding) {
	c.record("FrontFace", w)
	c.winding = w
}

func (c *Context) Blend(enabled bool) {
	c.record("Blend", enabled)
	c.blend = enabled
}

func (c *Context) Viewport(x, y, width, height int) {
	c.record("Viewport", x, y, width, height)
	c.viewport = [4]int{x, y, width, height}
}

func (c *Context) ClearColor(r, g, b, a float32) { c.record("ClearColor", r, g, b, a) }

func (c *Context) Clear(color, depth bool) { c.record("Clear", color, depth) }

// ── Draw ──────────────────────────────────────────────────────────────────────

func (c *Context) Draw(t gpu.Topology, first, count, instances int) {
	c.record("Draw", t, count, instances)
	c.draw(t, count, instances, false)
}

func (c *Context) DrawIndexed(t gpu.Topology, count, instances int) {
	c.record("DrawIndexed", t, count, instances)
	c.draw(t, count, instances, true)
}

func (c *Context) draw(t gpu.Topology, count, instances int, indexed bool) {
	c.Draws = append(c.Draws, DrawCall{
		Program:     c.current,
		VertexArray: c.vao,
		Framebuffer: c.fb,
		Topology:    t,
		Count:       count,
		Instances:   instances,
		Indexed:     indexed,
		Winding:     c.winding,
		DepthFunc:   c.depthFunc,
		Blend:       c.blend,
	})
}

var _ gpu.Context = (*Context)(nil)
