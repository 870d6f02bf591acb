// Package opengl implements gpu.Context on an OpenGL 4.1 core profile.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"render-graph/gpu"
	"render-graph/internal/logger"
)

// Context issues GL calls on the thread that owns the current GL context.
type Context struct {
	depthFunc gpu.DepthFunc

	textureSizes  map[gpu.Texture][2]int32
	renderbuffers map[gpu.Framebuffer]uint32
}

// NewContext loads GL function pointers. A GL context must be current.
func NewContext() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	return &Context{
		depthFunc:     gpu.Less,
		textureSizes:  make(map[gpu.Texture][2]int32),
		renderbuffers: make(map[gpu.Framebuffer]uint32),
	}, nil
}

var _ gpu.Context = (*Context)(nil)

// ── Programs ──────────────────────────────────────────────────────────────────

func (c *Context) CreateProgram() gpu.Program  { return gpu.Program(gl.CreateProgram()) }
func (c *Context) UseProgram(p gpu.Program)    { gl.UseProgram(uint32(p)) }
func (c *Context) DeleteProgram(p gpu.Program) { gl.DeleteProgram(uint32(p)) }

func (c *Context) CurrentProgram() gpu.Program {
	var p int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &p)
	return gpu.Program(p)
}

func (c *Context) CompileProgram(p gpu.Program, vertex, fragment string) error {
	vert, err := compileShader(vertex, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("vertex: %w", err)
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return fmt.Errorf("fragment: %w", err)
	}
	defer gl.DeleteShader(frag)

	prog := uint32(p)
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DetachShader(prog, vert)
	gl.DetachShader(prog, frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}
	return nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (c *Context) UniformLocation(p gpu.Program, name string) gpu.Location {
	return gpu.Location(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *Context) UniformBlockBinding(p gpu.Program, block string, binding uint32) {
	idx := gl.GetUniformBlockIndex(uint32(p), gl.Str(block+"\x00"))
	if idx == gl.INVALID_INDEX {
		return
	}
	gl.UniformBlockBinding(uint32(p), idx, binding)
}

// ── Uniforms ──────────────────────────────────────────────────────────────────

func (c *Context) Uniform1i(loc gpu.Location, v int32)         { gl.Uniform1i(int32(loc), v) }
func (c *Context) Uniform1f(loc gpu.Location, v float32)       { gl.Uniform1f(int32(loc), v) }
func (c *Context) Uniform2f(loc gpu.Location, x, y float32)    { gl.Uniform2f(int32(loc), x, y) }
func (c *Context) Uniform3f(loc gpu.Location, x, y, z float32) { gl.Uniform3f(int32(loc), x, y, z) }

func (c *Context) Uniform4f(loc gpu.Location, x, y, z, w float32) {
	gl.Uniform4f(int32(loc), x, y, z, w)
}

func (c *Context) Uniform1fv(loc gpu.Location, v []float32) {
	if len(v) == 0 {
		return
	}
	gl.Uniform1fv(int32(loc), int32(len(v)), &v[0])
}

func (c *Context) UniformMatrix3(loc gpu.Location, m mgl32.Mat3) {
	gl.UniformMatrix3fv(int32(loc), 1, false, &m[0])
}

func (c *Context) UniformMatrix4(loc gpu.Location, m mgl32.Mat4) {
	gl.UniformMatrix4fv(int32(loc), 1, false, &m[0])
}

// ── Buffers ───────────────────────────────────────────────────────────────────

func bufferTarget(t gpu.BufferTarget) uint32 {
	switch t {
	case gpu.ElementArrayBuffer:
		return gl.ELEMENT_ARRAY_BUFFER
	case gpu.UniformBuffer:
		return gl.UNIFORM_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func bufferUsage(u gpu.Usage) uint32 {
	if u == gpu.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func (c *Context) CreateBuffer() gpu.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return gpu.Buffer(b)
}

func (c *Context) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	gl.BindBuffer(bufferTarget(target), uint32(b))
}

func (c *Context) BufferData(target gpu.BufferTarget, data []float32, usage gpu.Usage) {
	if len(data) == 0 {
		gl.BufferData(bufferTarget(target), 0, nil, bufferUsage(usage))
		return
	}
	gl.BufferData(bufferTarget(target), len(data)*4, gl.Ptr(data), bufferUsage(usage))
}

func (c *Context) BufferElements(data []uint32, usage gpu.Usage) {
	if len(data) == 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 0, nil, bufferUsage(usage))
		return
	}
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*4, gl.Ptr(data), bufferUsage(usage))
}

func (c *Context) BufferSubData(target gpu.BufferTarget, offset int, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(bufferTarget(target), offset, len(data)*4, gl.Ptr(data))
}

func (c *Context) BindBufferBase(target gpu.BufferTarget, index uint32, b gpu.Buffer) {
	gl.BindBufferBase(bufferTarget(target), index, uint32(b))
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

// ── Vertex arrays ─────────────────────────────────────────────────────────────

func (c *Context) CreateVertexArray() gpu.VertexArray {
	var v uint32
	gl.GenVertexArrays(1, &v)
	return gpu.VertexArray(v)
}

func (c *Context) BindVertexArray(v gpu.VertexArray) { gl.BindVertexArray(uint32(v)) }

func (c *Context) DeleteVertexArray(v gpu.VertexArray) {
	id := uint32(v)
	gl.DeleteVertexArrays(1, &id)
}

func (c *Context) VertexAttribPointer(a gpu.Attribute) {
	gl.EnableVertexAttribArray(a.Location)
	gl.VertexAttribPointer(a.Location, int32(a.Size), gl.FLOAT, false, int32(a.Stride), gl.PtrOffset(a.Offset))
	gl.VertexAttribDivisor(a.Location, a.Divisor)
}

func (c *Context) VertexAttrib4f(location uint32, x, y, z, w float32) {
	gl.DisableVertexAttribArray(location)
	gl.VertexAttrib4f(location, x, y, z, w)
}

// ── Textures and framebuffers ─────────────────────────────────────────────────

// CreateTexture uploads pixels with mipmaps and repeat wrapping. Without
// pixels it allocates a clamped render target.
func (c *Context) CreateTexture(width, height int, pixels []byte) gpu.Texture {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	var data unsafe.Pointer
	if len(pixels) > 0 {
		data = unsafe.Pointer(&pixels[0])
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, data)
	if data != nil {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	t := gpu.Texture(id)
	c.textureSizes[t] = [2]int32{int32(width), int32(height)}
	return t
}

func (c *Context) BindTexture(unit uint32, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
	delete(c.textureSizes, t)
}

func (c *Context) CreateFramebuffer(color gpu.Texture, depth bool) (gpu.Framebuffer, error) {
	size, ok := c.textureSizes[color]
	if !ok {
		return 0, fmt.Errorf("framebuffer color texture %d was not created by this context", color)
	}

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(color), 0)

	var rbo uint32
	if depth {
		gl.GenRenderbuffers(1, &rbo)
		gl.BindRenderbuffer(gl.RENDERBUFFER, rbo)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, size[0], size[1])
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rbo)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		if rbo != 0 {
			gl.DeleteRenderbuffers(1, &rbo)
		}
		return 0, fmt.Errorf("framebuffer incomplete: status=0x%X", status)
	}

	f := gpu.Framebuffer(fbo)
	if rbo != 0 {
		c.renderbuffers[f] = rbo
	}
	return f, nil
}

func (c *Context) BindFramebuffer(f gpu.Framebuffer) { gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f)) }

func (c *Context) DeleteFramebuffer(f gpu.Framebuffer) {
	if rbo, ok := c.renderbuffers[f]; ok {
		gl.DeleteRenderbuffers(1, &rbo)
		delete(c.renderbuffers, f)
	}
	id := uint32(f)
	gl.DeleteFramebuffers(1, &id)
}

// ── State and draws ───────────────────────────────────────────────────────────

var depthFuncs = map[gpu.DepthFunc]uint32{
	gpu.Less:      gl.LESS,
	gpu.LessEqual: gl.LEQUAL,
	gpu.Equal:     gl.EQUAL,
	gpu.Greater:   gl.GREATER,
	gpu.Always:    gl.ALWAYS,
}

func (c *Context) DepthFunc() gpu.DepthFunc { return c.depthFunc }

func (c *Context) SetDepthFunc(f gpu.DepthFunc) {
	c.depthFunc = f
	gl.DepthFunc(depthFuncs[f])
}

func (c *Context) FrontFace(w gpu.Winding) {
	if w == gpu.Clockwise {
		gl.FrontFace(gl.CW)
		return
	}
	gl.FrontFace(gl.CCW)
}

func (c *Context) Blend(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
		gl.DepthMask(false)
		return
	}
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
}

func (c *Context) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (c *Context) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (c *Context) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
		// Clearing depth is a no-op while depth writes are masked.
		gl.DepthMask(true)
	}
	gl.Clear(mask)
}

func primitive(t gpu.Topology) uint32 {
	switch t {
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.Lines:
		return gl.LINES
	case gpu.Points:
		return gl.POINTS
	}
	return gl.TRIANGLES
}

func (c *Context) Draw(t gpu.Topology, first, count, instances int) {
	if instances > 1 {
		gl.DrawArraysInstanced(primitive(t), int32(first), int32(count), int32(instances))
		return
	}
	gl.DrawArrays(primitive(t), int32(first), int32(count))
}

func (c *Context) DrawIndexed(t gpu.Topology, count, instances int) {
	if instances > 1 {
		gl.DrawElementsInstanced(primitive(t), int32(count), gl.UNSIGNED_INT, nil, int32(instances))
		return
	}
	gl.DrawElements(primitive(t), int32(count), gl.UNSIGNED_INT, nil)
}
