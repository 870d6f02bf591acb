// Package gpu defines the graphics capabilities consumed by the render
// graph. The interfaces model a single-threaded GPU context: every method
// must be called from the goroutine that owns the context.
package gpu

import "github.com/go-gl/mathgl/mgl32"

// Object handles. The zero value of every handle means "no object".
type (
	Program     uint32
	Buffer      uint32
	VertexArray uint32
	Texture     uint32
	Framebuffer uint32
)

// Location identifies a uniform inside a linked program.
// NoLocation is returned for names the program does not use; setting
// a uniform at NoLocation is a no-op.
type Location int32

const NoLocation Location = -1

// BufferTarget selects the binding point of a buffer.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
	UniformBuffer
)

// Usage is a hint describing how often buffer contents change.
type Usage int

const (
	StaticDraw Usage = iota
	DynamicDraw
)

// Topology is the primitive type used by draw calls.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
	Lines
	Points
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case Lines:
		return "lines"
	case Points:
		return "points"
	}
	return "unknown"
}

// DepthFunc is the depth comparison function.
type DepthFunc int

const (
	Less DepthFunc = iota
	LessEqual
	Equal
	Greater
	Always
)

func (f DepthFunc) String() string {
	switch f {
	case Less:
		return "less"
	case LessEqual:
		return "lequal"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	case Always:
		return "always"
	}
	return "unknown"
}

// Winding is the vertex order that defines front-facing polygons.
type Winding int

const (
	CounterClockwise Winding = iota
	Clockwise
)

// Attribute describes one vertex attribute read from the buffer
// currently bound to ArrayBuffer. Stride and Offset are in bytes.
// A Divisor of 1 advances the attribute once per instance.
type Attribute struct {
	Location uint32
	Size     int
	Stride   int
	Offset   int
	Divisor  uint32
}

// Context is the GPU capability set used by the render graph.
//
// Uniform setters apply to the program made current by UseProgram.
// Buffer uploads apply to the buffer bound to the given target.
type Context interface {
	CreateProgram() Program
	// CompileProgram compiles, links and validates the given sources into p.
	// On failure p is left unusable and the returned error carries the
	// driver's info log.
	CompileProgram(p Program, vertex, fragment string) error
	UseProgram(p Program)
	CurrentProgram() Program
	DeleteProgram(p Program)
	UniformLocation(p Program, name string) Location
	UniformBlockBinding(p Program, block string, binding uint32)

	Uniform1i(loc Location, v int32)
	Uniform1f(loc Location, v float32)
	Uniform2f(loc Location, x, y float32)
	Uniform3f(loc Location, x, y, z float32)
	Uniform4f(loc Location, x, y, z, w float32)
	Uniform1fv(loc Location, v []float32)
	UniformMatrix3(loc Location, m mgl32.Mat3)
	UniformMatrix4(loc Location, m mgl32.Mat4)

	CreateBuffer() Buffer
	BindBuffer(target BufferTarget, b Buffer)
	BufferData(target BufferTarget, data []float32, usage Usage)
	BufferElements(data []uint32, usage Usage)
	// BufferSubData replaces part of the bound buffer. offset is in bytes.
	BufferSubData(target BufferTarget, offset int, data []float32)
	BindBufferBase(target BufferTarget, index uint32, b Buffer)
	DeleteBuffer(b Buffer)

	CreateVertexArray() VertexArray
	BindVertexArray(v VertexArray)
	DeleteVertexArray(v VertexArray)
	VertexAttribPointer(a Attribute)
	// VertexAttrib4f sets the constant value used when the attribute has
	// no enabled array.
	VertexAttrib4f(location uint32, x, y, z, w float32)

	// CreateTexture allocates an RGBA8 2D texture. pixels may be nil.
	CreateTexture(width, height int, pixels []byte) Texture
	BindTexture(unit uint32, t Texture)
	DeleteTexture(t Texture)
	// CreateFramebuffer attaches color (and a depth renderbuffer when depth
	// is true) to a new framebuffer.
	CreateFramebuffer(color Texture, depth bool) (Framebuffer, error)
	BindFramebuffer(f Framebuffer)
	DeleteFramebuffer(f Framebuffer)

	DepthFunc() DepthFunc
	SetDepthFunc(f DepthFunc)
	FrontFace(w Winding)
	// Blend toggles straight alpha blending and depth writes (off while
	// blending).
	Blend(enabled bool)
	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear(color, depth bool)

	Draw(t Topology, first, count, instances int)
	DrawIndexed(t Topology, count, instances int)
}

// Fixed attribute locations shared by every generated shader.
const (
	AttribPosition uint32 = 0
	AttribNormal   uint32 = 1
	AttribUV       uint32 = 2
	AttribColor    uint32 = 3
	// AttribInstance is the first of four consecutive locations holding
	// the columns of a per-instance model matrix.
	AttribInstance uint32 = 4
)

// Uniforms resolves uniform names of one linked program.
type Uniforms interface {
	Location(name string) Location
}
