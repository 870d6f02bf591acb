package renderer

import (
	"render-graph/gpu"
	"render-graph/scene"
	"render-graph/shader"
)

// Pass is an auxiliary group of programs rendering into its own targets.
// Passes with a negative Order run before the main programs, the others
// after them.
type Pass interface {
	Order() int
	Programs() []*PassProgram
	// Texture is the pass output, valid once the pass has run.
	Texture() gpu.Texture
}

// PassProgram is one stage of a Pass. Its pointer identifies the program in
// the resource cache, so a pass must return the same *PassProgram values
// from every Programs call.
type PassProgram struct {
	Name   string
	Source shader.Source

	// AllMeshes draws every scene mesh instead of Meshes.
	AllMeshes bool
	Meshes    []*scene.Mesh

	// MapCurrent adopts the program bound when the stage is built instead
	// of compiling Source. The adopted handle is never deleted by this stage.
	MapCurrent bool

	// Init allocates render targets. It runs once when the program is built.
	Init func(ctx gpu.Context) error
	// Setup runs once after Init with the program in use.
	Setup func(ctx gpu.Context, u gpu.Uniforms)
	// Target binds the stage's framebuffer and viewport and clears it.
	Target func(ctx gpu.Context)
	// Update runs every frame before drawing.
	Update func(ctx gpu.Context, u gpu.Uniforms)
	// PreDraw and PostDraw bracket the draw calls of the stage.
	PreDraw  func(ctx gpu.Context)
	PostDraw func(ctx gpu.Context)
	// Release frees what Init allocated. It runs when the stage leaves the
	// render graph or the renderer is released.
	Release func(ctx gpu.Context)
}
