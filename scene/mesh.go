package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"render-graph/gpu"
)

// Mesh is one drawable: geometry, a material and one or more model matrices.
// The renderer keys GPU state on the *Mesh pointer.
type Mesh struct {
	Name       string
	Geometry   Geometry
	Topology   gpu.Topology // defaults to gpu.Triangles
	Material   *Material
	Animations []Animation

	matrices  []mgl32.Mat4
	instanced bool
	rev       uint64
}

func NewMesh(name string, geometry Geometry, material *Material) *Mesh {
	return &Mesh{
		Name:     name,
		Geometry: geometry,
		Material: material,
	}
}

// SetMatrix sets a single model matrix.
func (m *Mesh) SetMatrix(mat mgl32.Mat4) {
	m.matrices = []mgl32.Mat4{mat}
	m.instanced = false
	m.rev++
}

// SetInstances draws the mesh once per matrix.
func (m *Mesh) SetInstances(mats []mgl32.Mat4) {
	m.matrices = append(m.matrices[:0:0], mats...)
	m.instanced = true
	m.rev++
}

// SetInstance replaces the matrix of one instance.
func (m *Mesh) SetInstance(i int, mat mgl32.Mat4) {
	m.matrices[i] = mat
	m.rev++
}

// HasMatrix reports whether a matrix was ever assigned.
func (m *Mesh) HasMatrix() bool { return len(m.matrices) > 0 }

// Matrix returns the model matrix (the first instance for instanced
// meshes) or identity.
func (m *Mesh) Matrix() mgl32.Mat4 {
	if len(m.matrices) == 0 {
		return mgl32.Ident4()
	}
	return m.matrices[0]
}

// Instances returns the per-instance matrices. The slice must not be
// modified.
func (m *Mesh) Instances() []mgl32.Mat4 { return m.matrices }

// Instanced reports whether SetInstances was used.
func (m *Mesh) Instanced() bool { return m.instanced }

// InstanceCount is 1 for non-instanced meshes.
func (m *Mesh) InstanceCount() int {
	if !m.instanced {
		return 1
	}
	return len(m.matrices)
}

// Translation returns the world-space origin of the mesh.
func (m *Mesh) Translation() mgl32.Vec3 {
	return m.Matrix().Col(3).Vec3()
}

// Rev increases on every matrix change.
func (m *Mesh) Rev() uint64 { return m.rev }

// HasVertexAnimation reports whether any animation runs in the vertex stage.
func (m *Mesh) HasVertexAnimation() bool {
	for _, a := range m.Animations {
		if a.Kind() == AnimationVertex {
			return true
		}
	}
	return false
}

// Special reports whether the mesh needs a program of its own.
func (m *Mesh) Special() bool {
	return m.InstanceCount() > 1 || m.HasVertexAnimation()
}

// RequiresTime reports whether any animation reads the time uniform.
func (m *Mesh) RequiresTime() bool {
	for _, a := range m.Animations {
		if a.RequiresTime() {
			return true
		}
	}
	return false
}
