package scene

import "slices"

// Scene is the flat collection of meshes, materials and lights the renderer
// compiles. Every structural mutation bumps Rev; light list mutations also
// bump LightsRev.
type Scene struct {
	meshes    []*Mesh
	materials []*Material
	lights    []*Light

	rev       uint64
	lightsRev uint64
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) Meshes() []*Mesh        { return s.meshes }
func (s *Scene) Materials() []*Material { return s.materials }
func (s *Scene) Lights() []*Light       { return s.lights }
func (s *Scene) Rev() uint64            { return s.rev }
func (s *Scene) LightsRev() uint64      { return s.lightsRev }

// Add appends meshes.
func (s *Scene) Add(meshes ...*Mesh) {
	s.meshes = append(s.meshes, meshes...)
	s.rev++
}

// Remove drops a mesh. Its GPU state is released on the next compile.
func (s *Scene) Remove(mesh *Mesh) {
	if i := slices.Index(s.meshes, mesh); i >= 0 {
		s.meshes = slices.Delete(s.meshes, i, i+1)
		s.rev++
	}
}

// SetMeshes replaces the mesh list.
func (s *Scene) SetMeshes(meshes []*Mesh) {
	s.meshes = slices.Clone(meshes)
	s.rev++
}

// AddMaterial registers a material. Registered materials are compiled in
// registration order before materials only referenced by meshes.
func (s *Scene) AddMaterial(materials ...*Material) {
	s.materials = append(s.materials, materials...)
	s.rev++
}

// SetMaterials replaces the material list.
func (s *Scene) SetMaterials(materials []*Material) {
	s.materials = slices.Clone(materials)
	s.rev++
}

func (s *Scene) AddLight(light *Light) {
	s.lights = append(s.lights, light)
	s.rev++
	s.lightsRev++
}

// RemoveLight drops a light. Point lights after it shift down one slot in
// the light buffer.
func (s *Scene) RemoveLight(light *Light) {
	if i := slices.Index(s.lights, light); i >= 0 {
		s.lights = slices.Delete(s.lights, i, i+1)
		s.rev++
		s.lightsRev++
	}
}

func (s *Scene) SetLights(lights []*Light) {
	s.lights = slices.Clone(lights)
	s.rev++
	s.lightsRev++
}
