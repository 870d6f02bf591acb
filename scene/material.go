package scene

import "render-graph/core"

// Material describes surface appearance shared by many meshes. Meshes
// sharing a *Material pointer are drawn by one program.
//
// Every setter bumps Rev. Setters that change the generated shader also
// bump ShaderRev, which makes the renderer rebuild this material's program.
type Material struct {
	Name string

	color        core.Color
	metalness    float32
	opacity      float32
	transparent  bool
	specular     *Specular
	diffuseMap   *TextureMap
	normalMap    *TextureMap
	roughnessMap *TextureMap
	extra        []Capability

	rev       uint64
	shaderRev uint64
}

// NewMaterial returns an opaque material with the given diffuse color.
func NewMaterial(name string, color core.Color) *Material {
	return &Material{
		Name:    name,
		color:   color,
		opacity: 1,
	}
}

// DefaultMaterial returns a plain white matte material.
func DefaultMaterial() *Material {
	return NewMaterial("Default", core.ColorWhite)
}

func (m *Material) Color() core.Color         { return m.color }
func (m *Material) Metalness() float32        { return m.metalness }
func (m *Material) Opacity() float32          { return m.opacity }
func (m *Material) Specular() *Specular       { return m.specular }
func (m *Material) DiffuseMap() *TextureMap   { return m.diffuseMap }
func (m *Material) NormalMap() *TextureMap    { return m.normalMap }
func (m *Material) RoughnessMap() *TextureMap { return m.roughnessMap }

// IsTransparent reports whether meshes of this material are blended.
func (m *Material) IsTransparent() bool {
	return m.opacity < 1 || m.transparent
}

func (m *Material) SetColor(c core.Color) {
	m.color = c
	m.rev++
}

func (m *Material) SetMetalness(v float32) {
	m.metalness = v
	m.rev++
}

func (m *Material) SetOpacity(v float32) {
	m.opacity = v
	m.rev++
}

func (m *Material) SetTransparent(v bool) {
	m.transparent = v
	m.rev++
}

func (m *Material) SetSpecular(s *Specular) {
	m.specular = s
	m.bumpShader()
}

func (m *Material) SetDiffuseMap(t *TextureMap) {
	m.diffuseMap = withRole(t, roleDiffuse)
	m.bumpShader()
}

func (m *Material) SetNormalMap(t *TextureMap) {
	m.normalMap = withRole(t, roleNormal)
	m.bumpShader()
}

func (m *Material) SetRoughnessMap(t *TextureMap) {
	m.roughnessMap = withRole(t, roleRoughness)
	m.bumpShader()
}

// AddCapability attaches a custom shader capability.
func (m *Material) AddCapability(c Capability) {
	m.extra = append(m.extra, c)
	m.bumpShader()
}

func (m *Material) bumpShader() {
	m.rev++
	m.shaderRev++
}

// Rev increases on every mutation.
func (m *Material) Rev() uint64 { return m.rev }

// ShaderRev increases when the set of capabilities changes.
func (m *Material) ShaderRev() uint64 { return m.shaderRev }

// Capabilities returns the attached capabilities in setup order:
// specular, diffuse map, normal map, roughness map, then custom ones.
func (m *Material) Capabilities() []Capability {
	var caps []Capability
	if m.specular != nil {
		caps = append(caps, m.specular)
	}
	for _, t := range []*TextureMap{m.diffuseMap, m.normalMap, m.roughnessMap} {
		if t != nil {
			caps = append(caps, t)
		}
	}
	return append(caps, m.extra...)
}
