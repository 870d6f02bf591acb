// Package shader assembles GLSL programs from a fixed template and a set of
// named slots. Materials, capabilities, animations and passes add code to
// slots; the builder concatenates each slot in contribution order and
// substitutes it into the template.
package shader

import (
	"slices"
	"strings"
)

// Slot names a fixed insertion point in a template.
type Slot int

const (
	// VertexDeclarations holds uniforms and functions of the vertex stage.
	VertexDeclarations Slot = iota
	// Vertex runs in main() before the model transform. It may modify the
	// local variables `position` and `normal`.
	Vertex
	// FragmentDeclarations holds uniforms and functions of the fragment stage.
	FragmentDeclarations
	// Sample runs before lighting. It may modify `diffuseColor`, `normal`,
	// `roughness`, `shininess`.
	Sample
	// Irradiance runs once per light inside the light loop with `L`,
	// `lightColor` and `viewDir` in scope.
	Irradiance
	// Fragment runs after lighting and may modify `color`.
	Fragment
	numSlots
)

var slotNames = [numSlots]string{
	"{{vertex_declarations}}",
	"{{vertex}}",
	"{{fragment_declarations}}",
	"{{sample}}",
	"{{irradiance}}",
	"{{fragment}}",
}

// Source is a pair of complete shader stages.
type Source struct {
	Vertex   string
	Fragment string
}

// Contributor adds code and defines to a Builder.
type Contributor interface {
	Contribute(b *Builder)
}

// Builder collects defines and slot contributions.
type Builder struct {
	vertexTemplate   string
	fragmentTemplate string
	defines          map[string]string
	slots            [numSlots][]string
	seen             map[string]bool
}

// New returns a builder for the lit mesh templates.
func New() *Builder {
	return NewWithTemplates(MeshVertex, MeshFragment)
}

// NewWithTemplates returns a builder for caller-supplied templates. Both
// templates must start with a #version line and contain {{defines}}.
func NewWithTemplates(vertex, fragment string) *Builder {
	return &Builder{
		vertexTemplate:   vertex,
		fragmentTemplate: fragment,
		defines:          make(map[string]string),
		seen:             make(map[string]bool),
	}
}

// Define sets a flag. An empty value emits `#define NAME`.
func (b *Builder) Define(name, value string) *Builder {
	b.defines[name] = value
	return b
}

// Defined reports whether name was defined.
func (b *Builder) Defined(name string) bool {
	_, ok := b.defines[name]
	return ok
}

// Add appends code to a slot.
func (b *Builder) Add(slot Slot, code string) *Builder {
	b.slots[slot] = append(b.slots[slot], code)
	return b
}

// Once runs fn the first time key is seen and is a no-op afterwards. It lets
// several meshes of one program share a contribution without duplicating it.
func (b *Builder) Once(key string, fn func(*Builder)) *Builder {
	if b.seen[key] {
		return b
	}
	b.seen[key] = true
	fn(b)
	return b
}

// Use applies every contributor in order. Nil contributors are skipped.
func (b *Builder) Use(cs ...Contributor) *Builder {
	for _, c := range cs {
		if c != nil {
			c.Contribute(b)
		}
	}
	return b
}

// Build renders both stages.
func (b *Builder) Build() Source {
	pairs := make([]string, 0, 2*(int(numSlots)+1))
	pairs = append(pairs, "{{defines}}", b.renderDefines())
	for i, name := range slotNames {
		pairs = append(pairs, name, strings.Join(b.slots[i], "\n"))
	}
	r := strings.NewReplacer(pairs...)
	return Source{
		Vertex:   r.Replace(b.vertexTemplate),
		Fragment: r.Replace(b.fragmentTemplate),
	}
}

func (b *Builder) renderDefines() string {
	names := make([]string, 0, len(b.defines))
	for n := range b.defines {
		names = append(names, n)
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, n := range names {
		sb.WriteString("#define ")
		sb.WriteString(n)
		if v := b.defines[n]; v != "" {
			sb.WriteByte(' ')
			sb.WriteString(v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
