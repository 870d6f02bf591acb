package renderer

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"render-graph/scene"
	"render-graph/shader"
)

// Program is one compiled unit: a material (or a special mesh, or a pass
// stage) together with the meshes drawn by it. Programs are rebuilt on every
// compile; the resource cache carries GPU state from one Program value to the
// next with the same identity.
type Program struct {
	Material    *scene.Material
	Meshes      []*scene.Mesh
	RequireTime bool
	Pass        *PassProgram
	Source      shader.Source

	special *scene.Mesh
	order   int
}

type programKey struct {
	material *scene.Material
	special  *scene.Mesh
	pass     *PassProgram
}

func (p *Program) key() programKey {
	return programKey{material: p.Material, special: p.special, pass: p.Pass}
}

// Special returns the mesh owning this program alone, or nil.
func (p *Program) Special() *scene.Mesh { return p.special }

// Transparent reports whether the program is drawn blended.
func (p *Program) Transparent() bool {
	return p.Material != nil && p.Material.IsTransparent()
}

// Label names the program in logs and pipeline dumps.
func (p *Program) Label() string {
	switch {
	case p.Pass != nil:
		return "pass:" + p.Pass.Name
	case p.special != nil:
		return "mesh:" + p.special.Name
	case p.Material != nil:
		return "material:" + p.Material.Name
	}
	return "program"
}

// groupPrograms partitions meshes into programs. Materials come from the
// scene list first, then from meshes in first-seen order. Opaque programs
// precede transparent ones; ties keep insertion order.
func groupPrograms(s *scene.Scene) []*Program {
	var (
		materials []*scene.Material
		seen      = make(map[*scene.Material]bool)
		normal    = make(map[*scene.Material][]*scene.Mesh)
		special   = make(map[*scene.Material][]*scene.Mesh)
	)
	addMaterial := func(m *scene.Material) {
		if !seen[m] {
			seen[m] = true
			materials = append(materials, m)
		}
	}
	for _, m := range s.Materials() {
		addMaterial(m)
	}
	for _, mesh := range s.Meshes() {
		if mesh.Material == nil {
			continue
		}
		addMaterial(mesh.Material)
		if mesh.Special() {
			special[mesh.Material] = append(special[mesh.Material], mesh)
		} else {
			normal[mesh.Material] = append(normal[mesh.Material], mesh)
		}
	}

	var programs []*Program
	for _, mat := range materials {
		if meshes := normal[mat]; len(meshes) > 0 {
			p := &Program{Material: mat, Meshes: meshes, order: len(programs)}
			for _, m := range meshes {
				p.RequireTime = p.RequireTime || m.RequiresTime()
			}
			programs = append(programs, p)
		}
		for _, m := range special[mat] {
			programs = append(programs, &Program{
				Material:    mat,
				Meshes:      []*scene.Mesh{m},
				RequireTime: m.RequiresTime(),
				special:     m,
				order:       len(programs),
			})
		}
	}

	slices.SortStableFunc(programs, func(a, b *Program) int {
		switch {
		case !a.Transparent() && b.Transparent():
			return -1
		case a.Transparent() && !b.Transparent():
			return 1
		}
		return 0
	})
	return programs
}

// blendedDraw is one transparent mesh together with the program drawing it.
type blendedDraw struct {
	p *Program
	m *scene.Mesh
}

// sortTransparent orders the meshes of every transparent program back to
// front, then the transparent programs by their farthest mesh. It returns
// every transparent mesh in back-to-front order across programs, which is
// the order they are drawn in. Depth is the Z of projection * view *
// translation; larger is farther.
func sortTransparent(programs []*Program, viewProjection mgl32.Mat4) []blendedDraw {
	first := slices.IndexFunc(programs, (*Program).Transparent)
	if first < 0 {
		return nil
	}

	depth := func(m *scene.Mesh) (float32, bool) {
		if !m.HasMatrix() {
			return 0, false
		}
		return viewProjection.Mul4x1(m.Translation().Vec4(1)).Z(), true
	}
	backToFront := func(a, b *scene.Mesh) int {
		da, oka := depth(a)
		db, okb := depth(b)
		if !oka || !okb {
			return 0
		}
		return cmp.Compare(db, da)
	}

	transparent := programs[first:]
	for _, p := range transparent {
		p.Meshes = slices.Clone(p.Meshes)
		slices.SortStableFunc(p.Meshes, backToFront)
	}
	slices.SortStableFunc(transparent, func(a, b *Program) int {
		if len(a.Meshes) == 0 || len(b.Meshes) == 0 {
			return 0
		}
		return backToFront(a.Meshes[0], b.Meshes[0])
	})

	var draws []blendedDraw
	for _, p := range transparent {
		for _, m := range p.Meshes {
			draws = append(draws, blendedDraw{p: p, m: m})
		}
	}
	slices.SortStableFunc(draws, func(a, b blendedDraw) int { return backToFront(a.m, b.m) })
	return draws
}

// sameGrouping reports whether two program lists draw the same meshes with
// the same identities in the same order.
func sameGrouping(a, b []*Program) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].key() != b[i].key() || a[i].RequireTime != b[i].RequireTime ||
			!slices.Equal(a[i].Meshes, b[i].Meshes) {
			return false
		}
	}
	return true
}

func sameGraph(a, b graph) bool {
	return sameGrouping(a.programs, b.programs) &&
		slices.EqualFunc(a.blended, b.blended, func(x, y blendedDraw) bool {
			return x.p.key() == y.p.key() && x.m == y.m
		})
}
