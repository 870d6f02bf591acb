package scene

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"render-graph/core"
	"render-graph/gpu"
	"render-graph/internal/logger"
)

// Asset holds the meshes, materials and textures imported from a model
// file. Node hierarchies are flattened: every mesh carries its world
// matrix.
type Asset struct {
	Meshes    []*Mesh
	Materials []*Material
	Textures  []*Texture
}

// LoadGLTF opens a .glb or .gltf file. Textures larger than maxTexture are
// downscaled (0 keeps them as they are).
func LoadGLTF(path string, maxTexture int) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return FromGLTF(doc, filepath.Dir(path), maxTexture)
}

// FromGLTF converts a decoded document. External image URIs are resolved
// against dir.
func FromGLTF(doc *gltf.Document, dir string, maxTexture int) (*Asset, error) {
	result := &Asset{}

	// ── 1. Textures ───────────────────────────────────────────────────────────
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil {
			continue
		}
		tex, err := loadGLTFImage(doc, *gt.Source, dir, maxTexture)
		if err != nil {
			logger.Log.Warn("gltf image skipped", zap.Int("image", *gt.Source), zap.Error(err))
			continue
		}
		if tex != nil {
			texCache[i] = tex
			result.Textures = append(result.Textures, tex)
		}
	}

	// ── 2. Materials ─────────────────────────────────────────────────────────
	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		if gm.AlphaMode == gltf.AlphaBlend {
			mat.SetTransparent(true)
		}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.SetColor(core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			})
			if cf[3] < 1 {
				mat.SetOpacity(float32(cf[3]))
			}
			mat.SetMetalness(float32(pbr.MetallicFactorOrDefault()))
			if t := textureAt(texCache, pbr.BaseColorTexture); t != nil {
				mat.SetDiffuseMap(&TextureMap{Texture: t})
			}
			if t := textureAt(texCache, pbr.MetallicRoughnessTexture); t != nil {
				mat.SetRoughnessMap(&TextureMap{Texture: t})
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			idx := *gm.NormalTexture.Index
			if idx >= 0 && idx < len(texCache) && texCache[idx] != nil {
				mat.SetNormalMap(&TextureMap{Texture: texCache[idx]})
			}
		}
		matCache[i] = mat
		result.Materials = append(result.Materials, mat)
	}

	// ── 3. Mesh primitives ────────────────────────────────────────────────────
	prims := make([][]primitive, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			g, err := loadGLTFPrimitive(doc, prim)
			if err != nil {
				logger.Log.Warn("gltf primitive skipped",
					zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
				continue
			}
			name := gm.Name
			if name == "" {
				name = fmt.Sprintf("mesh_%d", mi)
			}
			p := primitive{name: fmt.Sprintf("%s_p%d", name, pi), geometry: g, topology: topologyOf(prim.Mode)}
			if prim.Material != nil && *prim.Material < len(matCache) {
				p.material = matCache[*prim.Material]
			}
			prims[mi] = append(prims[mi], p)
		}
	}

	// ── 4. Nodes, flattened ───────────────────────────────────────────────────
	var visit func(idx int, parent mgl32.Mat4, depth int)
	visit = func(idx int, parent mgl32.Mat4, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		gn := doc.Nodes[idx]
		world := parent.Mul4(localMatrix(gn))
		if gn.Mesh != nil && *gn.Mesh < len(prims) {
			for _, p := range prims[*gn.Mesh] {
				mat := p.material
				if mat == nil {
					mat = DefaultMaterial()
				}
				m := NewMesh(p.name, p.geometry, mat)
				m.Topology = p.topology
				m.SetMatrix(world)
				result.Meshes = append(result.Meshes, m)
			}
		}
		for _, c := range gn.Children {
			visit(c, world, depth+1)
		}
	}
	for _, root := range rootNodes(doc) {
		visit(root, mgl32.Ident4(), 0)
	}

	return result, nil
}

type primitive struct {
	name     string
	geometry Geometry
	material *Material
	topology gpu.Topology
}

func textureAt(cache []*Texture, info *gltf.TextureInfo) *Texture {
	if info == nil || info.Index < 0 || info.Index >= len(cache) {
		return nil
	}
	return cache[info.Index]
}

func loadGLTFImage(doc *gltf.Document, idx int, dir string, maxTexture int) (*Texture, error) {
	if idx < 0 || idx >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", idx)
	}
	img := doc.Images[idx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", idx)
	}
	switch {
	case img.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("bufferview: %w", err)
		}
		return decodeImageBytes(name, raw, maxTexture)
	case img.URI != "" && !img.IsEmbeddedResource():
		return LoadTexture(filepath.Join(dir, img.URI), maxTexture)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("embedded data: %w", err)
		}
		return decodeImageBytes(name, raw, maxTexture)
	}
	return nil, nil
}

// loadGLTFPrimitive reads the attributes of one primitive into Geometry.
func loadGLTFPrimitive(doc *gltf.Document, prim *gltf.Primitive) (Geometry, error) {
	var g Geometry
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return g, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return g, fmt.Errorf("positions: %w", err)
	}
	g.Positions = flatten3(positions)

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return g, fmt.Errorf("normals: %w", err)
		}
		g.Normals = flatten3(normals)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return g, fmt.Errorf("uvs: %w", err)
		}
		g.UVs = make([]float32, 0, 2*len(uvs))
		for _, uv := range uvs {
			g.UVs = append(g.UVs, uv[0], uv[1])
		}
	}

	if prim.Indices != nil {
		g.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return g, fmt.Errorf("indices: %w", err)
		}
	}
	return g, nil
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, 3*len(v))
	for _, p := range v {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// localMatrix returns the node's matrix, or T*R*S from its components.
func localMatrix(n *gltf.Node) mgl32.Mat4 {
	if mat := n.MatrixOrDefault(); mat != gltf.DefaultMatrix {
		var m mgl32.Mat4
		for i, v := range mat {
			m[i] = float32(v)
		}
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault() // [x, y, z, w]
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// rootNodes returns the nodes of the default scene, or every parentless node.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func topologyOf(mode gltf.PrimitiveMode) gpu.Topology {
	switch mode {
	case gltf.PrimitiveLines, gltf.PrimitiveLineLoop, gltf.PrimitiveLineStrip:
		return gpu.Lines
	case gltf.PrimitivePoints:
		return gpu.Points
	case gltf.PrimitiveTriangleStrip:
		return gpu.TriangleStrip
	}
	return gpu.Triangles
}
