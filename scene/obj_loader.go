package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"render-graph/core"
	"render-graph/internal/logger"
)

// LoadModel imports a .obj, .gltf or .glb file.
func LoadModel(path string, maxTexture int) (*Asset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path, maxTexture)
	case ".gltf", ".glb":
		return LoadGLTF(path, maxTexture)
	}
	return nil, fmt.Errorf("unsupported model format %q", filepath.Ext(path))
}

// objFace is an already-triangulated face (three vertex references).
type objFace struct {
	v, vt, vn [3]int // 0-based position / UV / normal indices (-1 = absent)
}

type objObject struct {
	name    string
	matName string
	faces   []objFace
}

// LoadOBJ parses a Wavefront .obj file into one mesh per object or group.
// A companion .mtl file is loaded when referenced via "mtllib".
func LoadOBJ(path string, maxTexture int) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()
	return DecodeOBJ(f, filepath.Dir(path), maxTexture)
}

// DecodeOBJ parses OBJ text. mtllib and texture paths resolve against dir.
func DecodeOBJ(r io.Reader, dir string, maxTexture int) (*Asset, error) {
	var (
		positions [][3]float32
		normals   [][3]float32
		uvs       [][2]float32
		objects   []objObject
	)
	asset := &Asset{}
	materials := map[string]*Material{}
	cur := &objObject{name: "default"}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) >= 4 {
				positions = append(positions, parseVec3(fields[1:4]))
			}
		case "vn":
			if len(fields) >= 4 {
				normals = append(normals, parseVec3(fields[1:4]))
			}
		case "vt":
			if len(fields) >= 3 {
				u, _ := strconv.ParseFloat(fields[1], 32)
				v, _ := strconv.ParseFloat(fields[2], 32)
				uvs = append(uvs, [2]float32{float32(u), float32(v)})
			}
		case "o", "g":
			if len(cur.faces) > 0 {
				objects = append(objects, *cur)
			}
			name := "default"
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = &objObject{name: name, matName: cur.matName}
		case "usemtl":
			if len(fields) > 1 {
				cur.matName = fields[1]
			}
		case "mtllib":
			if len(fields) > 1 {
				loaded, err := loadMTL(filepath.Join(dir, fields[1]), dir, maxTexture, asset)
				if err != nil {
					logger.Log.Warn("mtllib skipped", zap.String("file", fields[1]), zap.Error(err))
				}
				for name, m := range loaded {
					materials[name] = m
				}
			}
		case "f":
			if len(fields) < 4 {
				continue
			}
			verts := make([][3]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				verts = append(verts, parseFaceVertex(tok, len(positions), len(uvs), len(normals)))
			}
			// Fan triangulation: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(verts); i++ {
				a, b, c := verts[0], verts[i], verts[i+1]
				cur.faces = append(cur.faces, objFace{
					v:  [3]int{a[0], b[0], c[0]},
					vt: [3]int{a[1], b[1], c[1]},
					vn: [3]int{a[2], b[2], c[2]},
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj: %w", err)
	}
	if len(cur.faces) > 0 {
		objects = append(objects, *cur)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("obj has no faces")
	}

	used := map[*Material]bool{}
	for _, obj := range objects {
		mat, ok := materials[obj.matName]
		if !ok {
			mat = DefaultMaterial()
		}
		if !used[mat] {
			used[mat] = true
			asset.Materials = append(asset.Materials, mat)
		}
		g := objGeometry(obj.faces, positions, uvs, normals)
		asset.Meshes = append(asset.Meshes, NewMesh(obj.name, g, mat))
	}
	return asset, nil
}

func parseVec3(f []string) [3]float32 {
	var v [3]float32
	for i := range v {
		x, _ := strconv.ParseFloat(f[i], 32)
		v[i] = float32(x)
	}
	return v
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn" into 0-based
// indices (-1 if absent). Negative OBJ indices count back from the end.
func parseFaceVertex(tok string, nv, nvt, nvn int) [3]int {
	res := [3]int{-1, -1, -1}
	counts := [3]int{nv, nvt, nvn}
	for i, part := range strings.SplitN(tok, "/", 3) {
		n, err := strconv.Atoi(part)
		switch {
		case err != nil || n == 0:
		case n > 0:
			res[i] = n - 1
		default:
			res[i] = counts[i] + n
		}
	}
	return res
}

// objGeometry deduplicates face vertices into an indexed geometry.
func objGeometry(faces []objFace, positions [][3]float32, uvs [][2]float32, normals [][3]float32) Geometry {
	var g Geometry
	index := map[[3]int]uint32{}
	hasNormals := true

	for _, face := range faces {
		for c := 0; c < 3; c++ {
			k := [3]int{face.v[c], face.vt[c], face.vn[c]}
			if idx, ok := index[k]; ok {
				g.Indices = append(g.Indices, idx)
				continue
			}
			var (
				p  [3]float32
				uv [2]float32
				n  = [3]float32{0, 1, 0}
			)
			if k[0] >= 0 && k[0] < len(positions) {
				p = positions[k[0]]
			}
			if k[1] >= 0 && k[1] < len(uvs) {
				uv = uvs[k[1]]
			}
			if k[2] >= 0 && k[2] < len(normals) {
				n = normals[k[2]]
			} else {
				hasNormals = false
			}
			idx := uint32(len(g.Positions) / 3)
			g.Positions = append(g.Positions, p[0], p[1], p[2])
			g.Normals = append(g.Normals, n[0], n[1], n[2])
			g.UVs = append(g.UVs, uv[0], uv[1])
			index[k] = idx
			g.Indices = append(g.Indices, idx)
		}
	}
	if !hasNormals {
		ComputeNormals(&g)
	}
	return g
}

// ComputeNormals replaces the normals of an indexed triangle geometry with
// area-weighted vertex normals.
func ComputeNormals(g *Geometry) {
	n := len(g.Positions) / 3
	accum := make([]mgl32.Vec3, n)
	pos := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]}
	}
	for i := 0; i+2 < len(g.Indices); i += 3 {
		i0, i1, i2 := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		p0 := pos(i0)
		face := pos(i1).Sub(p0).Cross(pos(i2).Sub(p0))
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}
	g.Normals = make([]float32, 0, 3*n)
	for _, a := range accum {
		if a.Len() > 0 {
			a = a.Normalize()
		} else {
			a = mgl32.Vec3{0, 1, 0}
		}
		g.Normals = append(g.Normals, a[0], a[1], a[2])
	}
}

// ── MTL loader ───────────────────────────────────────────────────────────────

func loadMTL(path, dir string, maxTexture int, asset *Asset) (map[string]*Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mats := map[string]*Material{}
	var cur *Material
	textures := map[string]*Texture{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) > 1 {
				cur = DefaultMaterial()
				cur.Name = fields[1]
				mats[fields[1]] = cur
			}
			continue
		}
		if cur == nil {
			continue
		}

		switch fields[0] {
		case "Kd":
			if len(fields) >= 4 {
				c := parseVec3(fields[1:4])
				cur.SetColor(core.RGB(c[0], c[1], c[2]))
			}
		case "Ks":
			if len(fields) >= 4 {
				c := parseVec3(fields[1:4])
				sp := specularOf(cur)
				sp.Color = core.RGB(c[0], c[1], c[2])
				cur.SetSpecular(sp)
			}
		case "Ns":
			if len(fields) >= 2 {
				ns, _ := strconv.ParseFloat(fields[1], 32)
				sp := specularOf(cur)
				sp.Shininess = float32(max(1, ns))
				cur.SetSpecular(sp)
			}
		case "d":
			if len(fields) >= 2 {
				d, _ := strconv.ParseFloat(fields[1], 32)
				if d < 1 {
					cur.SetOpacity(float32(d))
					cur.SetTransparent(true)
				}
			}
		case "map_Kd", "map_Bump", "bump":
			if len(fields) < 2 {
				continue
			}
			name := fields[len(fields)-1]
			tex, ok := textures[name]
			if !ok {
				var err error
				tex, err = LoadTexture(filepath.Join(dir, name), maxTexture)
				if err != nil {
					logger.Log.Warn("mtl texture skipped", zap.String("file", name), zap.Error(err))
					continue
				}
				textures[name] = tex
				asset.Textures = append(asset.Textures, tex)
			}
			if fields[0] == "map_Kd" {
				cur.SetDiffuseMap(&TextureMap{Texture: tex})
			} else {
				cur.SetNormalMap(&TextureMap{Texture: tex})
			}
		}
	}
	return mats, scanner.Err()
}

// specularOf returns a copy of the material's specular term, or a neutral
// default.
func specularOf(m *Material) *Specular {
	if sp := m.Specular(); sp != nil {
		c := *sp
		return &c
	}
	return &Specular{Color: core.ColorWhite, Shininess: 32}
}
