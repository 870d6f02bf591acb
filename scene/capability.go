package scene

import (
	"render-graph/core"
	"render-graph/gpu"
	"render-graph/shader"
)

// Capability is an optional material feature. It contributes shader code,
// runs Setup once when its program is built and Bind on every frame.
type Capability interface {
	shader.Contributor
	Setup(ctx gpu.Context, u gpu.Uniforms)
	Bind(ctx gpu.Context, u gpu.Uniforms)
}

// ── Specular ──────────────────────────────────────────────────────────────────

// Specular adds a Blinn-Phong highlight.
type Specular struct {
	Color     core.Color
	Shininess float32
}

func (s *Specular) Contribute(b *shader.Builder) {
	b.Define("SPECULAR", "")
	b.Add(shader.FragmentDeclarations, "uniform vec3 uSpecularColor;\nuniform float uShininess;")
	b.Add(shader.Sample, "    shininess = uShininess;")
	b.Add(shader.Irradiance, "        specular += lightColor * uSpecularColor * pow(max(dot(normal, normalize(L + viewDir)), 0.0), shininess);")
}

func (s *Specular) Setup(ctx gpu.Context, u gpu.Uniforms) { s.Bind(ctx, u) }

func (s *Specular) Bind(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform3f(u.Location("uSpecularColor"), s.Color.R, s.Color.G, s.Color.B)
	ctx.Uniform1f(u.Location("uShininess"), s.Shininess)
}

// ── Texture maps ──────────────────────────────────────────────────────────────

type textureRole int

const (
	roleDiffuse textureRole = iota
	roleNormal
	roleRoughness
)

var roles = [...]struct {
	define  string
	uniform string
	sample  string
}{
	roleDiffuse: {
		define:  "DIFFUSE_MAP",
		uniform: "uDiffuseMap",
		sample:  "    diffuseColor *= texture(uDiffuseMap, vUV);",
	},
	roleNormal: {
		define:  "NORMAL_MAP",
		uniform: "uNormalMap",
		sample:  "    normal = perturbNormal(normal, vWorldPos, vUV, texture(uNormalMap, vUV).xyz * 2.0 - 1.0);",
	},
	roleRoughness: {
		define:  "ROUGHNESS_MAP",
		uniform: "uRoughnessMap",
		sample:  "    roughness = texture(uRoughnessMap, vUV).g;\n    shininess = max(shininess * (1.0 - roughness), 1.0);",
	},
}

// perturbNormal builds a cotangent frame from screen-space derivatives so
// normal maps work without tangent attributes.
const perturbNormal = `vec3 perturbNormal(vec3 N, vec3 p, vec2 uv, vec3 mapN) {
    vec3 dp1 = dFdx(p);
    vec3 dp2 = dFdy(p);
    vec2 duv1 = dFdx(uv);
    vec2 duv2 = dFdy(uv);
    vec3 dp2perp = cross(dp2, N);
    vec3 dp1perp = cross(N, dp1);
    vec3 T = dp2perp * duv1.x + dp1perp * duv2.x;
    vec3 B = dp2perp * duv1.y + dp1perp * duv2.y;
    float invmax = inversesqrt(max(dot(T, T), dot(B, B)));
    return normalize(mat3(T * invmax, B * invmax, N) * mapN);
}`

// TextureMap samples a texture in the fragment stage. The texture is either
// a CPU-side Texture uploaded on setup, or a handle returned by Source,
// which is queried on every bind (pass outputs use this).
type TextureMap struct {
	Texture *Texture
	Source  func() gpu.Texture

	role textureRole
}

func withRole(t *TextureMap, r textureRole) *TextureMap {
	if t != nil {
		t.role = r
	}
	return t
}

// Unit is the texture unit the map binds to.
func (t *TextureMap) Unit() uint32 { return uint32(t.role) }

func (t *TextureMap) Contribute(b *shader.Builder) {
	r := roles[t.role]
	b.Define(r.define, "")
	b.Add(shader.FragmentDeclarations, "uniform sampler2D "+r.uniform+";")
	if t.role == roleNormal {
		b.Add(shader.FragmentDeclarations, perturbNormal)
	}
	b.Add(shader.Sample, r.sample)
}

func (t *TextureMap) Setup(ctx gpu.Context, u gpu.Uniforms) {
	if t.Texture != nil {
		t.Texture.Upload(ctx)
	}
	ctx.Uniform1i(u.Location(roles[t.role].uniform), int32(t.Unit()))
}

func (t *TextureMap) Bind(ctx gpu.Context, u gpu.Uniforms) {
	ctx.BindTexture(t.Unit(), t.handle())
}

func (t *TextureMap) handle() gpu.Texture {
	if t.Source != nil {
		return t.Source()
	}
	if t.Texture != nil {
		return t.Texture.Handle()
	}
	return 0
}
