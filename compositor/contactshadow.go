package compositor

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"render-graph/core"
	"render-graph/gpu"
	"render-graph/internal/logger"
	"render-graph/renderer"
	"render-graph/scene"
	"render-graph/shader"
)

// ShadowUnit is the texture unit the shadow plane samples from. Units 0-2
// belong to material texture maps.
const ShadowUnit uint32 = 3

// ContactShadowConfig parameterizes a contact shadow.
type ContactShadowConfig struct {
	// TextureSize is the base resolution; targets are
	// TextureSize*Aspect by TextureSize/Aspect texels.
	TextureSize int
	Aspect      float32

	// Width and Height are the extent of the shadow plane in world units,
	// Depth the distance above it that still casts a shadow.
	Width  float32
	Height float32
	Depth  float32

	Darkness float32
	// BlurSize - 1 is the Gaussian kernel width.
	BlurSize int

	Position mgl32.Vec3
}

func DefaultContactShadowConfig() ContactShadowConfig {
	return ContactShadowConfig{
		TextureSize: 512,
		Aspect:      1,
		Width:       10,
		Height:      10,
		Depth:       2,
		Darkness:    1,
		BlurSize:    16,
	}
}

type target struct {
	texture     gpu.Texture
	framebuffer gpu.Framebuffer
}

// ContactShadow renders every mesh from below the ground plane into an
// alpha mask, then blurs it horizontally and vertically. It runs before the
// main programs.
type ContactShadow struct {
	config ContactShadowConfig
	width  int
	height int

	camera  *scene.Camera
	quad    *scene.Mesh
	offsets []float32
	scales  []float32

	geometry   *renderer.PassProgram
	horizontal *renderer.PassProgram
	vertical   *renderer.PassProgram
	targets    [3]target

	savedDepth gpu.DepthFunc
	plane      *scene.Mesh
}

// NewContactShadow validates cfg and builds the three stages. No GPU call is
// made until the renderer builds the stages.
func NewContactShadow(cfg ContactShadowConfig) (*ContactShadow, error) {
	if cfg.TextureSize <= 0 {
		return nil, fmt.Errorf("contact shadow: texture size %d must be positive", cfg.TextureSize)
	}
	if cfg.Aspect <= 0 {
		cfg.Aspect = 1
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Depth <= 0 {
		return nil, fmt.Errorf("contact shadow: plane extent %vx%vx%v must be positive", cfg.Width, cfg.Height, cfg.Depth)
	}
	kernel, err := GenerateKernel(cfg.BlurSize - 1)
	if err != nil {
		return nil, fmt.Errorf("contact shadow: blur size %d: %w", cfg.BlurSize, err)
	}

	cs := &ContactShadow{
		config: cfg,
		width:  max(1, int(float32(cfg.TextureSize)*cfg.Aspect)),
		height: max(1, int(float32(cfg.TextureSize)/cfg.Aspect)),
		quad:   scene.NewMesh("contact-shadow-quad", scene.FullscreenQuad(), nil),
	}
	cs.offsets, cs.scales = splitTaps(ConvertToOffsetsAndScales(kernel))

	// The camera sits on the plane looking up; geometry closer than the
	// near plane (the shadow plane itself) is clipped.
	hw, hh := cfg.Width/2, cfg.Height/2
	cs.camera = scene.NewOrthoCamera(-hw, hw, -hh, hh, cfg.Depth*1e-3, cfg.Depth)
	cs.camera.SetPosition(cfg.Position)
	cs.camera.LookAt(cfg.Position.Add(mgl32.Vec3{0, 1, 0}), mgl32.Vec3{0, 0, 1})

	cs.geometry = &renderer.PassProgram{
		Name:      "contact-shadow-geometry",
		Source:    shader.NewWithTemplates(depthVertex, depthFragment).Build(),
		AllMeshes: true,
		Init:      cs.initTarget(0, true),
		Setup:     cs.updateGeometry,
		Target:    cs.bindTarget(0),
		Update:    cs.updateGeometry,
		PreDraw:   cs.preDraw,
		PostDraw:  cs.postDraw,
		Release:   cs.releaseTarget(0),
	}
	blur := shader.NewWithTemplates(shader.FullscreenVertex, shader.FullscreenFragment).
		Define("TAPS", strconv.Itoa(len(cs.offsets))).
		Add(shader.FragmentDeclarations, blurDeclarations).
		Add(shader.Fragment, blurSample).
		Build()
	cs.horizontal = &renderer.PassProgram{
		Name:     "contact-shadow-blur-h",
		Source:   blur,
		Meshes:   []*scene.Mesh{cs.quad},
		Init:     cs.initTarget(1, false),
		Setup:    cs.setupBlur,
		Target:   cs.bindTarget(1),
		Update:   cs.updateBlur(0, mgl32.Vec2{1 / float32(cs.width), 0}),
		PreDraw:  cs.preDraw,
		PostDraw: cs.postDraw,
		Release:  cs.releaseTarget(1),
	}
	cs.vertical = &renderer.PassProgram{
		Name:       "contact-shadow-blur-v",
		MapCurrent: true,
		Meshes:     []*scene.Mesh{cs.quad},
		Init:       cs.initTarget(2, false),
		Setup:      cs.setupBlur,
		Target:     cs.bindTarget(2),
		Update:     cs.updateBlur(1, mgl32.Vec2{0, 1 / float32(cs.height)}),
		PreDraw:    cs.preDraw,
		PostDraw:   cs.postDraw,
		Release:    cs.releaseTarget(2),
	}
	return cs, nil
}

func (cs *ContactShadow) Order() int { return -1 }

func (cs *ContactShadow) Programs() []*renderer.PassProgram {
	return []*renderer.PassProgram{cs.geometry, cs.horizontal, cs.vertical}
}

// Texture returns the vertically blurred mask, or 0 before the first frame.
func (cs *ContactShadow) Texture() gpu.Texture { return cs.targets[2].texture }

// Size returns the render target size in texels.
func (cs *ContactShadow) Size() (width, height int) { return cs.width, cs.height }

// Camera returns the orthographic camera of the geometry stage.
func (cs *ContactShadow) Camera() *scene.Camera { return cs.camera }

// ViewProjection maps world space into the shadow texture's clip space.
func (cs *ContactShadow) ViewProjection() mgl32.Mat4 { return cs.camera.ViewProjection() }

// PlaneMaterial returns a transparent black material whose alpha is read
// from the shadow mask.
func (cs *ContactShadow) PlaneMaterial() *scene.Material {
	m := scene.NewMaterial("contact-shadow", core.ColorBlack)
	m.SetTransparent(true)
	m.AddCapability(&shadowReceiver{cs: cs})
	return m
}

// Plane returns the ground plane receiving the shadow, created on first
// call.
func (cs *ContactShadow) Plane() *scene.Mesh {
	if cs.plane == nil {
		cs.plane = scene.NewMesh("contact-shadow-plane",
			scene.PlaneGeometry(cs.config.Width, cs.config.Height, 1), cs.PlaneMaterial())
		cs.plane.SetMatrix(mgl32.Translate3D(cs.config.Position.Elem()))
	}
	return cs.plane
}

// ── Stage hooks ───────────────────────────────────────────────────────────────

func (cs *ContactShadow) initTarget(i int, depth bool) func(gpu.Context) error {
	return func(ctx gpu.Context) error {
		tex := ctx.CreateTexture(cs.width, cs.height, nil)
		fb, err := ctx.CreateFramebuffer(tex, depth)
		if err != nil {
			ctx.DeleteTexture(tex)
			return fmt.Errorf("contact shadow target %d: %w", i, err)
		}
		cs.targets[i] = target{texture: tex, framebuffer: fb}
		logger.Log.Debug("contact shadow target created",
			zap.Int("stage", i), zap.Int("width", cs.width), zap.Int("height", cs.height))
		return nil
	}
}

func (cs *ContactShadow) bindTarget(i int) func(gpu.Context) {
	return func(ctx gpu.Context) {
		ctx.BindFramebuffer(cs.targets[i].framebuffer)
		ctx.Viewport(0, 0, cs.width, cs.height)
		ctx.ClearColor(0, 0, 0, 0)
		ctx.Clear(true, i == 0)
	}
}

func (cs *ContactShadow) releaseTarget(i int) func(gpu.Context) {
	return func(ctx gpu.Context) {
		t := cs.targets[i]
		if t.framebuffer != 0 {
			ctx.DeleteFramebuffer(t.framebuffer)
		}
		if t.texture != 0 {
			ctx.DeleteTexture(t.texture)
		}
		cs.targets[i] = target{}
	}
}

func (cs *ContactShadow) updateGeometry(ctx gpu.Context, u gpu.Uniforms) {
	ctx.UniformMatrix4(u.Location("uProjection"), cs.camera.Projection())
	ctx.UniformMatrix4(u.Location("uView"), cs.camera.View())
	ctx.Uniform1f(u.Location("uDarkness"), cs.config.Darkness)
}

func (cs *ContactShadow) setupBlur(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform1i(u.Location("uSource"), 0)
	ctx.Uniform1fv(u.Location("uOffsets"), cs.offsets)
	ctx.Uniform1fv(u.Location("uScales"), cs.scales)
}

func (cs *ContactShadow) updateBlur(source int, stride mgl32.Vec2) func(gpu.Context, gpu.Uniforms) {
	return func(ctx gpu.Context, u gpu.Uniforms) {
		ctx.BindTexture(0, cs.targets[source].texture)
		ctx.Uniform2f(u.Location("uStride"), stride[0], stride[1])
	}
}

func (cs *ContactShadow) preDraw(ctx gpu.Context) {
	cs.savedDepth = ctx.DepthFunc()
	ctx.SetDepthFunc(gpu.LessEqual)
}

func (cs *ContactShadow) postDraw(ctx gpu.Context) {
	ctx.SetDepthFunc(cs.savedDepth)
}

// ── Receiver ──────────────────────────────────────────────────────────────────

// shadowReceiver replaces the lit color with black and takes alpha from the
// shadow mask at the fragment's position in shadow clip space.
type shadowReceiver struct {
	cs *ContactShadow
}

func (r *shadowReceiver) Contribute(b *shader.Builder) {
	b.Define("CONTACT_SHADOW", "")
	b.Add(shader.FragmentDeclarations, "uniform sampler2D uContactShadow;\nuniform mat4 uShadowMatrix;")
	b.Add(shader.Fragment, receiverSample)
}

func (r *shadowReceiver) Setup(ctx gpu.Context, u gpu.Uniforms) {
	ctx.Uniform1i(u.Location("uContactShadow"), int32(ShadowUnit))
	r.Bind(ctx, u)
}

func (r *shadowReceiver) Bind(ctx gpu.Context, u gpu.Uniforms) {
	ctx.BindTexture(ShadowUnit, r.cs.Texture())
	ctx.UniformMatrix4(u.Location("uShadowMatrix"), r.cs.ViewProjection())
}

// ── Shaders ───────────────────────────────────────────────────────────────────

const depthVertex = `#version 410 core
{{defines}}
layout(location = 0) in vec3 aPosition;
layout(location = 4) in mat4 aInstance;
uniform mat4 uProjection;
uniform mat4 uView;
uniform mat4 uModel;
uniform int uInstanced;
{{vertex_declarations}}
void main() {
    mat4 model = uInstanced == 1 ? aInstance : uModel;
{{vertex}}
    gl_Position = uProjection * uView * model * vec4(aPosition, 1.0);
}
`

// depthFragment writes (1 - depth) * darkness into alpha, so geometry
// touching the plane casts the darkest shadow.
const depthFragment = `#version 410 core
{{defines}}
out vec4 outColor;
uniform float uDarkness;
{{fragment_declarations}}
void main() {
{{fragment}}
    outColor = vec4(0.0, 0.0, 0.0, (1.0 - gl_FragCoord.z) * uDarkness);
}
`

const blurDeclarations = `uniform sampler2D uSource;
uniform vec2 uStride;
uniform float uOffsets[TAPS];
uniform float uScales[TAPS];`

const blurSample = `    for (int i = 0; i < TAPS; i++) {
        outColor += texture(uSource, vUV + uStride * uOffsets[i]) * uScales[i];
    }`

const receiverSample = `    vec4 shadowClip = uShadowMatrix * vec4(vWorldPos, 1.0);
    float shadow = texture(uContactShadow, shadowClip.xy * 0.5 + 0.5).a;
    color = vec3(0.0);
    diffuseColor.a = shadow;`
