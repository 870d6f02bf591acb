package shader

// ── Mesh templates ────────────────────────────────────────────────────────────

// MeshVertex is the lit mesh vertex stage. Attribute locations match the
// gpu.Attrib* constants. INSTANCED reads the model matrix from locations 4-7.
const MeshVertex = `#version 410 core
{{defines}}
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
layout(location = 3) in vec4 aColor;
#ifdef INSTANCED
layout(location = 4) in mat4 aInstance;
#endif

uniform mat4 uProjection;
uniform mat4 uView;
uniform mat4 uModel;
uniform mat3 uNormalMatrix;
#ifdef USE_TIME
uniform float uTime;
#endif

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUV;
out vec4 vColor;
{{vertex_declarations}}

void main() {
#ifdef INSTANCED
    mat4 model = aInstance;
    mat3 normalMatrix = transpose(inverse(mat3(aInstance)));
#else
    mat4 model = uModel;
    mat3 normalMatrix = uNormalMatrix;
#endif
    vec3 position = aPosition;
    vec3 normal = aNormal;
{{vertex}}
    vec4 world = model * vec4(position, 1.0);
    vWorldPos = world.xyz;
    vNormal = normalize(normalMatrix * normal);
    vUV = aUV;
    vColor = aColor;
    gl_Position = uProjection * uView * world;
}
`

// MeshFragment is the lit mesh fragment stage. Point lights are read from
// the std140 block "Lights", three vec4 per light:
// position, premultiplied color, (cutoff, decay, reserved, reserved).
const MeshFragment = `#version 410 core
{{defines}}
in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUV;
in vec4 vColor;
out vec4 outColor;

uniform vec4 uColor;
uniform float uMetalness;
uniform float uOpacity;
uniform vec3 uAmbient;
uniform vec3 uCameraPosition;
#ifdef USE_TIME
uniform float uTime;
#endif

#if LIGHT_COUNT > 0
struct PointLight {
    vec4 position;
    vec4 color;
    vec4 params;
};
layout(std140) uniform Lights {
    PointLight uLights[LIGHT_COUNT];
};
#endif
{{fragment_declarations}}

void main() {
    vec3 normal = normalize(vNormal);
    vec4 diffuseColor = uColor * vColor;
    float roughness = 1.0;
    float shininess = 1.0;
    vec3 specular = vec3(0.0);
    vec3 viewDir = normalize(uCameraPosition - vWorldPos);
{{sample}}
    vec3 irradiance = uAmbient;
#if LIGHT_COUNT > 0
    for (int i = 0; i < LIGHT_COUNT; i++) {
        vec3 toLight = uLights[i].position.xyz - vWorldPos;
        float dist = max(length(toLight), 1e-4);
        vec3 L = toLight / dist;
        float cutoff = uLights[i].params.x;
        float decay = uLights[i].params.y;
        float falloff = cutoff > 0.0
            ? pow(clamp(1.0 - dist / cutoff, 0.0, 1.0), decay)
            : 1.0 / pow(dist, decay);
        vec3 lightColor = uLights[i].color.rgb * falloff;
        irradiance += lightColor * max(dot(normal, L), 0.0);
{{irradiance}}
    }
#endif
    vec3 color = diffuseColor.rgb * irradiance * (1.0 - 0.5 * uMetalness) + specular;
{{fragment}}
    outColor = vec4(color, diffuseColor.a * uOpacity);
}
`

// ── Fullscreen templates ──────────────────────────────────────────────────────

// FullscreenVertex draws a triangle covering the viewport from the
// fullscreen quad geometry and passes UVs through.
const FullscreenVertex = `#version 410 core
{{defines}}
layout(location = 0) in vec3 aPosition;
layout(location = 2) in vec2 aUV;
out vec2 vUV;
{{vertex_declarations}}
void main() {
    vUV = aUV;
{{vertex}}
    gl_Position = vec4(aPosition.xy, 0.0, 1.0);
}
`

// FullscreenFragment samples nothing by default; passes fill the
// fragment slot and assign outColor.
const FullscreenFragment = `#version 410 core
{{defines}}
in vec2 vUV;
out vec4 outColor;
{{fragment_declarations}}
void main() {
    outColor = vec4(0.0);
{{sample}}
{{fragment}}
}
`
