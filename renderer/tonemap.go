package renderer

import (
	"strconv"
	"strings"

	"render-graph/shader"
)

// ToneMapping is a post-lighting color operator appended to every material
// shader, in list order.
type ToneMapping interface {
	shader.Contributor
}

// Exposure scales color by 2^Stops.
type Exposure struct {
	Stops float32
}

func (e Exposure) Contribute(b *shader.Builder) {
	b.Add(shader.Fragment, "    color *= exp2("+glslFloat(e.Stops)+");")
}

// Reinhard maps HDR color into [0, 1).
type Reinhard struct{}

func (Reinhard) Contribute(b *shader.Builder) {
	b.Add(shader.Fragment, "    color = color / (color + vec3(1.0));")
}

// Gamma encodes linear color with 1/Value.
type Gamma struct {
	Value float32
}

func (g Gamma) Contribute(b *shader.Builder) {
	v := g.Value
	if v <= 0 {
		v = 2.2
	}
	b.Add(shader.Fragment, "    color = pow(max(color, vec3(0.0)), vec3(1.0 / "+glslFloat(v)+"));")
}

// glslFloat formats f as a GLSL float literal.
func glslFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}
