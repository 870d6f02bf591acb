package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"render-graph/core"
)

// LightType tags the kind of a light source.
type LightType int

const (
	LightPoint LightType = iota
	LightDirectional
)

func (t LightType) String() string {
	switch t {
	case LightPoint:
		return "point"
	case LightDirectional:
		return "directional"
	}
	return "unknown"
}

// Light is one entry of the scene's light list. Its position in the list of
// point lights is its index in the light uniform buffer.
type Light struct {
	Type      LightType
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     core.Color
	Intensity float32
	// Cutoff is the distance where the light reaches zero. 0 means no cutoff.
	Cutoff float32
	// Decay is the falloff exponent.
	Decay float32
}

// NewPointLight returns a point light with inverse-square decay.
func NewPointLight(position mgl32.Vec3, color core.Color, intensity float32) *Light {
	return &Light{
		Type:      LightPoint,
		Position:  position,
		Color:     color,
		Intensity: intensity,
		Decay:     2,
	}
}
