package main

import (
	"fmt"
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"render-graph/core"
	"render-graph/renderer"
	"render-graph/scene"
)

// dayPalette holds the sky and light values for one key time of day.
type dayPalette struct {
	t            float32 // normalised time 0..1
	sky          core.Color
	sunColor     core.Color
	sunIntensity float32
	ambient      core.Color
}

// palettes is ordered by t and wraps (0 == 1).
var palettes = []dayPalette{
	{ // noon
		t:            0.00,
		sky:          core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
		sunColor:     core.Color{R: 1.00, G: 0.98, B: 0.92, A: 1},
		sunIntensity: 2.0,
		ambient:      core.Color{R: 0.16, G: 0.18, B: 0.26, A: 1},
	},
	{ // golden hour
		t:            0.22,
		sky:          core.Color{R: 0.90, G: 0.52, B: 0.18, A: 1},
		sunColor:     core.Color{R: 1.00, G: 0.65, B: 0.25, A: 1},
		sunIntensity: 1.4,
		ambient:      core.Color{R: 0.10, G: 0.12, B: 0.20, A: 1},
	},
	{ // dusk
		t:            0.30,
		sky:          core.Color{R: 0.50, G: 0.22, B: 0.28, A: 1},
		sunColor:     core.Color{R: 0.70, G: 0.40, B: 0.55, A: 1},
		sunIntensity: 0.4,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // midnight
		t:            0.50,
		sky:          core.Color{R: 0.02, G: 0.03, B: 0.08, A: 1},
		sunColor:     core.Color{R: 0.35, G: 0.40, B: 0.65, A: 1},
		sunIntensity: 0.15,
		ambient:      core.Color{R: 0.03, G: 0.04, B: 0.08, A: 1},
	},
	{ // dawn
		t:            0.72,
		sky:          core.Color{R: 0.85, G: 0.45, B: 0.35, A: 1},
		sunColor:     core.Color{R: 1.00, G: 0.60, B: 0.45, A: 1},
		sunIntensity: 0.8,
		ambient:      core.Color{R: 0.09, G: 0.09, B: 0.15, A: 1},
	},
}

// DayNight drives the animated day/night cycle.
type DayNight struct {
	Time   float32 // 0..1: 0=noon, 0.25=sunset, 0.5=midnight, 0.75=sunrise
	Speed  float32 // full-cycle duration in seconds (default 120)
	Active bool    // auto-advance when true
}

func NewDayNight() *DayNight {
	return &DayNight{
		Time:   0.0, // start at noon
		Speed:  120.0,
		Active: true,
	}
}

func (dn *DayNight) Update(dt float32) {
	if !dn.Active {
		return
	}
	dn.Time += dt / dn.Speed
	if dn.Time > 1.0 {
		dn.Time -= 1.0
	}
}

// lerpColor linearly interpolates between two colours.
func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: 1,
	}
}

// samplePalette returns a linearly interpolated palette for the given time t (0..1).
func samplePalette(t float32) dayPalette {
	n := len(palettes)
	// Find the two surrounding keyframes (wrap-around between last and first)
	var a, b dayPalette
	var localT float32
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		ta := palettes[i].t
		tb := palettes[next].t
		if next == 0 {
			tb = 1.0 // wrap: last key → noon (1.0 == 0.0)
		}
		// Handle wrap-around segment (last key → first key)
		if next == 0 {
			if t >= ta || t < palettes[0].t {
				a = palettes[i]
				b = palettes[0]
				if t >= ta {
					localT = (t - ta) / (tb - ta)
				} else {
					localT = (t + 1.0 - ta) / (tb - ta)
				}
				break
			}
		} else {
			if t >= ta && t < tb {
				a = palettes[i]
				b = palettes[next]
				localT = (t - ta) / (tb - ta)
				break
			}
		}
	}

	return dayPalette{
		sky:          lerpColor(a.sky, b.sky, localT),
		sunColor:     lerpColor(a.sunColor, b.sunColor, localT),
		sunIntensity: a.sunIntensity + (b.sunIntensity-a.sunIntensity)*localT,
		ambient:      lerpColor(a.ambient, b.ambient, localT),
	}
}

// Apply moves sun along its arc and pushes the current palette to r.
func (dn *DayNight) Apply(r *renderer.Renderer, sun *scene.Light) {
	p := samplePalette(dn.Time)

	// Full rotation in the XY plane: overhead at noon, below at midnight.
	angle := float64(dn.Time * 2 * stdmath.Pi)
	sun.Position = mgl32.Vec3{
		float32(stdmath.Sin(angle)) * 8,
		float32(stdmath.Cos(angle)) * 8,
		3,
	}
	sun.Color = p.sunColor
	sun.Intensity = p.sunIntensity
	r.UpdateLight(sun)

	r.SetAmbient(p.ambient)
	r.SetBackground(p.sky)
}

// TimeOfDayStr returns a clock label; Time 0 is noon.
func (dn *DayNight) TimeOfDayStr() string {
	minutes := int(stdmath.Round(float64(dn.Time)*24*60)) + 12*60
	h := (minutes / 60) % 24
	m := minutes % 60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	displayH := h % 12
	if displayH == 0 {
		displayH = 12
	}
	return fmt.Sprintf("%02d:%02d %s", displayH, m, period)
}
