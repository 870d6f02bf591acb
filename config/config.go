// Package config loads the YAML configuration of a render-graph host.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"render-graph/compositor"
	"render-graph/core"
	"render-graph/internal/logger"
	"render-graph/renderer"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Window        WindowConfig        `yaml:"window"`
	Renderer      RendererConfig      `yaml:"renderer"`
	ContactShadow ContactShadowConfig `yaml:"contactShadow"`
	Log           LogConfig           `yaml:"log"`
}

type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	VSync      bool   `yaml:"vsync"`
	Resizable  bool   `yaml:"resizable"`
	Fullscreen bool   `yaml:"fullscreen,omitempty"`
}

type RendererConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Background     []float32         `yaml:"background"`
	Ambient        []float32         `yaml:"ambient"`
	MaxTextureSize int               `yaml:"maxTextureSize"`
	ToneMapping    []ToneMappingStep `yaml:"toneMapping,omitempty"`
}

// ToneMappingStep is one entry of the tone mapping chain. Kind is
// "exposure" (Value in stops), "reinhard" or "gamma" (Value defaults to 2.2).
type ToneMappingStep struct {
	Kind  string  `yaml:"kind"`
	Value float32 `yaml:"value,omitempty"`
}

type ContactShadowConfig struct {
	Enabled     bool      `yaml:"enabled"`
	TextureSize int       `yaml:"textureSize"`
	Aspect      float32   `yaml:"aspect"`
	Width       float32   `yaml:"width"`
	Height      float32   `yaml:"height"`
	Depth       float32   `yaml:"depth"`
	Darkness    float32   `yaml:"darkness"`
	BlurSize    int       `yaml:"blurSize"`
	Position    []float32 `yaml:"position,omitempty"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	shadow := compositor.DefaultContactShadowConfig()
	return Config{
		Window: WindowConfig{
			Width:     1280,
			Height:    720,
			Title:     "Render Graph",
			VSync:     true,
			Resizable: true,
		},
		Renderer: RendererConfig{
			Enabled:        true,
			Background:     []float32{0.1, 0.1, 0.12, 1},
			Ambient:        []float32{0.2, 0.2, 0.2},
			MaxTextureSize: 2048,
		},
		ContactShadow: ContactShadowConfig{
			TextureSize: shadow.TextureSize,
			Aspect:      shadow.Aspect,
			Width:       shadow.Width,
			Height:      shadow.Height,
			Depth:       shadow.Depth,
			Darkness:    shadow.Darkness,
			BlurSize:    shadow.BlurSize,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over Default, fills unset values and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default, fills unset values and validates.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	d := Default()
	if c.Window.Width == 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = d.Window.Height
	}
	if c.Window.Title == "" {
		c.Window.Title = d.Window.Title
	}
	if c.Renderer.MaxTextureSize == 0 {
		c.Renderer.MaxTextureSize = d.Renderer.MaxTextureSize
	}
	if c.ContactShadow.Aspect == 0 {
		c.ContactShadow.Aspect = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if err := validColor("renderer.background", c.Renderer.Background); err != nil {
		return err
	}
	if err := validColor("renderer.ambient", c.Renderer.Ambient); err != nil {
		return err
	}
	if c.Renderer.MaxTextureSize < 0 {
		return fmt.Errorf("%w: renderer.maxTextureSize %d", ErrInvalid, c.Renderer.MaxTextureSize)
	}
	if _, err := c.Renderer.ToneMappings(); err != nil {
		return err
	}
	if c.ContactShadow.Enabled {
		if len(c.ContactShadow.Position) != 0 && len(c.ContactShadow.Position) != 3 {
			return fmt.Errorf("%w: contactShadow.position needs 3 components", ErrInvalid)
		}
		if _, err := compositor.NewContactShadow(c.ContactShadow.Compositor()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func validColor(field string, v []float32) error {
	if len(v) != 3 && len(v) != 4 {
		return fmt.Errorf("%w: %s needs 3 or 4 components, got %d", ErrInvalid, field, len(v))
	}
	return nil
}

func toColor(v []float32) core.Color {
	c := core.Color{A: 1}
	c.R, c.G, c.B = v[0], v[1], v[2]
	if len(v) == 4 {
		c.A = v[3]
	}
	return c
}

// ToneMappings converts the configured chain.
func (r RendererConfig) ToneMappings() ([]renderer.ToneMapping, error) {
	out := make([]renderer.ToneMapping, 0, len(r.ToneMapping))
	for i, step := range r.ToneMapping {
		switch strings.ToLower(step.Kind) {
		case "exposure":
			out = append(out, renderer.Exposure{Stops: step.Value})
		case "reinhard":
			out = append(out, renderer.Reinhard{})
		case "gamma":
			out = append(out, renderer.Gamma{Value: step.Value})
		default:
			return nil, fmt.Errorf("%w: renderer.toneMapping[%d] kind %q", ErrInvalid, i, step.Kind)
		}
	}
	return out, nil
}

// Compositor converts the section into pass parameters.
func (c ContactShadowConfig) Compositor() compositor.ContactShadowConfig {
	out := compositor.ContactShadowConfig{
		TextureSize: c.TextureSize,
		Aspect:      c.Aspect,
		Width:       c.Width,
		Height:      c.Height,
		Depth:       c.Depth,
		Darkness:    c.Darkness,
		BlurSize:    c.BlurSize,
	}
	if len(c.Position) == 3 {
		out.Position = mgl32.Vec3{c.Position[0], c.Position[1], c.Position[2]}
	}
	return out
}

// Logger builds the configured zap logger.
func (c LogConfig) Logger() (*zap.Logger, error) {
	return logger.New(c.Level, c.Development)
}

// Apply configures r and returns the contact shadow pass when enabled. The
// config must have been validated.
func (c *Config) Apply(r *renderer.Renderer) (*compositor.ContactShadow, error) {
	r.SetEnabled(c.Renderer.Enabled)
	r.SetCanvas(c.Window.Width, c.Window.Height)
	r.SetBackground(toColor(c.Renderer.Background))
	r.SetAmbient(toColor(c.Renderer.Ambient))
	tms, err := c.Renderer.ToneMappings()
	if err != nil {
		return nil, err
	}
	if len(tms) > 0 {
		r.SetToneMapping(tms...)
	}
	if !c.ContactShadow.Enabled {
		return nil, nil
	}
	cs, err := compositor.NewContactShadow(c.ContactShadow.Compositor())
	if err != nil {
		return nil, fmt.Errorf("contact shadow: %w", err)
	}
	r.AddPass(cs)
	return cs, nil
}
