// Command demo opens a window and renders a scene through the render graph.
//
//	demo -config render.yaml -scene scene.yaml
//
// Without -scene a built-in showcase is rendered.
package main

import (
	"context"
	"flag"
	"fmt"
	stdmath "math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"render-graph/core"
	"render-graph/internal/cli"
	"render-graph/internal/logger"
	"render-graph/internal/opengl"
	"render-graph/renderer"
	"render-graph/scene"
)

func main() {
	configPath := flag.String("config", "", "renderer config (YAML)")
	scenePath := flag.String("scene", "", "scene description (YAML)")
	flag.Parse()

	if err := run(*configPath, *scenePath); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath string) error {
	cfg, err := cli.Setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Log.Sync()

	window, err := core.NewWindow(core.WindowConfig{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Title:      cfg.Window.Title,
		Resizable:  cfg.Window.Resizable,
		VSync:      cfg.Window.VSync,
		Fullscreen: cfg.Window.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	gc, err := opengl.NewContext()
	if err != nil {
		return err
	}

	var (
		s   *scene.Scene
		fov = float32(stdmath.Pi) / 3
		cam *scene.Camera
	)
	if scenePath != "" {
		doc, res, err := cli.LoadScene(context.Background(), scenePath, cfg)
		if err != nil {
			return err
		}
		s, cam = res.Scene, res.Camera
		fov = mgl32.DegToRad(doc.Camera.FOV)
	} else {
		s = showcase()
	}

	orbit := scene.NewOrbitCamera(mgl32.Vec3{0, 0.5, 0}, 9, fov, float32(cfg.Window.Width)/float32(cfg.Window.Height))
	if cam != nil {
		orbit = orbitFrom(cam, fov, float32(cfg.Window.Width)/float32(cfg.Window.Height))
	}

	r := renderer.New(gc, s, orbit.Camera)
	defer r.Release()
	cs, err := cfg.Apply(r)
	if err != nil {
		return err
	}
	if cs != nil {
		s.Add(cs.Plane())
	}

	sun := sunLight(s)
	cycle := NewDayNight()
	stats := newFrameStats(time.Second)
	input := &orbitInput{}
	var last time.Duration

	r.SetLoop(func(t time.Duration) {
		dt := float32((t - last).Seconds())
		last = t

		if w, h := window.GetFramebufferSize(); w > 0 && h > 0 {
			if cw, ch := r.Canvas(); cw != w || ch != h {
				r.SetCanvas(w, h)
				orbit.SetAspect(float32(w), float32(h))
			}
		}
		input.update(window, orbit, cycle, dt)

		cycle.Update(dt)
		cycle.Apply(r, sun)
		if fps := stats.frame(t, cycle); fps > 0 {
			window.SetTitle(fmt.Sprintf("%s  %.0f fps  %s", cfg.Window.Title, fps, cycle.TimeOfDayStr()))
		}
	})

	scheduler := renderer.NewScheduler(r, window)
	scheduler.Start()
	window.Run()
	scheduler.Stop()

	logger.Log.Info("demo finished", zap.Uint64("frames", scheduler.Frames()))
	return nil
}

// orbitInput turns mouse drags into orbit motion. Without a drag the
// camera drifts slowly around its target.
type orbitInput struct {
	dragging     bool
	lastX, lastY float64
	spaceDown    bool
}

func (in *orbitInput) update(w *core.Window, o *scene.OrbitCamera, dn *DayNight, dt float32) {
	if w.IsKeyPressed(core.KeyEscape) {
		w.Close()
	}
	space := w.IsKeyPressed(core.KeySpace)
	if space && !in.spaceDown {
		dn.Active = !dn.Active
	}
	in.spaceDown = space
	if w.IsKeyPressed(core.KeyRight) {
		dn.Time = float32(stdmath.Mod(float64(dn.Time+dt*0.1), 1))
	}

	if !w.IsMouseButtonPressed(0) {
		in.dragging = false
		o.Orbit(dt*0.15, 0)
		return
	}
	x, y := w.GetCursorPos()
	if in.dragging {
		o.Orbit(float32(in.lastX-x)*0.005, float32(y-in.lastY)*0.005)
	}
	in.dragging = true
	in.lastX, in.lastY = x, y
}

// orbitFrom returns an orbit camera with the placement of c.
func orbitFrom(c *scene.Camera, fov, aspect float32) *scene.OrbitCamera {
	offset := c.Position().Sub(c.Target())
	dist := offset.Len()
	o := scene.NewOrbitCamera(c.Target(), dist, fov, aspect)
	if dist > 0 {
		o.Yaw = float32(stdmath.Atan2(float64(offset.X()), float64(offset.Z())))
		o.Pitch = float32(stdmath.Asin(float64(offset.Y() / dist)))
		o.UpdatePosition()
	}
	return o
}

// sunLight returns the first point light of s, adding one if there is none.
func sunLight(s *scene.Scene) *scene.Light {
	for _, l := range s.Lights() {
		if l.Type == scene.LightPoint {
			return l
		}
	}
	l := scene.NewPointLight(mgl32.Vec3{4, 6, 4}, core.ColorWhite, 1)
	s.AddLight(l)
	return l
}

// showcase builds the scene rendered when no scene file is given.
func showcase() *scene.Scene {
	s := scene.NewScene()

	stone := scene.NewMaterial("stone", core.RGB(0.58, 0.55, 0.50))
	brick := scene.NewMaterial("brick", core.RGB(0.70, 0.43, 0.30))
	brick.SetSpecular(&scene.Specular{Color: core.ColorWhite.Scale(0.3), Shininess: 32})
	glass := scene.NewMaterial("glass", core.RGB(0.6, 0.8, 1))
	glass.SetOpacity(0.35)
	glass.SetTransparent(true)
	s.AddMaterial(stone, brick, glass)

	pillar := scene.NewMesh("pillar", scene.CubeGeometry(1), stone)
	pillar.SetMatrix(mgl32.Translate3D(-2, 1, 0).Mul4(mgl32.Scale3D(0.6, 2, 0.6)))

	block := scene.NewMesh("block", scene.CubeGeometry(1), brick)
	block.SetMatrix(mgl32.Translate3D(2, 0.5, 0).Mul4(mgl32.HomogRotate3DY(0.4)))

	orbs := scene.NewMesh("orbs", scene.SphereGeometry(0.35, 24, 12), glass)
	var mats []mgl32.Mat4
	for i := 0; i < 5; i++ {
		x := float32(i-2) * 0.9
		mats = append(mats, mgl32.Translate3D(x, 0.6, 1.5))
	}
	orbs.SetInstances(mats)
	orbs.Animations = append(orbs.Animations, &scene.Pulse{Speed: 2, Amount: 0.25})

	banner := scene.NewMesh("banner", scene.PlaneGeometry(1.5, 1, 16), brick)
	banner.SetMatrix(mgl32.Translate3D(0, 2.2, -1.5).Mul4(mgl32.HomogRotate3DX(stdmath.Pi / 2)))
	banner.Animations = append(banner.Animations, &scene.Wave{Amplitude: 0.08, Frequency: 4, Speed: 3})

	s.Add(pillar, block, orbs, banner)
	s.AddLight(scene.NewPointLight(mgl32.Vec3{4, 6, 4}, core.ColorWhite, 2))
	s.AddLight(scene.NewPointLight(mgl32.Vec3{-3, 2, 2}, core.RGB(0.4, 0.5, 1), 0.8))
	return s
}
