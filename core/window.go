package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

// Window is a glfw window with a current OpenGL 4.1 core context. It also
// acts as the animation-frame host: RequestFrame queues one callback which
// Run invokes after the next event poll.
type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	start   time.Time
	nextID  uint64
	pending uint64
	frame   func(time.Duration)
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "Render Graph",
		Resizable: true,
		VSync:     true,
	}
}

func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	window := &Window{
		Handle: handle,
		Width:  config.Width,
		Height: config.Height,
		Title:  config.Title,
		start:  time.Now(),
	}

	handle.SetSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
	})

	return window, nil
}

// ── Frame host ────────────────────────────────────────────────────────────────

// RequestFrame schedules fn for the next frame and returns its handle.
// A later request replaces an earlier one that has not run yet.
func (w *Window) RequestFrame(fn func(time.Duration)) uint64 {
	w.nextID++
	w.pending = w.nextID
	w.frame = fn
	return w.pending
}

// CancelFrame drops the pending callback if id is still pending.
func (w *Window) CancelFrame(id uint64) {
	if id != 0 && id == w.pending {
		w.pending = 0
		w.frame = nil
	}
}

// Run polls events and delivers frame callbacks until the window is
// closed or no frame is pending.
func (w *Window) Run() {
	for !w.ShouldClose() {
		glfw.PollEvents()
		fn := w.frame
		if fn == nil {
			return
		}
		w.pending = 0
		w.frame = nil
		fn(time.Since(w.start))
		w.Handle.SwapBuffers()
	}
}

// ── Input and lifecycle ───────────────────────────────────────────────────────

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) Close() {
	w.Handle.SetShouldClose(true)
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) IsKeyPressed(key int) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) IsMouseButtonPressed(button int) bool {
	return w.Handle.GetMouseButton(glfw.MouseButton(button)) == glfw.Press
}

func (w *Window) GetCursorPos() (float64, float64) {
	return w.Handle.GetCursorPos()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const (
	KeySpace  = int(glfw.KeySpace)
	KeyEscape = int(glfw.KeyEscape)
	KeyRight  = int(glfw.KeyRight)
)
