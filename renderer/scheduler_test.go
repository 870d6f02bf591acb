package renderer

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"render-graph/core"
	"render-graph/scene"
)

type fakeHost struct {
	next      uint64
	pending   uint64
	fn        func(time.Duration)
	cancelled int
}

func (h *fakeHost) RequestFrame(fn func(time.Duration)) uint64 {
	h.next++
	h.pending = h.next
	h.fn = fn
	return h.next
}

func (h *fakeHost) CancelFrame(id uint64) {
	if id == h.pending {
		h.pending = 0
		h.fn = nil
		h.cancelled++
	}
}

func (h *fakeHost) fire(t time.Duration) bool {
	fn := h.fn
	if fn == nil {
		return false
	}
	h.fn = nil
	h.pending = 0
	fn(t)
	return true
}

func TestSchedulerBootstrapAndTick(t *testing.T) {
	ctx, s, r := newTestRenderer(t)
	s.Add(scene.NewMesh("a", scene.CubeGeometry(1), scene.DefaultMaterial()))
	host := &fakeHost{}
	sched := NewScheduler(r, host)
	if sched.State() != StateIdle {
		t.Fatalf("initial state = %d", sched.State())
	}

	sched.Start()
	if sched.State() != StateScheduled || sched.Frames() != 1 || len(ctx.Draws) != 1 {
		t.Fatalf("after start: state %d, frames %d, draws %d", sched.State(), sched.Frames(), len(ctx.Draws))
	}

	var times []time.Duration
	r.SetLoop(func(t time.Duration) { times = append(times, t) })
	host.fire(16 * time.Millisecond)
	host.fire(32 * time.Millisecond)
	if sched.Frames() != 3 || len(ctx.Draws) != 3 {
		t.Errorf("frames = %d, draws = %d", sched.Frames(), len(ctx.Draws))
	}
	if len(times) != 2 || times[1] != 32*time.Millisecond {
		t.Errorf("loop times = %v", times)
	}
}

func TestSchedulerDefersMutationsUntilTickEnds(t *testing.T) {
	ctx, s, r := newTestRenderer(t)
	mat := scene.DefaultMaterial()
	s.Add(scene.NewMesh("a", scene.CubeGeometry(1), mat))
	host := &fakeHost{}
	sched := NewScheduler(r, host)
	sched.Start()

	extra := scene.NewMesh("b", scene.CubeGeometry(1), mat)
	var state, drawsDuring, computed int
	r.SetLoop(func(time.Duration) {
		state = sched.State()
		s.Add(extra)
		computed = r.Pipeline().Count(OpDraw)
		drawsDuring = len(ctx.Draws)
	})
	host.fire(time.Second)

	if state != StateTicking {
		t.Errorf("loop ran in state %d, want %d", state, StateTicking)
	}
	if computed != 2 {
		t.Errorf("pipeline computed during the tick draws %d meshes, want 2", computed)
	}
	if drawsDuring != 1 {
		t.Errorf("pipeline executed while ticking: %d draws", drawsDuring)
	}
	if len(ctx.Draws) != 3 || sched.State() != StateScheduled {
		t.Errorf("after tick: draws %d, state %d", len(ctx.Draws), sched.State())
	}
}

func TestSchedulerStopCancelsPendingTick(t *testing.T) {
	_, s, r := newTestRenderer(t)
	s.Add(scene.NewMesh("a", scene.CubeGeometry(1), scene.DefaultMaterial()))
	host := &fakeHost{}
	sched := NewScheduler(r, host)
	sched.Start()

	sched.Stop()
	if host.cancelled != 1 || sched.State() != StateBootstrapped {
		t.Fatalf("cancelled %d, state %d", host.cancelled, sched.State())
	}
	if host.fire(time.Second) {
		t.Fatal("a cancelled tick fired")
	}

	sched.Start()
	if sched.State() != StateScheduled || sched.Frames() != 1 {
		t.Errorf("restart must only re-arm: state %d, frames %d", sched.State(), sched.Frames())
	}
}

func TestSchedulerStopFromLoop(t *testing.T) {
	ctx, s, r := newTestRenderer(t)
	s.Add(scene.NewMesh("a", scene.CubeGeometry(1), scene.DefaultMaterial()))
	host := &fakeHost{}
	sched := NewScheduler(r, host)
	sched.Start()
	r.SetLoop(func(time.Duration) { sched.Stop() })

	host.fire(time.Second)
	if len(ctx.Draws) != 1 || host.pending != 0 {
		t.Errorf("stopped tick drew %d times, pending %d", len(ctx.Draws), host.pending)
	}
}

func TestShaderErrorIsLoggedAndTickingContinues(t *testing.T) {
	ctx, s, r := newTestRenderer(t)
	obs, logs := observer.New(zapcore.ErrorLevel)
	SetLogger(zap.New(obs))
	ctx.CompileError = func(vertex, fragment string) error {
		return errors.New("0:12: syntax error")
	}
	s.Add(scene.NewMesh("a", scene.CubeGeometry(1), scene.NewMaterial("red", core.ColorRed)))

	host := &fakeHost{}
	sched := NewScheduler(r, host)
	sched.Start()
	host.fire(time.Second)
	host.fire(2 * time.Second)

	if sched.Frames() != 3 || sched.State() != StateScheduled {
		t.Errorf("frames = %d, state = %d", sched.Frames(), sched.State())
	}
	entries := logs.FilterMessage("shader program failed to build").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d build failures, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["program"]; got != "material:red" {
		t.Errorf("program field = %v", got)
	}
}
