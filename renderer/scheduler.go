package renderer

import (
	"time"

	"go.uber.org/zap"

	"render-graph/internal/logger"
)

// Scheduler states.
const (
	StateIdle          = 0 // not started
	StateBootstrapping = 1 // first pipeline compiling and executing
	StateBootstrapped  = 2 // first frame done
	StateScheduled     = 3 // a tick is armed with the frame host
	StateTicking       = 4 // the loop callback is executing
)

// FrameHost delivers one callback per display refresh.
type FrameHost interface {
	// RequestFrame schedules fn and returns a handle for CancelFrame.
	RequestFrame(fn func(time.Duration)) uint64
	CancelFrame(id uint64)
}

// Scheduler drives a Renderer from a FrameHost. Every tick runs the loop
// callback, recompiles the pipeline if anything changed and executes it.
type Scheduler struct {
	r       *Renderer
	host    FrameHost
	state   int
	pending uint64
	frames  uint64
}

func NewScheduler(r *Renderer, host FrameHost) *Scheduler {
	return &Scheduler{r: r, host: host}
}

// State returns the current scheduler state.
func (s *Scheduler) State() int { return s.state }

// Frames returns the number of executed frames.
func (s *Scheduler) Frames() uint64 { return s.frames }

// Start compiles and executes the first frame, then arms the first tick.
// Bootstrap runs once: restarting a stopped scheduler only re-arms it.
func (s *Scheduler) Start() {
	switch s.state {
	case StateBootstrapped:
		s.arm()
		return
	case StateIdle:
	default:
		return
	}
	s.state = StateBootstrapping
	p := s.r.Pipeline()
	p.Run()
	s.state = StateBootstrapped
	s.frames++
	logger.Log.Info("scheduler started", zap.Int("ops", len(p)))
	s.arm()
}

// Stop cancels the armed tick. A stopped scheduler can be started again.
func (s *Scheduler) Stop() {
	if s.pending != 0 {
		s.host.CancelFrame(s.pending)
		s.pending = 0
	}
	if s.state != StateIdle {
		s.state = StateBootstrapped
	}
}

func (s *Scheduler) arm() {
	s.state = StateScheduled
	s.pending = s.host.RequestFrame(s.tick)
}

func (s *Scheduler) tick(t time.Duration) {
	if s.state != StateScheduled {
		return
	}
	s.pending = 0
	s.state = StateTicking
	s.r.SetTime(t)
	if loop := s.r.Loop(); loop != nil {
		loop(t)
	}
	// A loop callback may stop the scheduler.
	if s.state != StateTicking {
		return
	}
	s.state = StateScheduled
	s.r.Pipeline().Run()
	s.frames++
	if s.state == StateScheduled {
		s.arm()
	}
}
