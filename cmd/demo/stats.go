package main

import (
	"time"

	"go.uber.org/zap"

	"render-graph/internal/logger"
)

// frameStats logs the frame rate once per interval.
type frameStats struct {
	interval time.Duration
	start    time.Duration
	frames   int
}

func newFrameStats(interval time.Duration) *frameStats {
	return &frameStats{interval: interval}
}

// frame counts one frame at time t and returns the frame rate when an
// interval has elapsed, or 0.
func (fs *frameStats) frame(t time.Duration, dn *DayNight) float64 {
	fs.frames++
	elapsed := t - fs.start
	if elapsed < fs.interval {
		return 0
	}
	fps := float64(fs.frames) / elapsed.Seconds()
	logger.Log.Debug("frame stats",
		zap.Float64("fps", fps),
		zap.String("time_of_day", dn.TimeOfDayStr()),
	)
	fs.start = t
	fs.frames = 0
	return fps
}
