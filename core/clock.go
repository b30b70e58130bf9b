package core

import "time"

// Clock supplies the current time in milliseconds on a monotonic scale.
//
// The scheduler never reads wall-clock time directly: timers, metric windows
// and pause bookkeeping all go through a Clock, so tests can substitute a
// manual one and advance it deterministically.
type Clock interface {
	// NowMillis returns milliseconds elapsed on a monotonic scale.
	// The zero point is unspecified; only differences are meaningful.
	NowMillis() int64
}

// monotonicClock measures time since its own creation, which keeps the
// monotonic reading of time.Time (time.Since strips the wall component).
type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns the default Clock used by the scheduler.
func NewMonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}
