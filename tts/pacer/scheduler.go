package pacer

import "time"

// DefaultFrameInterval approximates a 60 Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler runs fn once at some later point and returns a function that
// cancels it. Cancelling after fn has run is a no-op.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(fn func()) func()

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) func() {
	return f(fn)
}

// FrameScheduler schedules callbacks a fixed interval in the future.
type FrameScheduler struct {
	Interval time.Duration
}

// NewFrameScheduler returns a FrameScheduler firing every interval. A
// non-positive interval uses DefaultFrameInterval.
func NewFrameScheduler(interval time.Duration) FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return FrameScheduler{Interval: interval}
}

// Schedule implements Scheduler using time.AfterFunc.
func (s FrameScheduler) Schedule(fn func()) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	t := time.AfterFunc(interval, fn)
	return func() { t.Stop() }
}
