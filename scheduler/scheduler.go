// Package scheduler expresses every wait in loginflow as a scheduled callback.
//
// Two implementations are provided: [Real], backed by runtime timers, and
// [Virtual], a manually advanced clock used by tests and the simulator.
// Both guarantee that callbacks never run in parallel with each other.
package scheduler

import "time"

// Handle cancels a scheduled callback. Cancel reports whether the callback
// was still pending; cancelling twice is harmless.
type Handle interface {
	Cancel() bool
}

// Scheduler runs callbacks after a delay or periodically.
type Scheduler interface {
	Now() time.Time
	ScheduleOnce(delay time.Duration, fn func()) Handle
	SchedulePeriodic(period time.Duration, fn func()) Handle
}

// Cancel cancels h when it is non-nil.
func Cancel(h Handle) {
	if h != nil {
		h.Cancel()
	}
}
