package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Real schedules callbacks on runtime timers. Callback execution is
// serialised through a single mutex, so the process behaves as one logical
// thread even though timers fire on separate goroutines.
type Real struct {
	run sync.Mutex
}

// NewReal returns a wall-clock scheduler.
func NewReal() *Real {
	return &Real{}
}

func (s *Real) Now() time.Time {
	return time.Now()
}

type realHandle struct {
	cancelled atomic.Bool
	timer     *time.Timer
	stop      chan struct{}
	stopOnce  sync.Once
}

func (h *realHandle) Cancel() bool {
	if !h.cancelled.CompareAndSwap(false, true) {
		return false
	}
	if h.timer != nil {
		return h.timer.Stop()
	}
	h.stopOnce.Do(func() { close(h.stop) })
	return true
}

func (s *Real) ScheduleOnce(delay time.Duration, fn func()) Handle {
	h := &realHandle{}
	h.timer = time.AfterFunc(delay, func() {
		s.run.Lock()
		defer s.run.Unlock()
		// Cancel may race with the timer firing; the flag decides.
		if !h.cancelled.CompareAndSwap(false, true) {
			return
		}
		fn()
	})
	return h
}

func (s *Real) SchedulePeriodic(period time.Duration, fn func()) Handle {
	h := &realHandle{stop: make(chan struct{})}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				s.run.Lock()
				if h.cancelled.Load() {
					s.run.Unlock()
					return
				}
				fn()
				s.run.Unlock()
			}
		}
	}()
	return h
}
