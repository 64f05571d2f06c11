package scheduler

import (
	"sync"
	"time"
)

// Virtual is a deterministic scheduler driven by Advance. Due callbacks run
// on the goroutine calling Advance, in due-time order with ties broken by
// scheduling order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks map[uint64]*virtualTask
}

type virtualTask struct {
	owner  *Virtual
	id     uint64
	at     time.Time
	period time.Duration
	fn     func()
}

// NewVirtual returns a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{
		now:   start,
		tasks: make(map[uint64]*virtualTask),
	}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) ScheduleOnce(delay time.Duration, fn func()) Handle {
	return v.add(delay, 0, fn)
}

func (v *Virtual) SchedulePeriodic(period time.Duration, fn func()) Handle {
	if period <= 0 {
		period = time.Nanosecond
	}
	return v.add(period, period, fn)
}

func (v *Virtual) add(delay, period time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &virtualTask{owner: v, id: v.seq, at: v.now.Add(delay), period: period, fn: fn}
	v.tasks[t.id] = t
	return t
}

func (t *virtualTask) Cancel() bool {
	v := t.owner
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.tasks[t.id]; !ok {
		return false
	}
	delete(v.tasks, t.id)
	return true
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way. Callbacks scheduled by callbacks run too if they fall due
// before the new time.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.nextDueLocked(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = next.at
		if next.period > 0 {
			next.at = next.at.Add(next.period)
		} else {
			delete(v.tasks, next.id)
		}
		fn := next.fn
		v.mu.Unlock()

		fn()
	}
}

func (v *Virtual) nextDueLocked(target time.Time) *virtualTask {
	var next *virtualTask
	for _, t := range v.tasks {
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.id < next.id) {
			next = t
		}
	}
	return next
}

// Pending returns the number of scheduled callbacks that have not fired or
// been cancelled. Periodic callbacks count once.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tasks)
}
