// Package workflow implements the generic "submit a value, wait a simulated
// delay, resolve" state machine behind email OTP verification and password
// reset.
//
// A [Process] moves Idle → Submitting → Succeeded or Failed. Validation runs
// synchronously before any timer starts; once a submission is accepted it
// always succeeds after [Spec.Delay]. A success schedules a second,
// auto-close transition after [Spec.AutoCloseDelay].
package workflow

import (
	"errors"
	"sync"

	"github.com/MrEthical07/loginflow/scheduler"
	"github.com/google/uuid"
)

var (
	// ErrBusy is returned when Submit is called while a submission is pending.
	ErrBusy = errors.New("workflow: submission in progress")
	// ErrRejected is returned when the input fails Spec.Validate.
	ErrRejected = errors.New("workflow: input rejected")
	// ErrCompleted is returned when Submit is called after success.
	ErrCompleted = errors.New("workflow: already succeeded")
	// ErrClosed is returned when Submit is called on a closed process.
	ErrClosed = errors.New("workflow: process closed")
)

// State is a Process state.
type State uint8

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Hooks observe a Process. They run without the Process lock held, in
// transition order.
type Hooks struct {
	OnTransition func(id string, from, to State)
	OnSuccess    func(id, input string)
	OnAutoClose  func(id string)
}

// Snapshot is a read-only view of a Process for rendering.
type Snapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	State     State  `json:"state"`
	Input     string `json:"input,omitempty"`
	Succeeded bool   `json:"succeeded"`
	Closed    bool   `json:"closed"`
}

// Process is one verification dialog's worth of state. It is safe for
// concurrent use; at most one transition timer is outstanding at any time.
type Process struct {
	spec  Spec
	sched scheduler.Scheduler
	hooks Hooks

	mu        sync.Mutex
	id        string
	state     State
	input     string
	succeeded bool
	closed    bool
	pending   scheduler.Handle
	gen       uint64
}

// New returns an Idle process.
func New(spec Spec, sched scheduler.Scheduler, hooks Hooks) *Process {
	return &Process{
		spec:  spec.withDefaults(),
		sched: sched,
		hooks: hooks,
		id:    uuid.NewString(),
	}
}

type transition struct {
	from, to State
}

// Submit starts a submission of input. Invalid input fails synchronously
// with ErrRejected and schedules nothing.
func (p *Process) Submit(input string) error {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrClosed
	case p.state == Submitting:
		p.mu.Unlock()
		return ErrBusy
	case p.state == Succeeded:
		p.mu.Unlock()
		return ErrCompleted
	}

	id := p.id
	steps := []transition{{from: p.state, to: Submitting}}
	p.state = Submitting
	p.input = input

	if p.spec.Validate != nil && !p.spec.Validate(input) {
		p.state = Failed
		steps = append(steps, transition{from: Submitting, to: Failed})
		p.mu.Unlock()
		p.emit(id, steps)
		return ErrRejected
	}

	p.gen++
	gen := p.gen
	p.pending = p.sched.ScheduleOnce(p.spec.Delay, func() { p.resolve(gen) })
	p.mu.Unlock()

	p.emit(id, steps)
	return nil
}

func (p *Process) resolve(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.state != Submitting {
		p.mu.Unlock()
		return
	}
	p.state = Succeeded
	p.succeeded = true
	id, input := p.id, p.input
	p.pending = p.sched.ScheduleOnce(p.spec.AutoCloseDelay, func() { p.autoClose(gen) })
	p.mu.Unlock()

	p.emit(id, []transition{{from: Submitting, to: Succeeded}})
	if p.hooks.OnSuccess != nil {
		p.hooks.OnSuccess(id, input)
	}
}

func (p *Process) autoClose(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.state != Succeeded || p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.pending = nil
	p.input = ""
	id := p.id
	p.mu.Unlock()

	if p.hooks.OnAutoClose != nil {
		p.hooks.OnAutoClose(id)
	}
}

// Reset cancels anything pending and returns the process to Idle with a
// fresh id, as when its dialog is reopened.
func (p *Process) Reset() {
	p.mu.Lock()
	prev := p.state
	p.cancelLocked()
	p.id = uuid.NewString()
	p.state = Idle
	p.input = ""
	p.succeeded = false
	p.closed = false
	id := p.id
	p.mu.Unlock()

	if prev != Idle {
		p.emit(id, []transition{{from: prev, to: Idle}})
	}
}

// Close discards the process as when its dialog is dismissed. Pending
// transitions are cancelled; the result flag is kept. Dropping a submission
// reports Submitting → Idle to OnTransition.
func (p *Process) Close() {
	p.mu.Lock()
	p.cancelLocked()
	var steps []transition
	if p.state == Submitting {
		p.state = Idle
		steps = append(steps, transition{from: Submitting, to: Idle})
	}
	p.closed = true
	p.input = ""
	id := p.id
	p.mu.Unlock()

	p.emit(id, steps)
}

// State returns the current state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns a copy of the current state. Sensitive inputs are never
// included.
func (p *Process) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		ID:        p.id,
		Name:      p.spec.Name,
		State:     p.state,
		Succeeded: p.succeeded,
		Closed:    p.closed,
	}
	if !p.spec.Sensitive {
		s.Input = p.input
	}
	return s
}

// Spec returns the parameters the process was built with.
func (p *Process) Spec() Spec {
	return p.spec
}

func (p *Process) cancelLocked() {
	p.gen++
	scheduler.Cancel(p.pending)
	p.pending = nil
}

func (p *Process) emit(id string, steps []transition) {
	if p.hooks.OnTransition == nil {
		return
	}
	for _, s := range steps {
		p.hooks.OnTransition(id, s.from, s.to)
	}
}

// Pending reports whether a transition timer is outstanding.
func (p *Process) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}
