package handoff

import (
	"context"
	"sync"
	"time"
)

// EventType distinguishes recorded hand-offs.
type EventType string

const (
	EventNavigate EventType = "navigate"
	EventNotice   EventType = "notice"
	EventRegister EventType = "register"
)

// Event is one recorded hand-off.
type Event struct {
	At       time.Time     `json:"at"`
	Type     EventType     `json:"type"`
	Route    Route         `json:"route,omitempty"`
	Kind     NoticeKind    `json:"kind,omitempty"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Email    string        `json:"email,omitempty"`
}

// Recorder keeps every hand-off in memory. It implements Navigator,
// Notifier and Registrar and is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	now    func() time.Time
	events []Event
	route  Route
}

// NewRecorder returns a Recorder stamping events with now. A nil now uses
// time.Now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now, route: RouteLogin}
}

func (r *Recorder) GoTo(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = route
	r.events = append(r.events, Event{At: r.now(), Type: EventNavigate, Route: route})
}

func (r *Recorder) ShowTransient(kind NoticeKind, message string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{At: r.now(), Type: EventNotice, Kind: kind, Message: message, Duration: duration})
}

// Register records the email only; the password is never retained.
func (r *Recorder) Register(_ context.Context, email, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{At: r.now(), Type: EventRegister, Email: email})
	return nil
}

// Route returns the last navigation target.
func (r *Recorder) Route() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

// Events returns a copy of every recorded event.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns recorded events of the given type.
func (r *Recorder) Filter(typ EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
