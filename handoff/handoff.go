// Package handoff defines the collaborators loginflow hands control back to:
// navigation, transient notices and the registration backend.
//
// Implementations live with the UI layer. [Recorder] is an in-memory
// implementation used by the demo server, the simulator and tests.
package handoff

import (
	"context"
	"time"
)

// Route is a navigation target understood by the UI layer.
type Route string

const (
	RouteLogin     Route = "/"
	RouteRegister  Route = "/register"
	RouteDashboard Route = "/dashboard"
)

// Navigator moves the UI to a route.
type Navigator interface {
	GoTo(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) GoTo(route Route) { f(route) }

// NoticeKind classifies a notice for rendering.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeAlert   NoticeKind = "alert"
)

// Notifier shows a transient notice. A zero duration means the notice stays
// until the user dismisses it.
type Notifier interface {
	ShowTransient(kind NoticeKind, message string, duration time.Duration)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(NoticeKind, string, time.Duration)

func (f NotifierFunc) ShowTransient(kind NoticeKind, message string, duration time.Duration) {
	f(kind, message, duration)
}

// Registrar receives the credentials of a completed registration.
type Registrar interface {
	Register(ctx context.Context, email, password string) error
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(ctx context.Context, email, password string) error

func (f RegistrarFunc) Register(ctx context.Context, email, password string) error {
	return f(ctx, email, password)
}

// Discard implements every collaborator and does nothing.
type Discard struct{}

func (Discard) GoTo(Route)                                     {}
func (Discard) ShowTransient(NoticeKind, string, time.Duration) {}
func (Discard) Register(context.Context, string, string) error {
	return nil
}
