// Package loginflow runs the state machines behind a login screen: a
// time-limited session with a countdown, simulated email OTP and password
// reset dialogs, and a registration attempt gated on a verified email.
//
// Every wait is a timer on a [scheduler.Scheduler]. Production code uses the
// real clock; tests and the simulator drive a virtual one, so each timeline
// is reproducible to the millisecond.
//
// # Architecture boundaries
//
// loginflow is the public surface. It exposes [Engine], [Builder], [Config]
// and value types (DashboardView, RegistrationSnapshot, MetricsSnapshot).
// The state machines live in session, workflow and registration; audit
// dispatch lives under internal/. Control is handed back to the UI layer only
// through the handoff interfaces (Navigator, Notifier, Registrar).
//
// # What this package must NOT do
//
//   - Authenticate against a user database. Any well-formed identifier with
//     a long enough password logs in.
//   - Echo passwords back through snapshots, audit events or logs.
//   - Perform I/O in Builder.Build. The persisted session is read by
//     Engine.Init.
package loginflow
