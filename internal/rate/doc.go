// Package rate provides Redis-backed fixed-window attempt counters used by
// the HTTP transport to throttle failed logins and OTP submissions.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:<scope>:u:<subject>" and "<prefix>:<scope>:ip:<ip>".
//
// # What this package must NOT do
//
//   - Decide what counts as a failure (callers do).
//   - Be imported outside the loginflow module.
package rate
