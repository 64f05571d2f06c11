// Package middleware adapts the loginflow route guard to net/http.
//
// # Guards
//
//   - [Guard] redirects a page route the way Engine.Resolve does.
//   - [RequireSession] answers 401 without an active session and exposes the
//     dashboard view through [DashboardFromContext].
//
// # Request plumbing
//
//   - [ClientIP] resolves the caller's address once per request and hands it
//     to the Engine for audit events.
//   - [RateLimiter] is a per-IP token bucket for the public form endpoints.
//
// # What this package must NOT do
//
//   - Decide on its own whether a session is active. Every decision comes
//     from the Engine.
//   - Access the session store directly.
package middleware
