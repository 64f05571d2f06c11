// Package session owns the lifecycle of the time-limited login session:
// issuing it, counting it down, expiring it exactly once and revoking it.
//
// # Persistence
//
// A session is two keys in a key-value [Store]: a "loggedIn" flag and a
// "sessionExpiresAt" epoch-millisecond timestamp. [RedisStore] keeps them
// in Redis under a prefix; [MemoryStore] keeps them in process.
//
// # Architecture boundaries
//
// [Manager] is the only writer of the session keys. It does NOT navigate or
// render notices; it reports expiry and countdown through [Hooks] and the
// Engine turns those into hand-offs.
//
// # What this package must NOT do
//
//   - Import loginflow, workflow or registration (no upward imports).
//   - Persist the password or identifier used to log in.
package session
