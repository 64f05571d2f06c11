// Package stores provides Redis-backed persistence for registered accounts.
//
// # Design
//
// Each account is one versioned, binary-encoded record keyed by the
// lower-cased email. Register uses a WATCH/MULTI optimistic transaction with
// retry on contention so two registrations of the same email cannot both
// succeed. Passwords are stored as Argon2id PHC strings only.
//
// # What this package must NOT do
//
//   - Import loginflow or any sibling internal package.
//   - Persist or log plaintext passwords.
package stores
