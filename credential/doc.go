// Package credential holds the pure predicates used to judge identifiers,
// passwords, one-time codes and calendar dates, plus the error taxonomy shared
// by every flow that consumes them.
//
// # Architecture boundaries
//
// This package is the single home of the identifier and password patterns.
// Session, workflow and registration code call into it instead of carrying
// their own regular expressions.
//
// # What this package must NOT do
//
//   - Import loginflow or any sibling package.
//   - Decide user-facing wording; predicates return booleans only.
//   - Perform I/O.
package credential
