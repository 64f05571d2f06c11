// Package internal holds the packages private to loginflow.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - rate: Redis fixed-window counters for failed logins and codes
//   - stores: Redis account storage behind the registrar
//   - transport/http: chi router and handlers for the demo server
//
// # What this package must NOT do
//
//   - Export types that appear in the public loginflow API.
//   - Be imported by any package outside the loginflow module.
package internal
