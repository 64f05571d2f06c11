// Package audit dispatches flow events (logins, expiries, verification and
// registration steps) to a caller-supplied sink.
//
// # Components
//
//   - [Sink] is the consumer interface (channel, JSON lines, no-op).
//   - [Dispatcher] is a buffered async relay that either drops or blocks when full.
//   - [Event] is the record: timestamp, type, subject, correlation id, metadata.
//
// This package only buffers and delivers. Which events to emit is decided by
// the Engine.
package audit
