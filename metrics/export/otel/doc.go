// Package otel publishes loginflow state through OpenTelemetry observable
// instruments: one gauge per live flow gauge, one counter per
// loginflow_*_total counter and one gauge per latency bucket.
//
// A single callback reads the engine on each collection cycle. Callers own
// the MeterProvider and pass in a Meter.
package otel
