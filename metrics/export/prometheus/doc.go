// Package prometheus serves loginflow state in Prometheus text exposition
// format.
//
// [New] wraps a [loginflow.Engine]. Every scrape reads the live flow gauges
// (session_active, session_remaining_seconds and the dialog states) and, when
// metrics are enabled, the loginflow_*_total counters and the
// loginflow_login_latency_seconds histogram. Callers mount [Exporter.Handler]
// themselves; nothing is registered globally.
package prometheus
