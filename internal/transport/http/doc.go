// Package http wires the loginflow Engine into a chi router for the demo
// server. Handlers live in the handler subpackage; the route guard and the
// per-IP throttle come from the public middleware package.
package http
