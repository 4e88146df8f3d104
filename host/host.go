// Package host defines the Host Adapter Surface (Component G): the
// external, contracted-only boundary between the transformation core and
// whatever HTTP framework actually terminates connections. The core
// never imports a specific host implementation; it only imports this
// package's interfaces.
package host

import "io"

// Headers is a case-insensitive, multi-valued header view, satisfied by
// http.Header and any equivalent a host framework exposes.
type Headers interface {
	Get(key string) string
	Values(key string) []string
	Set(key, value string)
	Add(key, value string)
	Del(key string)
}

// BodySink lets the pipeline capture, swap, and restore a response body
// stream without assuming anything about how the host writes bytes to
// the wire. Implementations must restore the original sink
// unconditionally, even when the forwarder itself fails — a capture must
// never leave the downstream writer permanently swapped.
type BodySink interface {
	// Capture begins buffering writes instead of passing them through.
	Capture()
	// CapturedBody returns the bytes captured since Capture was called.
	CapturedBody() []byte
	// Restore stops capturing and resumes passing writes straight
	// through to the original sink.
	Restore()
}

// Exchange is the minimal per-request surface the pipeline needs from a
// host implementation: headers for both sides, a body reader/writer, and
// a way to set the final Content-Length once the response body is fixed.
type Exchange interface {
	RequestHeaders() Headers
	ResponseHeaders() Headers

	RequestBody() io.Reader
	ResponseBody() BodySink

	SetContentLength(n int)
	SetStatusCode(code int)
}

// GatewayErrorMessage formats the fixed 502 body the pipeline returns to
// the original caller when a StopPipeline-mode transform fails.
func GatewayErrorMessage(side, transform string) string {
	return "Gateway error: " + side + " transformation failed in '" + transform + "'."
}
