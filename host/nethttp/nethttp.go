// Package nethttp implements the host.Exchange contract over net/http,
// forwarding to an upstream via httputil.ReverseProxy. Body capture is
// grounded on the teacher's middlewares/bodydump idiom: swap the
// http.ResponseWriter for a buffering wrapper, let the proxy write
// through it, then restore the original writer before the handler
// returns — restoring unconditionally, even on a forwarder error.
package nethttp

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/reqrep/transform/host"
)

// headerAdapter satisfies host.Headers over an http.Header.
type headerAdapter struct{ h http.Header }

func (a headerAdapter) Get(key string) string        { return a.h.Get(key) }
func (a headerAdapter) Values(key string) []string    { return a.h.Values(key) }
func (a headerAdapter) Set(key, value string)         { a.h.Set(key, value) }
func (a headerAdapter) Add(key, value string)         { a.h.Add(key, value) }
func (a headerAdapter) Del(key string)                { a.h.Del(key) }

// bodySink buffers response writes instead of passing them straight to
// the underlying http.ResponseWriter, until Restore is called.
type bodySink struct {
	underlying http.ResponseWriter
	buf        bytes.Buffer
	capturing  bool
}

func (b *bodySink) Capture() { b.capturing = true }

func (b *bodySink) CapturedBody() []byte { return b.buf.Bytes() }

func (b *bodySink) Restore() { b.capturing = false }

// Write implements io.Writer so bodySink can stand in for the proxy's
// response destination while capturing is active.
func (b *bodySink) Write(p []byte) (int, error) {
	if b.capturing {
		return b.buf.Write(p)
	}
	return b.underlying.Write(p)
}

// Exchange adapts one net/http request/response pair to host.Exchange.
type Exchange struct {
	Req *http.Request
	W   http.ResponseWriter

	body *bodySink
}

// NewExchange wraps req/w. The response body is captured by default so
// the pipeline can run response transforms before anything reaches the
// client; call Flush to write the final, possibly-transformed body.
func NewExchange(w http.ResponseWriter, req *http.Request) *Exchange {
	sink := &bodySink{underlying: w, capturing: true}
	return &Exchange{Req: req, W: w, body: sink}
}

func (e *Exchange) RequestHeaders() host.Headers  { return headerAdapter{e.Req.Header} }
func (e *Exchange) ResponseHeaders() host.Headers { return headerAdapter{e.W.Header()} }
func (e *Exchange) RequestBody() io.Reader { return e.Req.Body }
func (e *Exchange) ResponseBody() host.BodySink { return e.body }

func (e *Exchange) SetContentLength(n int) {
	e.W.Header().Set("Content-Length", strconv.Itoa(n))
}

func (e *Exchange) SetStatusCode(code int) {
	e.W.WriteHeader(code)
}

// Flush writes the captured (and possibly transformed) response body to
// the real underlying writer, restoring it unconditionally afterward so
// the writer is never left in a permanently-swapped state.
func (e *Exchange) Flush(body []byte) error {
	defer e.body.Restore()
	_, err := e.body.underlying.Write(body)
	return err
}

// NewReverseProxy builds an httputil.ReverseProxy targeting upstream,
// grounded on middlewares/proxy's Options{Target, Rewrite}.
func NewReverseProxy(upstream *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	originalDirector := proxy.Director
	proxy.Director = func(r *http.Request) {
		originalDirector(r)
		r.Host = upstream.Host
	}
	return proxy
}
