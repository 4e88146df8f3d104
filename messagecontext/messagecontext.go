// Package messagecontext holds the per-message state a transform sees:
// method, address, headers, payload, and the side (request or response)
// the message belongs to. It is framework-independent — nothing here
// names net/http.Request or any router type.
package messagecontext

import (
	"context"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/reqrep/transform/payload"
)

// Side identifies which leg of an exchange a Context represents.
type Side int

const (
	Request Side = iota
	Response
)

func (s Side) String() string {
	if s == Response {
		return "response"
	}
	return "request"
}

// Context is the shared, mutable state a transform operates on. It is
// never used directly by transform code — callers receive it narrowed to
// Buffered or Streaming, matching the family their transform belongs to.
type Context struct {
	ctx     context.Context
	side    Side
	method  string
	address *url.URL
	header  http.Header
	payload *payload.Payload

	// StatusCode is only meaningful when side == Response.
	StatusCode int
}

// New builds a Context for the given side.
func New(ctx context.Context, side Side, method string, address *url.URL, header http.Header, p *payload.Payload) *Context {
	if header == nil {
		header = make(http.Header)
	}
	return &Context{
		ctx:     ctx,
		side:    side,
		method:  method,
		address: address,
		header:  header,
		payload: p,
	}
}

func (c *Context) Context() context.Context { return c.ctx }
func (c *Context) Side() Side               { return c.side }
func (c *Context) Method() string           { return c.method }
func (c *Context) Address() *url.URL        { return c.address }
func (c *Context) Payload() *payload.Payload { return c.payload }

// Header returns the canonical (textproto-cased) header value, matching
// net/http's own case-insensitive lookup semantics.
func (c *Context) Header(key string) string {
	return c.header.Get(key)
}

func (c *Context) HeaderValues(key string) []string {
	return c.header.Values(key)
}

func (c *Context) SetHeader(key, value string) {
	c.header.Set(key, value)
}

func (c *Context) AddHeader(key, value string) {
	c.header.Add(key, value)
}

func (c *Context) RemoveHeader(key string) {
	c.header.Del(key)
}

func (c *Context) HeaderKeys() []string {
	keys := make([]string, 0, len(c.header))
	for k := range c.header {
		keys = append(keys, textproto.CanonicalMIMEHeaderKey(k))
	}
	return keys
}

func (c *Context) SetMethod(method string) { c.method = method }

// Buffered is the view of a Context a BufferedTransform receives. It
// embeds *Context, so Payload() returns the full *payload.Payload: the
// streaming accessors are reachable from it as well.
type Buffered struct {
	*Context
}

func AsBuffered(c *Context) Buffered { return Buffered{c} }

// Streaming is the view of a Context a StreamingTransform receives. It
// embeds *Context, so Payload() returns the full *payload.Payload: the
// buffer/JSON accessors are reachable from it as well.
type Streaming struct {
	*Context
}

func AsStreaming(c *Context) Streaming { return Streaming{c} }
