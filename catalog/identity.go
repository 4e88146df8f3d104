package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/reqrep/transform/messagecontext"
)

// CorrelationID stamps a correlation header onto the request if one is
// not already present, using google/uuid rather than the teacher's
// hand-rolled requestid.generateID — see DESIGN.md.
type CorrelationID struct {
	Header string
}

func (CorrelationID) Name() string { return "correlation-id" }

func (CorrelationID) Configure(p Params) (BufferedTransform, error) {
	header := p.optional("header", "X-Correlation-ID")
	return CorrelationID{Header: header}, nil
}

func (t CorrelationID) ShouldApply(c messagecontext.Buffered) bool {
	return c.Header(t.Header) == ""
}

func (t CorrelationID) Apply(c messagecontext.Buffered) error {
	c.SetHeader(t.Header, uuid.NewString())
	return nil
}

// RequestID stamps a per-hop request identifier, distinct from
// CorrelationID in that it is always regenerated, never inherited.
type RequestID struct {
	Header string
}

func (RequestID) Name() string { return "request-id" }

func (RequestID) Configure(p Params) (BufferedTransform, error) {
	header := p.optional("header", "X-Request-ID")
	return RequestID{Header: header}, nil
}

func (RequestID) ShouldApply(messagecontext.Buffered) bool { return true }

func (t RequestID) Apply(c messagecontext.Buffered) error {
	c.SetHeader(t.Header, uuid.NewString())
	return nil
}

// GatewayMetadata injects a gateway-generated requestId (32 lowercase hex
// characters, dashes stripped) into the outbound request as a header, for
// upstreams that want a compact trace-correlatable token rather than a
// dashed UUID.
type GatewayMetadata struct {
	Header string
}

func (GatewayMetadata) Name() string { return "gateway-metadata" }

func (GatewayMetadata) Configure(p Params) (BufferedTransform, error) {
	header := p.optional("header", "X-Gateway-Request-Id")
	return GatewayMetadata{Header: header}, nil
}

func (GatewayMetadata) ShouldApply(messagecontext.Buffered) bool { return true }

func (t GatewayMetadata) Apply(c messagecontext.Buffered) error {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	c.SetHeader(t.Header, id)
	return nil
}
