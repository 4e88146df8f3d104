// Package payload implements the buffered/streaming body abstraction that
// sits between the wire body and the transform catalog: a single parse,
// a single serialize, and a small atomic state machine that makes the
// first access to the body race-safe without a mutex.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync/atomic"
)

// state tracks how far the payload has progressed from "untouched wire
// bytes" towards a form a transform actually asked for.
type state int32

const (
	stateUnread state = iota
	stateBufferedOnly
	stateParsedJSON
	stateDirtyJSON
	stateDirtyBuffer
	stateReplacedStream
)

// PayloadAccessViolation is returned when a transform requests an access
// the payload's current shape or state cannot satisfy — e.g. GetJson on a
// streaming payload, or GetBuffer after the stream sink has been replaced.
type PayloadAccessViolation struct {
	Op     string
	Reason string
}

func (e *PayloadAccessViolation) Error() string {
	return fmt.Sprintf("payload: %s: %s", e.Op, e.Reason)
}

var jsonPrefixes = []string{"application/json", "application/graphql", "application/ndjson"}
var streamingPrefixes = []string{"application/octet-stream", "multipart/", "application/grpc", "application/protobuf", "application/vnd.google.protobuf"}

// Payload wraps a message body. For small/structured bodies the raw bytes
// are buffered eagerly by the host adapter; for large/opaque bodies only
// an io.Reader is kept until a transform asks to replace it.
type Payload struct {
	contentType string
	hasBody     bool

	state atomic.Int32

	buf  []byte
	tree any

	stream io.Reader
}

// New constructs a Payload. Exactly one of buf or stream should be set by
// the caller (the host adapter), matching whether the body was eagerly
// read or left as a stream.
func New(contentType string, buf []byte, stream io.Reader) *Payload {
	p := &Payload{
		contentType: contentType,
		hasBody:     len(buf) > 0 || stream != nil,
		buf:         buf,
		stream:      stream,
	}
	if stream != nil {
		p.state.Store(int32(stateUnread))
	} else if buf != nil {
		p.state.Store(int32(stateBufferedOnly))
	}
	return p
}

func (p *Payload) HasBody() bool     { return p.hasBody }
func (p *Payload) ContentType() string { return p.contentType }

// IsJson reports whether the content type declares a structured-text body
// the catalog treats as JSON-family (application/json, application/graphql,
// application/ndjson — by prefix, ignoring parameters).
func (p *Payload) IsJson() bool {
	base := baseMediaType(p.contentType)
	for _, prefix := range jsonPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

// IsStreaming reports whether the content type declares an opaque/binary
// body the catalog never attempts to parse (octet-stream, multipart,
// grpc, protobuf).
func (p *Payload) IsStreaming() bool {
	base := baseMediaType(p.contentType)
	for _, prefix := range streamingPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

func baseMediaType(contentType string) string {
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fall back to a raw prefix match; malformed Content-Type headers
		// are treated as opaque text rather than rejected outright.
		if i := strings.IndexByte(contentType, ';'); i >= 0 {
			return strings.TrimSpace(contentType[:i])
		}
		return strings.TrimSpace(contentType)
	}
	return base
}

// firstParse transitions Unread -> BufferedOnly exactly once,
// regardless of how many goroutines call a Get* accessor concurrently.
// Only the goroutine that wins the CAS performs the actual buffer read;
// losers spin on Load until the winner publishes the result.
func (p *Payload) firstParse() error {
	for {
		s := state(p.state.Load())
		switch s {
		case stateUnread:
			if p.state.CompareAndSwap(int32(stateUnread), int32(-1)) {
				// -1 is a transient "in progress" marker no public state
				// constant aliases, so concurrent readers never observe
				// a final state prematurely.
				buf, err := io.ReadAll(p.stream)
				if err != nil {
					p.state.Store(int32(stateUnread))
					return err
				}
				p.buf = buf
				p.state.Store(int32(stateBufferedOnly))
				return nil
			}
			// Lost the race; re-check.
			continue
		case -1:
			continue
		default:
			return nil
		}
	}
}

// GetBuffer returns the raw body bytes, parsing the stream into a buffer
// on first access if necessary.
func (p *Payload) GetBuffer() ([]byte, error) {
	if p.state.Load() == int32(stateReplacedStream) {
		return nil, &PayloadAccessViolation{"GetBuffer", "stream sink has been replaced and cannot be re-buffered"}
	}
	if err := p.firstParse(); err != nil {
		return nil, err
	}
	return p.buf, nil
}

// GetJson returns the parsed JSON tree (map[string]any / []any / scalar),
// shared by reference: mutations made through the returned value are
// visible to subsequent GetJson calls without a SetJson round-trip.
func (p *Payload) GetJson() (any, error) {
	if !p.IsJson() {
		return nil, &PayloadAccessViolation{"GetJson", "content type is not JSON-family"}
	}
	if err := p.firstParse(); err != nil {
		return nil, err
	}
	s := state(p.state.Load())
	if s == stateParsedJSON || s == stateDirtyJSON {
		return p.tree, nil
	}
	if len(p.buf) == 0 {
		p.tree = nil
	} else if err := json.Unmarshal(p.buf, &p.tree); err != nil {
		return nil, fmt.Errorf("payload: parse json: %w", err)
	}
	p.state.Store(int32(stateParsedJSON))
	return p.tree, nil
}

// SetJson replaces the JSON tree outright and marks it dirty for Flush.
func (p *Payload) SetJson(tree any) {
	p.tree = tree
	p.state.Store(int32(stateDirtyJSON))
}

// SetBuffer replaces the raw body bytes outright, discarding any parsed
// JSON tree, and marks the buffer dirty for Flush.
func (p *Payload) SetBuffer(buf []byte) {
	p.buf = buf
	p.tree = nil
	p.state.Store(int32(stateDirtyBuffer))
}

// GetPipeReader returns the payload as a stream, for transforms in the
// StreamingTransform family: the original or replaced stream, or a reader
// over the buffered bytes. It fails once the body has been parsed as JSON.
// It does not change the payload's state, so a later GetBuffer or GetJson
// is not blocked by it.
func (p *Payload) GetPipeReader() (io.Reader, error) {
	s := state(p.state.Load())
	switch s {
	case stateUnread, stateReplacedStream:
		return p.stream, nil
	case stateBufferedOnly, stateDirtyBuffer:
		return bytes.NewReader(p.buf), nil
	default:
		return nil, &PayloadAccessViolation{"GetPipeReader", "payload has already been parsed as JSON"}
	}
}

// ReplaceStream swaps the body for a new stream outright. After this call
// GetBuffer/GetJson are no longer available: payload access is
// streaming-only for the remainder of the pipeline.
func (p *Payload) ReplaceStream(r io.Reader) {
	p.stream = r
	p.buf = nil
	p.tree = nil
	p.state.Store(int32(stateReplacedStream))
	p.hasBody = true
}

// Flush renders the payload's current form back to wire bytes, honoring
// the priority order: a dirty JSON tree wins over a dirty raw buffer,
// which wins over the last-read buffered bytes. The bool reports a
// possible change: it is false for a buffer that has only been read (its
// bytes are still returned) and true once the body has been parsed as
// JSON or set by a transform. It returns (nil, false) when the payload
// was never read and nothing needs to be written back.
func (p *Payload) Flush() ([]byte, bool, error) {
	s := state(p.state.Load())
	switch s {
	case stateDirtyJSON:
		out, err := json.Marshal(p.tree)
		if err != nil {
			return nil, false, fmt.Errorf("payload: flush json: %w", err)
		}
		return out, true, nil
	case stateDirtyBuffer, stateParsedJSON:
		return p.buf, true, nil
	case stateBufferedOnly:
		return p.buf, false, nil
	case stateReplacedStream:
		return nil, false, errors.New("payload: flush: stream sink must be drained by the host adapter, not Flush")
	default:
		return nil, false, nil
	}
}
