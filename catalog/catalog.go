// Package catalog defines the transform contract (Component C) and the
// concrete transforms a Builder resolves route rows into: header and
// query manipulation, path rewriting, method override, JSON field edits,
// gateway metadata, and JWT claim projection.
package catalog

import (
	"fmt"
	"strings"

	"github.com/reqrep/transform/messagecontext"
)

// Params is the configuration bag a route row hands a transform at
// Configure time: plain string values, with pipe-delimited list/map
// helpers for the handful of transforms that need more than one value.
type Params map[string]string

// MissingParam is returned by Configure when a transform's required
// parameter is absent from the bag.
type MissingParam struct {
	Transform string
	Param     string
}

func (e *MissingParam) Error() string {
	return fmt.Sprintf("catalog: %s: missing required param %q", e.Transform, e.Param)
}

func (p Params) require(transform, key string) (string, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return "", &MissingParam{Transform: transform, Param: key}
	}
	return v, nil
}

func (p Params) optional(key, fallback string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return fallback
}

// list splits a pipe-delimited value, e.g. "a|b|c" -> ["a","b","c"].
// An empty string yields an empty slice.
func list(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, "|")
}

// pairs splits a pipe-delimited list of "key=value" entries into a map.
func pairs(v string) map[string]string {
	out := make(map[string]string)
	for _, kv := range list(v) {
		k, val, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		out[k] = val
	}
	return out
}

// BufferedTransform operates on a fully buffered/JSON-parsed message.
type BufferedTransform interface {
	// Name identifies the transform in logs, spans, and route rows.
	Name() string
	// Configure binds the transform to a route's parameters, producing a
	// fresh instance. It is called by the Builder when a route is resolved
	// and again by the pipeline Executor each time the entry runs; the
	// configured instance is not kept in the plan.
	Configure(params Params) (BufferedTransform, error)
	// ShouldApply lets a transform opt out at run time (e.g. based on a
	// header already present). Most transforms always return true.
	ShouldApply(c messagecontext.Buffered) bool
	// Apply performs the mutation.
	Apply(c messagecontext.Buffered) error
}

// StreamingTransform operates on a message without buffering its body.
type StreamingTransform interface {
	Name() string
	Configure(params Params) (StreamingTransform, error)
	ShouldApply(c messagecontext.Streaming) bool
	Apply(c messagecontext.Streaming) error
}
