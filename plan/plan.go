// Package plan holds the resolved, per-route transformation plan: an
// ordered list of configured transforms per side, each with its own
// timeout and failure-mode override.
package plan

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// FailureMode controls what the pipeline executor does when a transform
// returns an error.
type FailureMode int

const (
	// StopPipeline aborts the remaining transforms on this side and
	// surfaces a TransformationFailure to the host.
	StopPipeline FailureMode = iota
	// Continue runs the remaining transforms despite the error.
	Continue
	// LogAndSkip logs the error and proceeds, identical to Continue
	// except for the log event it emits.
	LogAndSkip
)

func (m FailureMode) String() string {
	switch m {
	case Continue:
		return "continue"
	case LogAndSkip:
		return "log-and-skip"
	default:
		return "stop-pipeline"
	}
}

// ParseFailureMode parses the config/route-row string form of a
// FailureMode. An empty string is not a valid mode; callers that want a
// "use the global default" behavior should check for an empty string
// before calling this, per the explicit-flag-fallback rule.
func ParseFailureMode(s string) (FailureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stop-pipeline", "stop":
		return StopPipeline, nil
	case "continue":
		return Continue, nil
	case "log-and-skip", "logandskip":
		return LogAndSkip, nil
	default:
		return 0, fmt.Errorf("plan: unknown failure mode %q", s)
	}
}

// Entry is one configured transform within a Detail, bound to a name from
// the catalog plus the parameters it was configured with.
type Entry struct {
	// Order determines execution sequence; ties break in insertion order.
	Order int

	TransformName string
	Params        map[string]string

	// Timeout, when non-zero, overrides the global default for this entry
	// only.
	Timeout time.Duration

	// FailureModeSet records whether FailureMode was explicitly configured
	// for this entry. When false, the pipeline falls back to the Detail's
	// FailureMode, and then to the global default — never silently to
	// StopPipeline's zero value.
	FailureModeSet bool
	FailureMode    FailureMode

	// AllowParallel marks this entry as safe to run concurrently with
	// other AllowParallel entries at the same Order.
	AllowParallel bool
}

// Detail is the resolved transformation plan for one route: an ordered
// set of entries for each side of the exchange.
type Detail struct {
	Request  []Entry
	Response []Entry

	// FailureModeSet/FailureMode give the per-route default that entries
	// without their own explicit mode fall back to.
	FailureModeSet bool
	FailureMode    FailureMode
}

// Empty is the canonical zero-transform plan, returned by a Detail
// Provider for routes with no configured transforms.
var Empty = Detail{}

// Equal reports structural equality between two Details. Details are
// small, infrequently compared values (cache-hit short-circuiting, mostly,
// and tests), so reflect.DeepEqual is used rather than a generated
// equality method.
func (d Detail) Equal(other Detail) bool {
	return reflect.DeepEqual(d, other)
}

// Sorted returns entries ordered by Order, with ties broken by original
// (insertion) position — a stable sort over the input slice's index.
func Sorted(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// EffectiveFailureMode resolves an entry's failure mode against the
// Detail's per-route default and finally the global default, in that
// order of precedence.
func EffectiveFailureMode(e Entry, d Detail, globalDefault FailureMode) FailureMode {
	if e.FailureModeSet {
		return e.FailureMode
	}
	if d.FailureModeSet {
		return d.FailureMode
	}
	return globalDefault
}

// EffectiveTimeout resolves an entry's timeout against the global default
// when the entry leaves it unset (zero).
func EffectiveTimeout(e Entry, globalDefault time.Duration) time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return globalDefault
}
