// Package provider resolves an HTTP method and path into a cached,
// fully-configured plan.Detail (Component E: Detail Provider + Builder).
package provider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/reqrep/transform/catalog"
	"github.com/reqrep/transform/plan"
)

// RouteEntry is one configured-transform row, as described by spec.md §6:
// a route pattern, side, transform name, ordering, and parameters.
type RouteEntry struct {
	Method        string // "*" matches any method
	PathPattern   string // may contain "{id}" segments
	Side          string // "request" or "response"
	Order         int
	TransformName string
	Params        map[string]string

	Timeout        time.Duration
	FailureModeSet bool
	FailureMode    plan.FailureMode
	AllowParallel  bool
}

// RouteStore is the persistence contract a Builder reads route rows from.
type RouteStore interface {
	// Entries returns every configured row for routes whose pattern could
	// match method+path; callers perform the actual pattern matching.
	Entries(ctx context.Context) ([]RouteEntry, error)
}

// normalizePath substitutes UUID and integer path segments with "{id}",
// matching spec.md §3's plan cache key format
// "<METHOD>:<normalized-path>".
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if isUUID(seg) || isInteger(seg) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHex(byte(c)) {
				return false
			}
		}
	}
	return true
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// cacheKey builds the Detail Provider's cache key for a method+path pair.
func cacheKey(method, path string) string {
	return strings.ToUpper(method) + ":" + normalizePath(path)
}

// matches reports whether a route entry's method+pattern matches the
// given request method+path, with "*" matching any method, the pattern
// matching the path's leading segments (a prefix by whole segments), and
// "{id}" segments matching any single path segment.
func (e RouteEntry) matches(method, path string) bool {
	if e.Method != "*" && !strings.EqualFold(e.Method, method) {
		return false
	}
	want := strings.Split(strings.Trim(e.PathPattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) > len(got) {
		return false
	}
	for i, seg := range want {
		if seg == "{id}" {
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}

// specificity is used to break ties between multiple matching patterns:
// a longer pattern (by character count, "{id}" counting as its four
// characters) wins, and an exact method match outranks a wildcard method.
// The number of "{id}" wildcards is not considered.
func (e RouteEntry) specificity() int {
	score := len(strings.Trim(e.PathPattern, "/")) * 10
	if e.Method != "*" {
		score += 100000
	}
	return score
}

// Builder resolves matching RouteEntry rows into a plan.Detail by
// configuring each row's transform through the catalog Registry. A row
// whose transform fails to configure is skipped (not fatal to the whole
// route), matching spec.md §4.E's per-row skip-on-error semantics.
type Builder struct {
	registry *catalog.Registry
	onSkip   func(entry RouteEntry, err error)
}

// NewBuilder constructs a Builder. onSkip, if non-nil, is invoked for
// every row dropped due to a configuration error (unknown transform or
// missing parameter) so the caller can log it.
func NewBuilder(registry *catalog.Registry, onSkip func(RouteEntry, error)) *Builder {
	if onSkip == nil {
		onSkip = func(RouteEntry, error) {}
	}
	return &Builder{registry: registry, onSkip: onSkip}
}

// Build resolves all entries matching method+path into a Detail, split by
// side and sorted by Order.
func (b *Builder) Build(method, path string, entries []RouteEntry) plan.Detail {
	var matched []RouteEntry
	for _, e := range entries {
		if e.matches(method, path) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return plan.Empty
	}

	// Longest-prefix-wins: keep only entries from the single
	// most-specific matching pattern group when patterns overlap.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].specificity() > matched[j].specificity()
	})
	best := matched[0].PathPattern
	bestMethod := matched[0].Method
	var kept []RouteEntry
	for _, e := range matched {
		if e.PathPattern == best && e.Method == bestMethod {
			kept = append(kept, e)
		}
	}

	detail := plan.Detail{}
	for _, e := range kept {
		if _, err := b.registry.Resolve(e.TransformName, e.Params); err != nil {
			b.onSkip(e, err)
			continue
		}
		entry := plan.Entry{
			Order:          e.Order,
			TransformName:  e.TransformName,
			Params:         e.Params,
			Timeout:        e.Timeout,
			FailureModeSet: e.FailureModeSet,
			FailureMode:    e.FailureMode,
			AllowParallel:  e.AllowParallel,
		}
		switch e.Side {
		case "response":
			detail.Response = append(detail.Response, entry)
		default:
			detail.Request = append(detail.Request, entry)
		}
	}
	detail.Request = plan.Sorted(detail.Request)
	detail.Response = plan.Sorted(detail.Response)
	return detail
}

// DetailProvider resolves method+path into a plan.Detail, caching results
// for PlanCacheTTL in a patrickmn/go-cache instance keyed by
// "<METHOD>:<normalized-path>".
type DetailProvider struct {
	store   RouteStore
	builder *Builder
	cache   *gocache.Cache
}

// NewDetailProvider constructs a DetailProvider with the given cache TTL.
func NewDetailProvider(store RouteStore, builder *Builder, ttl time.Duration) *DetailProvider {
	return &DetailProvider{
		store:   store,
		builder: builder,
		cache:   gocache.New(ttl, ttl*2),
	}
}

// Resolve returns the Detail for method+path, building and caching it on
// a cache miss.
func (p *DetailProvider) Resolve(ctx context.Context, method, path string) (plan.Detail, error) {
	key := cacheKey(method, path)
	if cached, ok := p.cache.Get(key); ok {
		return cached.(plan.Detail), nil
	}

	entries, err := p.store.Entries(ctx)
	if err != nil {
		return plan.Empty, fmt.Errorf("provider: load route entries: %w", err)
	}
	detail := p.builder.Build(method, path, entries)
	p.cache.SetDefault(key, detail)
	return detail, nil
}

// Invalidate evicts a single method+path's cached Detail, e.g. after a
// route configuration change.
func (p *DetailProvider) Invalidate(method, path string) {
	p.cache.Delete(cacheKey(method, path))
}

// InvalidateAll clears the entire plan cache.
func (p *DetailProvider) InvalidateAll() {
	p.cache.Flush()
}
