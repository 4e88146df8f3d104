// Package memstore is an in-process provider.RouteStore, suitable for
// tests and single-node deployments. Shared state is guarded by a
// read/write mutex, matching the concurrency idiom the teacher's middleware suite
// uses for its own shared counters and caches.
package memstore

import (
	"context"
	"sync"

	"github.com/reqrep/transform/provider"
)

// Store is a mutex-guarded in-memory RouteStore.
type Store struct {
	mu      sync.RWMutex
	entries []provider.RouteEntry
}

// New returns a Store pre-populated with entries.
func New(entries ...provider.RouteEntry) *Store {
	return &Store{entries: append([]provider.RouteEntry(nil), entries...)}
}

func (s *Store) Entries(ctx context.Context) ([]provider.RouteEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]provider.RouteEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Replace swaps the entire entry set atomically.
func (s *Store) Replace(entries []provider.RouteEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]provider.RouteEntry(nil), entries...)
}

// Add appends a single entry.
func (s *Store) Add(entry provider.RouteEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}
