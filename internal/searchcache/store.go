package searchcache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// entry is one cached result set. Only lastAccess mutates after creation;
// expiresAt is absolute (reads do not extend the TTL).
type entry struct {
	key             string
	results         []Result
	normalizedQuery string
	location        *LatLng
	createdAt       time.Time
	expiresAt       time.Time
	lastAccess      time.Time
	elem            *list.Element // position in the recency list
}

// MemoryStore is the default in-process Store. A key→entry map is paired
// with an access-ordered list (front = most recently used) so that finding
// the eviction victim is O(1) instead of a scan over all entries.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	recency  *list.List // of *entry
	capacity int

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// NewMemoryStore creates a store bounded to capacity entries. If
// cleanupInterval > 0 a janitor goroutine sweeps expired entries on that
// interval; callers must Close the store to stop it.
func NewMemoryStore(capacity int, cleanupInterval time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	s := &MemoryStore{
		entries:     make(map[string]*entry, capacity),
		recency:     list.New(),
		capacity:    capacity,
		janitorStop: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.runJanitor(cleanupInterval)
	}

	return s
}

// Get returns a copy of the cached results for key. An entry past its TTL
// is deleted and reported as a miss; stale data is never returned.
func (s *MemoryStore) Get(_ context.Context, key string) ([]Result, bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	if now.After(e.expiresAt) {
		s.removeLocked(e)
		return nil, false, nil
	}

	e.lastAccess = now
	s.recency.MoveToFront(e.elem)

	return copyResults(e.results), true, nil
}

// Set stores a defensive copy of results under key. Empty result sets are
// not cached, so a legitimately empty search is re-fetched next time rather
// than pinning a possibly transient empty state. Inserting a new key at
// capacity first evicts the least recently used entry.
func (s *MemoryStore) Set(_ context.Context, key, normalizedQuery string, loc *LatLng, results []Result, ttl time.Duration) error {
	if len(results) == 0 || ttl <= 0 {
		return nil
	}

	now := time.Now()
	e := &entry{
		key:             key,
		results:         copyResults(results),
		normalizedQuery: normalizedQuery,
		location:        SnapLocation(loc),
		createdAt:       now,
		expiresAt:       now.Add(ttl),
		lastAccess:      now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		// Overwrite replaces the entry wholesale; no eviction needed.
		s.recency.Remove(old.elem)
	} else if len(s.entries) >= s.capacity {
		// The list tail is the least recently used entry. Entries are
		// pushed to the front on insert and access, so among entries
		// with equal lastAccess the older insertion sits closer to the
		// tail and loses the tie.
		if tail := s.recency.Back(); tail != nil {
			s.removeLocked(tail.Value.(*entry))
		}
	}

	e.elem = s.recency.PushFront(e)
	s.entries[key] = e
	return nil
}

// Clear drops every entry. Stats are tracked elsewhere and unaffected.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry, s.capacity)
	s.recency.Init()
	return nil
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Capacity returns the maximum entry count.
func (s *MemoryStore) Capacity() int {
	return s.capacity
}

// Close stops the janitor goroutine. Call on shutdown or in tests.
func (s *MemoryStore) Close() error {
	s.janitorOnce.Do(func() {
		close(s.janitorStop)
	})
	return nil
}

// Bounds returns the normalized queries of the least and most recently
// used entries, for the info endpoint.
func (s *MemoryStore) Bounds() (oldest, newest string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tail := s.recency.Back(); tail != nil {
		oldest = tail.Value.(*entry).normalizedQuery
	}
	if front := s.recency.Front(); front != nil {
		newest = front.Value.(*entry).normalizedQuery
	}
	return oldest, newest
}

// removeLocked deletes e from both indexes. Caller holds mu.
func (s *MemoryStore) removeLocked(e *entry) {
	delete(s.entries, e.key)
	s.recency.Remove(e.elem)
}

// copyResults deep-copies a result set so neither callers nor the cache
// can mutate the other's records through a shared backing array.
func copyResults(in []Result) []Result {
	out := make([]Result, len(in))
	for i, r := range in {
		cp := make(Result, len(r))
		copy(cp, r)
		out[i] = cp
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
