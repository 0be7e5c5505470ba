// Package searchcache caches results from the paid places-search API so
// that semantically equivalent queries do not trigger a second billed call.
// Entries expire on an absolute TTL, capacity is bounded by LRU eviction,
// and a background janitor reclaims entries that are never read again.
package searchcache

import (
	"context"
	"encoding/json"
	"time"
)

// Result is one search result record. The cache stores and returns records
// as received; it never inspects or transforms them.
type Result = json.RawMessage

// LatLng is a geographic point in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Store is the backing storage for cached result sets.
// Implemented by the in-memory store (default) and the Redis store.
type Store interface {
	// Get returns the cached results for key, or ok=false on a miss.
	// An expired entry is a miss.
	Get(ctx context.Context, key string) ([]Result, bool, error)
	// Set stores results under key with the given TTL. Empty result sets
	// are not stored. normalizedQuery and loc are kept for introspection
	// only; lookup always goes through key.
	Set(ctx context.Context, key, normalizedQuery string, loc *LatLng, results []Result, ttl time.Duration) error
	// Clear removes every entry. It does not touch stats.
	Clear(ctx context.Context) error
	// Len reports the current entry count.
	Len() int
	// Close stops any background work owned by the store.
	Close() error
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	TotalQueries int64   `json:"total_queries"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	CostSaved    float64 `json:"cost_saved"`
	// ProjectedSavings extrapolates CostSaved by the configured projection
	// factor. It is a rough projection, not a guarantee.
	ProjectedSavings float64 `json:"projected_savings"`
}

// Info describes the current state of the store for operational visibility.
type Info struct {
	Size     int           `json:"size"`
	Capacity int           `json:"capacity"`
	TTL      time.Duration `json:"ttl"`
	// Oldest/newest by access recency. Empty when the backend does not
	// track recency (Redis) or the cache is empty.
	OldestEntryQuery string `json:"oldest_entry_query,omitempty"`
	NewestEntryQuery string `json:"newest_entry_query,omitempty"`
}
