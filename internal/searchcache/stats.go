package searchcache

import (
	"sync"
	"sync/atomic"
)

// statsTracker accumulates cache effectiveness counters. Counts use
// atomics; the monetary accumulator needs a float and sits behind a mutex.
type statsTracker struct {
	totalQueries int64
	hits         int64
	misses       int64

	mu        sync.Mutex
	costSaved float64

	projectionFactor float64
}

func newStatsTracker(projectionFactor float64) *statsTracker {
	if projectionFactor <= 0 {
		projectionFactor = defaultProjectionFactor
	}
	return &statsTracker{projectionFactor: projectionFactor}
}

func (t *statsTracker) recordQuery() {
	atomic.AddInt64(&t.totalQueries, 1)
}

// recordHit counts a hit and credits the cost of the avoided paid call.
func (t *statsTracker) recordHit(costOfAvoidedCall float64) {
	atomic.AddInt64(&t.hits, 1)

	t.mu.Lock()
	t.costSaved += costOfAvoidedCall
	t.mu.Unlock()
}

func (t *statsTracker) recordMiss() {
	atomic.AddInt64(&t.misses, 1)
}

// reset zeroes every counter. Not called by Clear; wiping entries does not
// erase the savings history.
func (t *statsTracker) reset() {
	atomic.StoreInt64(&t.totalQueries, 0)
	atomic.StoreInt64(&t.hits, 0)
	atomic.StoreInt64(&t.misses, 0)

	t.mu.Lock()
	t.costSaved = 0
	t.mu.Unlock()
}

// snapshot returns a consistent-enough view of the counters. The hit rate
// is 0 when no queries have been recorded; it never divides by zero.
func (t *statsTracker) snapshot() Stats {
	total := atomic.LoadInt64(&t.totalQueries)
	hits := atomic.LoadInt64(&t.hits)
	misses := atomic.LoadInt64(&t.misses)

	t.mu.Lock()
	saved := t.costSaved
	t.mu.Unlock()

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		TotalQueries:     total,
		Hits:             hits,
		Misses:           misses,
		HitRate:          hitRate,
		CostSaved:        saved,
		ProjectedSavings: saved * t.projectionFactor,
	}
}
