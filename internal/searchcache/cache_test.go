package searchcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	c := New(cfg, nil, zaptest.NewLogger(t))
	t.Cleanup(func() { c.Close() })
	return c
}

func countingFetch(out []Result, err error) (FetchFunc, *int32) {
	var calls int32
	return func(ctx context.Context) ([]Result, error) {
		atomic.AddInt32(&calls, 1)
		return out, err
	}, &calls
}

func TestFetchWithCacheCallsFetchOnce(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 10, TTL: 30 * time.Minute, CostPerCall: 0.017})
	ctx := context.Background()

	fetch, calls := countingFetch(results("Curry House"), nil)

	got, err := c.FetchWithCache(ctx, "curry", nil, nil, fetch)
	require.NoError(t, err)
	assert.Equal(t, results("Curry House"), got)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	// Same query, no elapsed TTL: fetch must not run again.
	got, err = c.FetchWithCache(ctx, "curry", nil, nil, fetch)
	require.NoError(t, err)
	assert.Equal(t, results("Curry House"), got)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchWithCacheEquivalentQueriesShareEntry(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 10, TTL: time.Minute})
	ctx := context.Background()

	fetch, calls := countingFetch(results("a"), nil)

	loc1 := &LatLng{Lat: 35.68121, Lng: 139.76631}
	loc2 := &LatLng{Lat: 35.68123, Lng: 139.76633} // GPS jitter, same cell

	_, err := c.FetchWithCache(ctx, "  Ramen ", loc1, nil, fetch)
	require.NoError(t, err)
	_, err = c.FetchWithCache(ctx, "ramen", loc2, nil, fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchWithCacheErrorPropagatesUncached(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 10, TTL: time.Minute})
	ctx := context.Background()

	wantErr := errors.New("quota exceeded")
	fetch, calls := countingFetch(nil, wantErr)

	_, err := c.FetchWithCache(ctx, "tacos", nil, nil, fetch)
	assert.ErrorIs(t, err, wantErr, "fetch errors must propagate unmodified")

	// The failure was not cached; the next call pays again.
	_, err = c.FetchWithCache(ctx, "tacos", nil, nil, fetch)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	snap := c.Stats()
	assert.Equal(t, int64(2), snap.Misses)
	assert.Zero(t, snap.Hits)
}

func TestFetchWithCacheEmptyResultsNotCached(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 10, TTL: time.Minute})
	ctx := context.Background()

	fetch, calls := countingFetch([]Result{}, nil)

	got, err := c.FetchWithCache(ctx, "ghost town diner", nil, nil, fetch)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Zero results were not cached, so the second call fetches again.
	_, err = c.FetchWithCache(ctx, "ghost town diner", nil, nil, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetchWithCacheStatsAndSavings(t *testing.T) {
	c := newTestCache(t, Config{
		Capacity:                10,
		TTL:                     time.Minute,
		CostPerCall:             0.02,
		SavingsProjectionFactor: 720,
	})
	ctx := context.Background()

	fetch, _ := countingFetch(results("a"), nil)

	_, _ = c.FetchWithCache(ctx, "pho", nil, nil, fetch) // miss
	_, _ = c.FetchWithCache(ctx, "pho", nil, nil, fetch) // hit
	_, _ = c.FetchWithCache(ctx, "pho", nil, nil, fetch) // hit

	snap := c.Stats()
	assert.Equal(t, int64(3), snap.TotalQueries)
	assert.Equal(t, int64(2), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.InDelta(t, 2.0/3.0, snap.HitRate, 1e-9)
	assert.InDelta(t, 0.04, snap.CostSaved, 1e-9)
	assert.InDelta(t, 0.04*720, snap.ProjectedSavings, 1e-9)
}

func TestCacheGetOnUnknownKeyCountsMiss(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 10, TTL: time.Minute})

	fetch, _ := countingFetch(results("x"), nil)
	_, _ = c.FetchWithCache(context.Background(), "nowhere", nil, nil, fetch)

	snap := c.Stats()
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.Misses)
	assert.Zero(t, snap.Hits)
}

func TestCacheClearKeepsStats(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 10, TTL: time.Minute, CostPerCall: 0.01})
	ctx := context.Background()

	fetch, calls := countingFetch(results("a"), nil)
	_, _ = c.FetchWithCache(ctx, "bbq", nil, nil, fetch)
	_, _ = c.FetchWithCache(ctx, "bbq", nil, nil, fetch)

	require.NoError(t, c.Clear(ctx))

	snap := c.Stats()
	assert.Equal(t, int64(2), snap.TotalQueries, "clear must not reset stats")
	assert.Equal(t, int64(1), snap.Hits)

	// Entries are gone: the next call pays.
	_, _ = c.FetchWithCache(ctx, "bbq", nil, nil, fetch)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestCacheInfo(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 7, TTL: time.Minute})
	ctx := context.Background()

	fetch, _ := countingFetch(results("a"), nil)
	_, _ = c.FetchWithCache(ctx, "Pizza", nil, nil, fetch)
	_, _ = c.FetchWithCache(ctx, "sushi", nil, nil, fetch)

	info := c.Info()
	assert.Equal(t, 2, info.Size)
	assert.Equal(t, 7, info.Capacity)
	assert.Equal(t, time.Minute, info.TTL)
	assert.Equal(t, "pizza", info.OldestEntryQuery)
	assert.Equal(t, "sushi", info.NewestEntryQuery)
}

func TestFetchWithCacheConcurrent(t *testing.T) {
	c := newTestCache(t, Config{Capacity: 100, TTL: time.Minute})
	ctx := context.Background()

	fetch, calls := countingFetch(results("shared"), nil)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := c.FetchWithCache(ctx, "popular place", nil, nil, fetch)
				assert.NoError(t, err)
				assert.Equal(t, results("shared"), got)
			}
		}()
	}
	wg.Wait()

	// Concurrent first misses are not coalesced, so more than one fetch
	// may have run, but once populated everything is a hit.
	n := atomic.LoadInt32(calls)
	assert.GreaterOrEqual(t, n, int32(1))
	assert.LessOrEqual(t, n, int32(16))
}
