package searchcache

import (
	"context"
	"time"

	"platesafe/internal/metrics"

	"go.uber.org/zap"
)

const (
	defaultCapacity         = 100
	defaultTTL              = 30 * time.Minute
	defaultProjectionFactor = 720 // ~hours-in-a-day × days-in-a-month
)

// Config controls a Cache instance. The zero value gets sane defaults.
type Config struct {
	// Capacity is the maximum entry count (memory backend).
	Capacity int
	// TTL is the absolute lifetime of an entry.
	TTL time.Duration
	// CleanupInterval is the janitor sweep period. Clamped to stay below
	// TTL; 0 picks a default.
	CleanupInterval time.Duration
	// CostPerCall is the price of one paid search, used for savings
	// accounting.
	CostPerCall float64
	// SavingsProjectionFactor scales observed savings into the projected
	// figure exposed by Stats. Rough extrapolation only.
	SavingsProjectionFactor float64
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = defaultCapacity
	}
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	if c.CleanupInterval <= 0 || c.CleanupInterval >= c.TTL {
		c.CleanupInterval = c.TTL / 2
	}
	if c.SavingsProjectionFactor <= 0 {
		c.SavingsProjectionFactor = defaultProjectionFactor
	}
	return c
}

// FetchFunc performs the expensive search on a cache miss. It is supplied
// per call, may be slow, and may fail; retry and cancellation policy belong
// to its implementation, not to the cache.
type FetchFunc func(ctx context.Context) ([]Result, error)

// Cache is the public entry point: look a search up, or run the paid call
// and remember its results. Construct with New and share by reference;
// independent instances are independent caches.
type Cache struct {
	cfg    Config
	store  Store
	stats  *statsTracker
	logger *zap.Logger
}

// New builds a Cache over the given Store. A nil store gets a memory store
// sized from cfg. The caller owns shutdown via Close.
func New(cfg Config, store Store, logger *zap.Logger) *Cache {
	cfg = cfg.withDefaults()
	if store == nil {
		store = NewMemoryStore(cfg.Capacity, cfg.CleanupInterval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		cfg:    cfg,
		store:  store,
		stats:  newStatsTracker(cfg.SavingsProjectionFactor),
		logger: logger.Named("searchcache"),
	}
}

// FetchWithCache returns cached results for the search when present and
// fresh; otherwise it invokes fetch, caches a successful non-empty result
// set, and returns it. fetch runs outside any cache lock, so a slow paid
// call never blocks other readers. Errors from fetch propagate unchanged
// and nothing is cached. Concurrent misses on the same key are not
// coalesced; each caller pays for its own fetch.
func (c *Cache) FetchWithCache(ctx context.Context, query string, loc *LatLng, params map[string]string, fetch FetchFunc) ([]Result, error) {
	key := BuildKey(query, loc, params)
	c.stats.recordQuery()

	results, hit, err := c.store.Get(ctx, key)
	if err != nil {
		// Storage trouble is never the caller's problem; log and fall
		// through to the fetch path.
		c.logger.Warn("cache get failed", zap.Error(err), zap.String("key", key))
	}

	if hit {
		c.stats.recordHit(c.cfg.CostPerCall)
		if c.cfg.CostPerCall > 0 {
			metrics.SearchCostSavedDollars.Add(c.cfg.CostPerCall)
		}
		return results, nil
	}

	c.stats.recordMiss()

	fetched, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if len(fetched) == 0 {
		c.logger.Debug("empty result set not cached", zap.String("key", key))
		return fetched, nil
	}

	if err := c.store.Set(ctx, key, NormalizeQuery(query), loc, fetched, c.cfg.TTL); err != nil {
		c.logger.Warn("cache set failed", zap.Error(err), zap.String("key", key))
	}

	return fetched, nil
}

// Stats returns a snapshot of hit/miss accounting and estimated savings.
func (c *Cache) Stats() Stats {
	return c.stats.snapshot()
}

// Info reports current size and configuration for operational visibility.
func (c *Cache) Info() Info {
	info := Info{
		Size:     c.store.Len(),
		Capacity: c.cfg.Capacity,
		TTL:      c.cfg.TTL,
	}

	// Recency bounds exist only on backends that track access order.
	if b, ok := storeBounds(c.store); ok {
		info.OldestEntryQuery, info.NewestEntryQuery = b.Bounds()
	}

	return info
}

// Clear removes all cached entries. Stats survive a clear so the savings
// history is not lost to an administrative reset.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// ResetStats zeroes the hit/miss/savings counters.
func (c *Cache) ResetStats() {
	c.stats.reset()
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.cfg.TTL
}

// Close releases the underlying store's background resources.
func (c *Cache) Close() error {
	return c.store.Close()
}

// bounder is implemented by stores that can name their recency extremes.
type bounder interface {
	Bounds() (oldest, newest string)
}

func storeBounds(s Store) (bounder, bool) {
	b, ok := s.(bounder)
	return b, ok
}
