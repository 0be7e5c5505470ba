package searchcache

import (
	"context"
	"time"

	"platesafe/internal/metrics"
	"platesafe/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingStore wraps a Store with structured logging + Prometheus metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a store that logs every get/set and records
// hit/miss counters.
func NewLoggingStore(inner Store) *LoggingStore {
	return &LoggingStore{inner: inner}
}

func (s *LoggingStore) Get(ctx context.Context, key string) ([]Result, bool, error) {
	start := time.Now()
	results, ok, err := s.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
		metrics.SearchCacheHitsTotal.Inc()
	default:
		metrics.SearchCacheMissesTotal.Inc()
	}

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Int("result_count", len(results)),
		zap.Float64("latency_ms", latencyMs),
	}

	if err != nil {
		logger.Error("search_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Info("search_cache_get", fields...)
	}

	return results, ok, err
}

func (s *LoggingStore) Set(ctx context.Context, key, normalizedQuery string, loc *LatLng, results []Result, ttl time.Duration) error {
	start := time.Now()
	err := s.inner.Set(ctx, key, normalizedQuery, loc, results, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.String("query", normalizedQuery),
		zap.Int("result_count", len(results)),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	}

	if err != nil {
		logger.Error("search_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Info("search_cache_set", fields...)
	}

	return err
}

func (s *LoggingStore) Clear(ctx context.Context) error {
	err := s.inner.Clear(ctx)
	if err != nil {
		logging.L(ctx).Error("search_cache_clear", zap.Error(err))
	} else {
		logging.L(ctx).Info("search_cache_clear")
	}
	return err
}

func (s *LoggingStore) Len() int { return s.inner.Len() }

func (s *LoggingStore) Close() error { return s.inner.Close() }

// Bounds forwards recency introspection when the inner store supports it.
func (s *LoggingStore) Bounds() (oldest, newest string) {
	if b, ok := s.inner.(bounder); ok {
		return b.Bounds()
	}
	return "", ""
}

var _ Store = (*LoggingStore)(nil)
