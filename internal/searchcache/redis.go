package searchcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the cache with Redis so multiple service instances share
// one result pool. Expiry is delegated to Redis TTLs and memory bounding to
// the server's maxmemory policy, so this store has no janitor and no
// client-side capacity.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Prefix string
}

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
	}
}

// redisEntry is the stored wire form. The diagnostic fields ride along so
// cached payloads stay inspectable with redis-cli.
type redisEntry struct {
	Results         []Result  `json:"results"`
	NormalizedQuery string    `json:"normalized_query"`
	Location        *LatLng   `json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Get retrieves a cached result set. On a Redis error it returns the error
// so the caller can log and treat it as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context error: %w", err)
	}

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A payload we cannot decode is as good as absent.
		return nil, false, fmt.Errorf("redis entry decode failed: %w", err)
	}

	return e.Results, true, nil
}

// Set stores a result set with the given TTL. Empty result sets and
// non-positive TTLs are no-ops.
func (s *RedisStore) Set(ctx context.Context, key, normalizedQuery string, loc *LatLng, results []Result, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(results) == 0 || ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(redisEntry{
		Results:         results,
		NormalizedQuery: normalizedQuery,
		Location:        SnapLocation(loc),
		CreatedAt:       time.Now(),
	})
	if err != nil {
		return fmt.Errorf("redis entry encode failed: %w", err)
	}

	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Clear removes every entry under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	pattern := s.key("*")
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return nil
}

// Len reports the entry count under the prefix. Best effort; 0 on error.
func (s *RedisStore) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var count int
	iter := s.client.Scan(ctx, 0, s.key("*"), 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Close is a no-op; the Redis client is owned by main.
func (s *RedisStore) Close() error {
	return nil
}

// Ping checks that the Redis connection is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return s.client.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
