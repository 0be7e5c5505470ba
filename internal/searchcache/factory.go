package searchcache

import (
	"github.com/redis/go-redis/v9"
)

// StoreConfig selects and sizes a cache backend.
type StoreConfig struct {
	Backend string // "memory" (default) or "redis"
	Config  Config
	Prefix  string
}

// NewStore builds the configured backend, wrapped with logging + metrics.
func NewStore(cfg StoreConfig, redisClient *redis.Client) Store {
	var inner Store
	switch cfg.Backend {
	case "redis":
		inner = NewRedisStore(redisClient, RedisConfig{Prefix: cfg.Prefix})
	default:
		c := cfg.Config.withDefaults()
		inner = NewMemoryStore(c.Capacity, c.CleanupInterval)
	}
	return NewLoggingStore(inner)
}
