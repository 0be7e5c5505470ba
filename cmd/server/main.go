package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"platesafe/internal/handlers"
	"platesafe/internal/httpserver"
	"platesafe/internal/metrics"
	"platesafe/internal/places"
	"platesafe/internal/searchcache"
	"platesafe/pkg/logging/logging"
)

type Config struct {
	Port         string
	CacheBackend string // "memory" or "redis"
	RedisAddr    string

	CacheCapacity   int
	CacheTTL        time.Duration
	CleanupInterval time.Duration
	CostPerCall     float64

	PlacesBaseURL string
	PlacesAPIKey  string
}

func LoadConfig() Config {
	return Config{
		Port:            getenv("PORT", "8080"),
		CacheBackend:    getenv("CACHE_BACKEND", "memory"),
		RedisAddr:       getenv("REDIS_ADDR", "127.0.0.1:6379"),
		CacheCapacity:   getenvInt("CACHE_CAPACITY", 100),
		CacheTTL:        getenvDuration("CACHE_TTL", 30*time.Minute),
		CleanupInterval: getenvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		CostPerCall:     getenvFloat("PLACES_COST_PER_CALL", 0.017),
		PlacesBaseURL:   getenv("PLACES_BASE_URL", "https://places.example.com"),
		PlacesAPIKey:    os.Getenv("PLACES_API_KEY"),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Float64("cost_per_call", cfg.CostPerCall),
		zap.String("places_base_url", cfg.PlacesBaseURL),
	)

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Search cache -----
	cacheCfg := searchcache.Config{
		Capacity:        cfg.CacheCapacity,
		TTL:             cfg.CacheTTL,
		CleanupInterval: cfg.CleanupInterval,
		CostPerCall:     cfg.CostPerCall,
	}
	store := searchcache.NewStore(searchcache.StoreConfig{
		Backend: cfg.CacheBackend,
		Config:  cacheCfg,
		Prefix:  "platesafe",
	}, redisClient)

	searchCache := searchcache.New(cacheCfg, store, logger)
	defer searchCache.Close()

	// ----- Places client -----
	if cfg.PlacesAPIKey == "" {
		return fmt.Errorf("PLACES_API_KEY is required")
	}

	placesClient, err := places.NewClient(places.Config{
		BaseURL: cfg.PlacesBaseURL,
		APIKey:  cfg.PlacesAPIKey,
	}, logger)
	if err != nil {
		return err
	}
	if closer, ok := placesClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// Breaker keeps a dying upstream from burning money on retries.
	guarded := places.NewBreakerClient(placesClient, logger)

	// ----- Handlers -----
	searchHandler := handlers.NewSearchHandler(searchCache, guarded)
	adminHandler := handlers.NewAdminHandler(searchCache)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, searchHandler, adminHandler)

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting server",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
