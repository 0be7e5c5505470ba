package places

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"platesafe/internal/searchcache"
)

// BreakerClient wraps a Client with a circuit breaker so a failing upstream
// stops accumulating billed retries. While the breaker is open, Search
// fails fast with gobreaker.ErrOpenState; the cache layer propagates that
// like any other upstream error and caches nothing.
type BreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerClient builds the breaker around inner. The breaker opens
// after three consecutive failures and probes again after 30 seconds.
func NewBreakerClient(inner Client, logger *zap.Logger) *BreakerClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:    "places-search",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("places breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *BreakerClient) Search(ctx context.Context, req *SearchRequest) ([]searchcache.Result, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.Search(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.([]searchcache.Result), nil
}

var _ Client = (*BreakerClient)(nil)
