package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: searches served from cache instead of the paid API.
	SearchCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_cache_hits_total",
			Help: "Total number of search cache hits.",
		},
	)

	// Counter: searches that had to go upstream.
	SearchCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_cache_misses_total",
			Help: "Total number of search cache misses.",
		},
	)

	// Counter: dollars not spent thanks to cache hits.
	SearchCostSavedDollars = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_cost_saved_dollars_total",
			Help: "Estimated cost of paid search calls avoided by the cache, in dollars.",
		},
	)

	// Counter: billed calls actually issued to the places API.
	PlacesUpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_upstream_calls_total",
			Help: "Total paid calls to the places search API.",
		},
		[]string{"outcome"}, // success | error
	)

	// Histogram: HTTP latency in seconds.
	SearchLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_latency_seconds",
			Help:    "HTTP request latency for the search service in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		SearchCacheHitsTotal,
		SearchCacheMissesTotal,
		SearchCostSavedDollars,
		PlacesUpstreamCallsTotal,
		SearchLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures latency for each HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// capture status code
		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()

		SearchLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
