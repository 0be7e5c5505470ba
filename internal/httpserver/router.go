package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"platesafe/internal/handlers"
	"platesafe/internal/metrics"
	"platesafe/internal/middleware"
)

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, search *handlers.SearchHandler, admin *handlers.AdminHandler) {

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())               // panic recovery
	r.Use(middleware.Timeout(15 * time.Second)) // request timeout
	r.Use(middleware.MaxBodySize(64 * 1024))    // 64 KB max body

	// routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", search.Search)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", admin.CacheStats)
			r.Get("/info", admin.CacheInfo)
			r.Post("/clear", admin.CacheClear)
		})
	})

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
