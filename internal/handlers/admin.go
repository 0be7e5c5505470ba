package handlers

import (
	"net/http"
	"time"

	"platesafe/internal/searchcache"
	"platesafe/pkg/logging/logging"

	"go.uber.org/zap"
)

// AdminHandler exposes cache introspection and reset for operators.
type AdminHandler struct {
	Cache *searchcache.Cache
}

func NewAdminHandler(c *searchcache.Cache) *AdminHandler {
	return &AdminHandler{Cache: c}
}

type statsResponse struct {
	searchcache.Stats
	// The projection is a linear extrapolation of savings observed so
	// far, not a forecast.
	ProjectionNote string `json:"projection_note"`
}

// CacheStats handles GET /v1/cache/stats.
func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statsResponse{
		Stats:          h.Cache.Stats(),
		ProjectionNote: "projected_savings is a rough extrapolation of observed savings",
	})
}

type infoResponse struct {
	Size             int    `json:"size"`
	Capacity         int    `json:"capacity"`
	TTL              string `json:"ttl"`
	OldestEntryQuery string `json:"oldest_entry_query,omitempty"`
	NewestEntryQuery string `json:"newest_entry_query,omitempty"`
}

// CacheInfo handles GET /v1/cache/info.
func (h *AdminHandler) CacheInfo(w http.ResponseWriter, r *http.Request) {
	info := h.Cache.Info()
	writeJSON(w, infoResponse{
		Size:             info.Size,
		Capacity:         info.Capacity,
		TTL:              info.TTL.Round(time.Second).String(),
		OldestEntryQuery: info.OldestEntryQuery,
		NewestEntryQuery: info.NewestEntryQuery,
	})
}

// CacheClear handles POST /v1/cache/clear. Entries go, stats stay.
func (h *AdminHandler) CacheClear(w http.ResponseWriter, r *http.Request) {
	logger := logging.L(r.Context())

	if err := h.Cache.Clear(r.Context()); err != nil {
		logger.Error("cache clear failed", zap.Error(err))
		http.Error(w, "cache clear failed", http.StatusInternalServerError)
		return
	}

	logger.Info("cache cleared by admin request")
	w.WriteHeader(http.StatusNoContent)
}
