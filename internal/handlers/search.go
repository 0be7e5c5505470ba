package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"platesafe/internal/metrics"
	"platesafe/internal/places"
	"platesafe/internal/searchcache"
	"platesafe/pkg/logging/logging"

	"go.uber.org/zap"
)

// filterParams are the provider pass-through filters accepted on the query
// string. Deriving the cache params from this fixed set (not raw URL order)
// keeps the cache key stable across clients.
var filterParams = []string{"cuisine", "price", "allergen_free", "min_rating"}

// SearchHandler serves GET /v1/search: restaurant discovery backed by the
// cost-aware cache in front of the paid places API.
type SearchHandler struct {
	Cache  *searchcache.Cache
	Places places.Client
}

func NewSearchHandler(c *searchcache.Cache, p places.Client) *SearchHandler {
	return &SearchHandler{
		Cache:  c,
		Places: p,
	}
}

type searchResponse struct {
	Query   string               `json:"query"`
	Count   int                  `json:"count"`
	Results []searchcache.Result `json:"results"`
}

// Search handles GET /v1/search?q=...&lat=...&lng=...&radius=...&open_now=...
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	loc, err := parseLocation(r)
	if err != nil {
		logger.Warn("invalid location", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := map[string]string{}
	for _, name := range filterParams {
		if v := r.URL.Query().Get(name); v != "" {
			params[name] = v
		}
	}
	if v := r.URL.Query().Get("open_now"); v == "true" || v == "1" {
		params["open_now"] = "true"
	}
	if v := r.URL.Query().Get("radius"); v != "" {
		params["radius"] = v
	}

	fetch := func(ctx context.Context) ([]searchcache.Result, error) {
		req := &places.SearchRequest{
			Query:   q,
			OpenNow: params["open_now"] == "true",
			Filters: providerFilters(params),
		}
		if loc != nil {
			req.Lat = loc.Lat
			req.Lng = loc.Lng
		}
		if v, ok := params["radius"]; ok {
			if radius, err := strconv.Atoi(v); err == nil {
				req.RadiusMeters = radius
			}
		}

		results, err := h.Places.Search(ctx, req)
		if err != nil {
			metrics.PlacesUpstreamCallsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.PlacesUpstreamCallsTotal.WithLabelValues("success").Inc()
		return results, nil
	}

	results, err := h.Cache.FetchWithCache(ctx, q, loc, params, fetch)
	if err != nil {
		logger.Error("search failed",
			zap.String("query", q),
			zap.Error(err),
			zap.Duration("total_latency_ms", time.Since(start)),
		)
		http.Error(w, "upstream search failed", http.StatusBadGateway)
		return
	}

	logger.Info("search completed",
		zap.String("query", q),
		zap.Int("result_count", len(results)),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	if results == nil {
		results = []searchcache.Result{}
	}
	writeJSON(w, searchResponse{
		Query:   q,
		Count:   len(results),
		Results: results,
	})
}

// providerFilters strips the handler-level keys the provider does not take.
func providerFilters(params map[string]string) map[string]string {
	filters := make(map[string]string, len(params))
	for k, v := range params {
		if k == "open_now" || k == "radius" {
			continue
		}
		filters[k] = v
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

// parseLocation reads optional lat/lng. Both must be present together.
func parseLocation(r *http.Request) (*searchcache.LatLng, error) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errBadLocation
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, errBadLocation
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, errBadLocation
	}

	return &searchcache.LatLng{Lat: lat, Lng: lng}, nil
}

var errBadLocation = badLocationError{}

type badLocationError struct{}

func (badLocationError) Error() string {
	return "lat and lng must both be valid decimal degrees"
}

// writeJSON is a small helper to send JSON responses consistently.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
