package places

import (
	"context"
	"errors"
	"fmt"

	"platesafe/internal/searchcache"
)

// SearchRequest describes one text search against the paid places API.
type SearchRequest struct {
	Query        string  `json:"query"`
	Lat          float64 `json:"lat,omitempty"`
	Lng          float64 `json:"lng,omitempty"`
	RadiusMeters int     `json:"radius_meters,omitempty"`
	OpenNow      bool    `json:"open_now,omitempty"`
	// Filters are provider pass-through parameters (cuisine, price level,
	// allergen tags).
	Filters map[string]string `json:"filters,omitempty"`
}

// HasLocation reports whether the request carries a usable bias point.
func (r *SearchRequest) HasLocation() bool {
	return r.Lat != 0 || r.Lng != 0
}

func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return errors.New("query is required")
	}
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("latitude %f out of range", r.Lat)
	}
	if r.Lng < -180 || r.Lng > 180 {
		return fmt.Errorf("longitude %f out of range", r.Lng)
	}
	if r.RadiusMeters < 0 {
		return errors.New("radius must be non-negative")
	}
	return nil
}

// Place is one establishment as returned by the provider.
type Place struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Rating     float64  `json:"rating,omitempty"`
	PriceLevel int      `json:"price_level,omitempty"`
	Categories []string `json:"categories,omitempty"`
	OpenNow    bool     `json:"open_now,omitempty"`
}

// Client performs paid searches. Each Search call is billed by the
// provider; the search cache exists to keep these to a minimum.
type Client interface {
	Search(ctx context.Context, req *SearchRequest) ([]searchcache.Result, error)
}
