package places

// Request shape we send upstream (Places-style text search).
type providerSearchRequest struct {
	Query   string            `json:"query"`
	Filters map[string]string `json:"filters,omitempty"`

	Location *providerLocation `json:"location,omitempty"`
	Radius   int               `json:"radius,omitempty"`
	OpenNow  bool              `json:"opennow,omitempty"`
}

type providerLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// One result record. Kept loosely typed: the cache treats records as
// opaque, and the handler returns them to clients verbatim.
type providerPlace struct {
	PlaceID    string            `json:"place_id"`
	Name       string            `json:"name"`
	Address    string            `json:"formatted_address,omitempty"`
	Geometry   *providerGeometry `json:"geometry,omitempty"`
	Rating     float64           `json:"rating,omitempty"`
	PriceLevel int               `json:"price_level,omitempty"`
	Types      []string          `json:"types,omitempty"`
	OpenNow    bool              `json:"open_now,omitempty"`
}

type providerGeometry struct {
	Location providerLocation `json:"location"`
}

type providerSearchResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []providerPlace `json:"results"`
}

// statusOK is the provider's success sentinel. ZERO_RESULTS is also a
// success; it just carries an empty result list.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)
