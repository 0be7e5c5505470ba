package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestSearchSuccess(t *testing.T) {
	t.Parallel()

	var gotReq providerSearchRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/places/search" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}

		resp := providerSearchResponse{
			Status: statusOK,
			Results: []providerPlace{
				{
					PlaceID: "p1",
					Name:    "Thai Orchid",
					Address: "1 Main St",
					Geometry: &providerGeometry{
						Location: providerLocation{Lat: 35.6812, Lng: 139.7663},
					},
					Rating: 4.5,
				},
				{
					PlaceID: "p2",
					Name:    "Bangkok Kitchen",
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(client)

	req := &SearchRequest{
		Query:        "thai food",
		Lat:          35.6812,
		Lng:          139.7663,
		RadiusMeters: 1500,
	}

	results, err := client.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected Authorization header: %s", gotAuth)
	}
	if gotReq.Query != "thai food" {
		t.Fatalf("unexpected upstream query: %s", gotReq.Query)
	}
	if gotReq.Location == nil || gotReq.Location.Lat != 35.6812 {
		t.Fatalf("unexpected upstream location: %#v", gotReq.Location)
	}
	if gotReq.Radius != 1500 {
		t.Fatalf("unexpected upstream radius: %d", gotReq.Radius)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var first providerPlace
	if err := json.Unmarshal(results[0], &first); err != nil {
		t.Fatalf("decode result record: %v", err)
	}
	if first.Name != "Thai Orchid" {
		t.Fatalf("unexpected first result: %#v", first)
	}
}

func TestSearchZeroResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(providerSearchResponse{Status: statusZeroResults})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(client)

	results, err := client.Search(context.Background(), &SearchRequest{Query: "nothing here"})
	if err != nil {
		t.Fatalf("zero results must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result set, got %d", len(results))
	}
}

func TestSearchValidatesBeforeCalling(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("server should not be called for invalid request")
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(client)

	_, err = client.Search(context.Background(), &SearchRequest{})
	if err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(providerSearchResponse{
			Status:  statusOK,
			Results: []providerPlace{{PlaceID: "p1", Name: "Recovered"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "key",
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(client)

	results, err := client.Search(context.Background(), &SearchRequest{Query: "flaky"})
	if err != nil {
		t.Fatalf("Search after retries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad api key"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "bad",
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(client)

	_, err = client.Search(context.Background(), &SearchRequest{Query: "denied"})
	if err == nil || !strings.Contains(err.Error(), "bad api key") {
		t.Fatalf("expected provider error, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", got)
	}
}

func TestSearchProviderStatusFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(providerSearchResponse{
			Status:       "OVER_QUERY_LIMIT",
			ErrorMessage: "daily quota exceeded",
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(client)

	_, err = client.Search(context.Background(), &SearchRequest{Query: "anything"})
	if err == nil || !strings.Contains(err.Error(), "OVER_QUERY_LIMIT") {
		t.Fatalf("expected provider status error, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	inner, err := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "key",
		MaxRetries:  1,
		BaseBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer closeClient(inner)

	client := NewBreakerClient(inner, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), &SearchRequest{Query: "down"}); err == nil {
			t.Fatalf("expected upstream error on attempt %d", i)
		}
	}

	before := atomic.LoadInt32(&attempts)
	if _, err := client.Search(context.Background(), &SearchRequest{Query: "down"}); err == nil {
		t.Fatalf("expected breaker to fail fast")
	}
	if after := atomic.LoadInt32(&attempts); after != before {
		t.Fatalf("open breaker must not reach upstream (before=%d after=%d)", before, after)
	}
}

func closeClient(c Client) {
	if closer, ok := c.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
