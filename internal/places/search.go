package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"platesafe/internal/searchcache"
)

const maxRequestSize = 64 * 1024 // 64KB total JSON payload

// Search issues one billed text search. Results come back as raw JSON
// records so the cache can store them without caring about their shape.
func (c *client) Search(parentCtx context.Context, req *SearchRequest) ([]searchcache.Result, error) {
	start := time.Now()

	if req == nil {
		return nil, fmt.Errorf("placesclient: request is nil")
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("placesclient: invalid request: %w", err)
	}

	c.logger.Debug("places search starting",
		zap.String("query", req.Query),
		zap.Bool("has_location", req.HasLocation()),
	)

	// Per-request timeout (0 = only use parentCtx)
	var ctx context.Context
	var cancel context.CancelFunc
	if c.cfg.UpstreamTimeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, c.cfg.UpstreamTimeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}
	defer cancel()

	// Build provider request
	pReq := providerSearchRequest{
		Query:   req.Query,
		Filters: req.Filters,
		Radius:  req.RadiusMeters,
		OpenNow: req.OpenNow,
	}
	if req.HasLocation() {
		pReq.Location = &providerLocation{Lat: req.Lat, Lng: req.Lng}
	}

	bodyBytes, err := json.Marshal(pReq)
	if err != nil {
		return nil, fmt.Errorf("placesclient: marshal request: %w", err)
	}

	if len(bodyBytes) > maxRequestSize {
		return nil, fmt.Errorf(
			"placesclient: request too large (%d bytes, max %d)",
			len(bodyBytes), maxRequestSize,
		)
	}

	url := c.cfg.BaseURL + "/v1/places/search"

	// doOnce builds a fresh *http.Request for each attempt
	doOnce := func(ctx context.Context, body []byte) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("placesclient: build HTTP request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(httpReq)
	}

	resp, err := c.doWithRetry(ctx, bodyBytes, doOnce)
	if err != nil {
		c.logger.Error("places search failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}
	defer resp.Body.Close()

	// Handle non-2xx responses
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		// Try to parse structured provider error
		var perr providerSearchResponse
		if err := json.Unmarshal(body, &perr); err == nil && perr.ErrorMessage != "" {
			c.logger.Error("places provider error",
				zap.Int("status", resp.StatusCode),
				zap.String("provider_status", perr.Status),
				zap.String("error_message", perr.ErrorMessage),
			)
			return nil, fmt.Errorf("placesclient: upstream %d: %s (%s)",
				resp.StatusCode, perr.ErrorMessage, perr.Status)
		}

		c.logger.Error("places upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		return nil, fmt.Errorf("placesclient: upstream %d: %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	var pResp providerSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return nil, fmt.Errorf("placesclient: decode upstream response: %w", err)
	}

	// The provider reports application-level failures inside a 200.
	if pResp.Status != statusOK && pResp.Status != statusZeroResults {
		c.logger.Error("places provider rejected request",
			zap.String("provider_status", pResp.Status),
			zap.String("error_message", pResp.ErrorMessage),
		)
		return nil, fmt.Errorf("placesclient: provider status %s: %s",
			pResp.Status, pResp.ErrorMessage)
	}

	// Re-encode each record as an opaque result for the cache.
	results := make([]searchcache.Result, 0, len(pResp.Results))
	for i, p := range pResp.Results {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("placesclient: encode result[%d]: %w", i, err)
		}
		results = append(results, raw)
	}

	c.logger.Info("places search completed",
		zap.String("query", req.Query),
		zap.Int("result_count", len(results)),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}

// truncate limits string length for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
