package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/common"
)

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// endpoint holds what every provider client needs to call its API.
type endpoint struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

func newEndpoint(cfg Config, provider, defaultModel, defaultURL string) (endpoint, error) {
	if cfg.APIKey == "" {
		return endpoint{}, fmt.Errorf("%s: %w", provider, ErrMissingAPIKey)
	}
	ep := endpoint{
		httpClient:  newHTTPClient(),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if ep.baseURL == "" {
		ep.baseURL = defaultURL
	}
	if ep.model == "" {
		ep.model = defaultModel
	}
	if ep.temperature == 0 {
		ep.temperature = 0.1
	}
	if ep.maxTokens == 0 {
		ep.maxTokens = 300
	}
	return ep, nil
}

// post sends body to path under the base URL and decodes a 200 reply into
// out. Rate limits and server errors are marked transient for
// common.WithRetry, honoring Retry-After on 429. Other statuses are permanent.
func (e endpoint) post(ctx context.Context, path string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return common.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.TransientAfter(fmt.Errorf("%w (status %d): %s", common.ErrUpstream, resp.StatusCode, raw),
			common.RetryAfter(resp.Header, time.Now()))
	case resp.StatusCode >= 500:
		return common.Transient(fmt.Errorf("%w (status %d): %s", common.ErrUpstream, resp.StatusCode, raw))
	default:
		return common.Permanent(fmt.Errorf("%w (status %d): %s", common.ErrUpstream, resp.StatusCode, raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return common.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}
