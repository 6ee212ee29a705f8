package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/fcyf/internal/model"
)

// SearxNGProvider implements Provider against a self-hosted SearxNG instance
type SearxNGProvider struct {
	config Config
}

type searxngResponse struct {
	Results []json.RawMessage `json:"results"`
}

// NewSearxNGProvider creates a new SearxNG provider
func NewSearxNGProvider(config Config) (*SearxNGProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("searxng base URL is required")
	}
	return &SearxNGProvider{config: config.withDefaults("", 15*time.Second)}, nil
}

// Name returns the provider name
func (p *SearxNGProvider) Name() string {
	return "searxng"
}

// Search runs a JSON-format query and normalizes the results
func (p *SearxNGProvider) Search(ctx context.Context, query string) ([]model.EvidenceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	status, body, err := do(ctx, p.config.HTTPClient, "searxng", req, p.config.MaxBytes)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &ProviderError{Provider: "searxng", StatusCode: status, Body: string(body)}
	}

	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("searxng: unmarshal response: %w", err)
	}

	records := make([]model.EvidenceRecord, 0, len(resp.Results))
	for _, r := range splitRecords(resp.Results) {
		rec, ok := normalize(r.field("title"), r.field("url"), r.field("content"), r.field("publishedDate"))
		if !ok {
			continue
		}
		records = append(records, rec)
		if len(records) == p.config.MaxResults {
			break
		}
	}

	return records, nil
}
