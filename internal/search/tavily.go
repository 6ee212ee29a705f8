package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/fcyf/internal/model"
)

// TavilyProvider implements Provider for the Tavily search API
type TavilyProvider struct {
	config Config
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeImages  bool     `json:"include_images"`
	IncludeDomains []string `json:"include_domains"`
	MaxResults     int      `json:"max_results"`
}

type tavilyResponse struct {
	Results []json.RawMessage `json:"results"`
}

// NewTavilyProvider creates a new Tavily provider.
// A missing API key is not an error: Search then reports no results.
func NewTavilyProvider(config Config) *TavilyProvider {
	config = config.withDefaults("https://api.tavily.com", 15*time.Second)
	if config.SearchDepth == "" {
		config.SearchDepth = "basic"
	}
	return &TavilyProvider{config: config}
}

// Name returns the provider name
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// Configured reports ErrNoAPIKey when no key is set
func (p *TavilyProvider) Configured() error {
	if p.config.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Search queries Tavily and normalizes the results
func (p *TavilyProvider) Search(ctx context.Context, query string) ([]model.EvidenceRecord, error) {
	if p.config.APIKey == "" {
		return []model.EvidenceRecord{}, nil
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:         p.config.APIKey,
		Query:          query,
		SearchDepth:    p.config.SearchDepth,
		IncludeAnswer:  false,
		IncludeImages:  false,
		IncludeDomains: []string{},
		MaxResults:     p.config.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	status, respBody, err := do(ctx, p.config.HTTPClient, "tavily", req, p.config.MaxBytes)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &ProviderError{Provider: "tavily", StatusCode: status, Body: string(respBody)}
	}

	var resp tavilyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("tavily: unmarshal response: %w", err)
	}

	records := make([]model.EvidenceRecord, 0, len(resp.Results))
	for _, r := range splitRecords(resp.Results) {
		rec, ok := normalize(r.field("title"), r.field("url"), r.field("content", "snippet"), r.field("published_date", "date"))
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
