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

// WikipediaProvider implements Fallback with the REST page summary endpoint
type WikipediaProvider struct {
	config Config
}

type wikipediaSummary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Timestamp   string `json:"timestamp"`
	ContentURLs *struct {
		Desktop *struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// NewWikipediaProvider creates a new Wikipedia fallback
func NewWikipediaProvider(config Config) *WikipediaProvider {
	return &WikipediaProvider{config: config.withDefaults("https://en.wikipedia.org", 10*time.Second)}
}

// Name returns the provider name
func (p *WikipediaProvider) Name() string {
	return "wikipedia"
}

// Summary looks the query up as a page title.
// Any non-2xx answer (usually 404) means no record, not an error.
func (p *WikipediaProvider) Summary(ctx context.Context, query string) ([]model.EvidenceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	apiURL := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", p.config.BaseURL, url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Wikimedia APIs require a descriptive User-Agent
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := do(ctx, p.config.HTTPClient, "wikipedia", req, p.config.MaxBytes)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return []model.EvidenceRecord{}, nil
	}

	var summary wikipediaSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("wikipedia: unmarshal response: %w", err)
	}
	if summary.Title == "" || summary.ContentURLs == nil {
		return []model.EvidenceRecord{}, nil
	}

	pageURL := ""
	if summary.ContentURLs.Desktop != nil {
		pageURL = summary.ContentURLs.Desktop.Page
	}
	if pageURL == "" {
		pageURL = "https://en.wikipedia.org/wiki/" + url.PathEscape(summary.Title)
	}

	rec, ok := normalize(summary.Title, pageURL, summary.Extract, summary.Timestamp)
	if !ok {
		return []model.EvidenceRecord{}, nil
	}
	return []model.EvidenceRecord{rec}, nil
}
