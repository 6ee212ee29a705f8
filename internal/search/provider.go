package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/util"
)

// MaxResults caps the records returned by any primary provider
const MaxResults = 6

// ErrNoAPIKey is reported by providers that need a key and have none
var ErrNoAPIKey = errors.New("search API key not configured")

// Provider retrieves web evidence for a claim
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search returns normalized records in provider order.
	// An empty slice with a nil error means "nothing found".
	Search(ctx context.Context, query string) ([]model.EvidenceRecord, error)
}

// Fallback retrieves a single reference summary when the primary finds nothing
type Fallback interface {
	Name() string

	// Summary returns zero or one record
	Summary(ctx context.Context, query string) ([]model.EvidenceRecord, error)
}

// ProviderError reports a failed call to an evidence provider
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out", e.Provider)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error: %d %s", e.Provider, e.StatusCode, strings.TrimSpace(e.Body))
	}
	return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Config holds search provider configuration
type Config struct {
	// Provider name: "tavily", "searxng"
	Provider string

	APIKey      string
	BaseURL     string
	SearchDepth string
	MaxResults  int
	Timeout     time.Duration

	UserAgent string
	MaxBytes  int64

	// Shared outbound client, built from proxy settings when nil
	HTTPClient *http.Client
}

// ConfigFromModel converts the search and HTTP sections of model.Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:    cfg.Search.Provider,
		APIKey:      cfg.Search.APIKey,
		BaseURL:     cfg.Search.BaseURL,
		SearchDepth: cfg.Search.SearchDepth,
		MaxResults:  cfg.Search.MaxResults,
		Timeout:     cfg.Search.Timeout,
		UserAgent:   cfg.HTTP.UserAgent,
		MaxBytes:    cfg.HTTP.MaxBytes,
		HTTPClient:  util.NewHTTPClient(cfg.HTTP),
	}
}

// FallbackConfigFromModel converts the fallback and HTTP sections of model.Config
func FallbackConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   "wikipedia",
		BaseURL:    cfg.Fallback.BaseURL,
		MaxResults: 1,
		Timeout:    cfg.Fallback.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxBytes:   cfg.HTTP.MaxBytes,
		HTTPClient: util.NewHTTPClient(cfg.HTTP),
	}
}

// NewProvider creates the primary provider named in config
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "tavily", "":
		return NewTavilyProvider(config), nil
	case "searxng", "searx":
		return NewSearxNGProvider(config)
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: tavily, searxng)", config.Provider)
	}
}

func (c Config) withDefaults(baseURL string, timeout time.Duration) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = timeout
	}
	if c.MaxResults <= 0 || c.MaxResults > MaxResults {
		c.MaxResults = MaxResults
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 2_000_000
	}
	if c.HTTPClient == nil {
		c.HTTPClient = util.NewHTTPClient(model.HTTPConfig{})
	}
	return c
}

// do executes req and returns the status and (size-limited) body.
// Deadline expiry becomes a *ProviderError with Timeout set.
func do(ctx context.Context, client *http.Client, provider string, req *http.Request, maxBytes int64) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return 0, nil, &ProviderError{Provider: provider, Timeout: true, Err: err}
		}
		return 0, nil, fmt.Errorf("%s request: %w", provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return 0, nil, &ProviderError{Provider: provider, Timeout: true, Err: err}
		}
		return 0, nil, fmt.Errorf("%s read body: %w", provider, err)
	}

	return resp.StatusCode, body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// normalize builds a record from provider fields, skipping entries without a URL
func normalize(title, rawURL, snippet, date string) (model.EvidenceRecord, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.EvidenceRecord{}, false
	}

	title = FlattenText(title)
	if title == "" {
		title = rawURL
	}

	return model.EvidenceRecord{
		Title:   title,
		URL:     rawURL,
		Snippet: FlattenText(snippet),
		Date:    strings.TrimSpace(date),
	}, true
}

// rawRecord is one provider result, decoded field by field
type rawRecord map[string]json.RawMessage

// splitRecords decodes each entry of a results array on its own.
// Entries that are not JSON objects are skipped.
func splitRecords(items []json.RawMessage) []rawRecord {
	records := make([]rawRecord, 0, len(items))
	for _, item := range items {
		var rec rawRecord
		if err := json.Unmarshal(item, &rec); err != nil || rec == nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// field returns the first non-blank value among keys.
// Numbers and booleans keep their JSON spelling; arrays, objects and null are ignored.
func (r rawRecord) field(keys ...string) string {
	for _, key := range keys {
		raw, ok := r[key]
		if !ok {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		var text string
		switch t := v.(type) {
		case string:
			text = t
		case float64, bool:
			text = string(raw)
		}
		if strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}
