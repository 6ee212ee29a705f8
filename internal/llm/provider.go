package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Provider defines the interface for LLM backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize runs one role-tagged generation and returns the raw text.
	// Backends that support it constrain output to req.Schema.
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// Ping checks that the provider is configured and reachable
	Ping(ctx context.Context) error
}

// SummarizeRequest contains the input for one generation
type SummarizeRequest struct {
	// System is the policy message
	System string

	// Prompt is the user message (claim + evidence)
	Prompt string

	// Schema is the JSON Schema the output must match (nil = free text)
	Schema json.RawMessage

	// SchemaName labels the schema for backends that need a name
	SchemaName string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the raw model output
type SummarizeResponse struct {
	// Text is the generated text, unparsed
	Text string

	// Structured is true when the backend enforced Schema
	Structured bool

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for one generation
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	Temperature float32

	// StrictEvidence drops citations that are not in the evidence list
	StrictEvidence bool

	// HTTPClient is the shared outbound client (proxy aware); may be nil
	HTTPClient *http.Client
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Model:       DefaultOpenAIModel,
		Timeout:     30 * time.Second,
		MaxTokens:   800,
		Temperature: 0.1,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens(req SummarizeRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 800
}

func (c Config) model(req SummarizeRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
