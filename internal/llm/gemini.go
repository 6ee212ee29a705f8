package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Ping fetches the configured model's metadata
func (p *GeminiProvider) Ping(ctx context.Context) error {
	model := p.config.model(SummarizeRequest{}, DefaultGeminiModel)
	if _, err := p.client.Models.Get(ctx, model, nil); err != nil {
		return fmt.Errorf("Gemini API check failed: %w", err)
	}
	return nil
}

// Summarize generates JSON constrained by a response schema when req.Schema is set
func (p *GeminiProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	model := p.config.model(req, DefaultGeminiModel)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       ptr(p.config.Temperature),
		MaxOutputTokens:   int32(p.config.maxTokens(req)),
	}

	structured := len(req.Schema) > 0
	if structured {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiResultSchema()
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	resp, err := p.client.Models.GenerateContent(ctxWithTimeout, model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("no content in Gemini response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &SummarizeResponse{
		Text:       text,
		Structured: structured,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}

// geminiResultSchema mirrors result_schema.json in Gemini's OpenAPI subset
// (no additionalProperties)
func geminiResultSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answer": {
				Type:        genai.TypeString,
				Description: "45 words or fewer, directly answers the claim.",
			},
			"confidence": {
				Type:    genai.TypeNumber,
				Minimum: ptr(0.0),
				Maximum: ptr(1.0),
			},
			"sources": {
				Type:     genai.TypeArray,
				MaxItems: ptr(int64(4)),
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": str,
						"url":   str,
						"date":  str,
					},
					Required: []string{"title", "url"},
				},
			},
			"speak": {
				Type:        genai.TypeString,
				Description: "One-sentence summary for read-aloud.",
			},
			"notes": str,
			"next_searches": {
				Type:  genai.TypeArray,
				Items: str,
			},
		},
		Required:         []string{"answer", "confidence", "sources", "speak"},
		PropertyOrdering: []string{"answer", "confidence", "sources", "speak", "notes", "next_searches"},
	}
}

func ptr[T any](v T) *T {
	return &v
}
