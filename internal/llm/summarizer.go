package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/fcyf/internal/metrics"
	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/prompt"
)

// Summarizer turns a prompt payload into a validated FactCheckResult
type Summarizer struct {
	provider Provider
	config   Config
	logger   *zap.Logger
}

// NewSummarizer creates a summarizer for the configured provider
func NewSummarizer(config Config, logger *zap.Logger) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	return NewSummarizerWithProvider(provider, config, logger), nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(provider Provider, config Config, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		provider: provider,
		config:   config,
		logger:   logger.With(zap.String("llm_provider", provider.Name())),
	}
}

// ProviderName returns the name of the backing provider
func (s *Summarizer) ProviderName() string {
	return s.provider.Name()
}

// Ping checks the backing provider
func (s *Summarizer) Ping(ctx context.Context) error {
	return s.provider.Ping(ctx)
}

// Summarize asks the provider for a result and validates it.
//
// Unparseable output is repaired (never an error). Parsed output missing
// answer, confidence or sources is a *MalformedResultError. Backend
// failures are a *SummarizationError.
func (s *Summarizer) Summarize(ctx context.Context, payload prompt.Payload) (*model.FactCheckResult, error) {
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		System:     payload.System,
		Prompt:     payload.User,
		Schema:     ResultSchema(),
		SchemaName: ResultSchemaName,
	})
	if err != nil {
		return nil, &SummarizationError{
			Provider: s.provider.Name(),
			Timeout:  isTimeout(ctx, err),
			Err:      err,
		}
	}

	s.logger.Debug("summarizer responded",
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Bool("structured", resp.Structured),
	)

	outcome := Parse(resp.Text)

	if !outcome.Parsed {
		s.logger.Warn("summarizer output is not JSON, repairing",
			zap.Int("raw_len", len(outcome.Raw)),
		)
		metrics.RepairsTotal.WithLabelValues(metrics.RepairUnparsed).Inc()
		return Repair(outcome.Raw, payload.Evidence), nil
	}

	if len(outcome.Missing) > 0 {
		return nil, &MalformedResultError{Missing: outcome.Missing, Raw: outcome.Raw}
	}

	if len(outcome.Violations) > 0 {
		s.logger.Warn("summarizer output violates schema",
			zap.Strings("violations", outcome.Violations),
		)
	}
	for _, reason := range outcome.Repairs {
		metrics.RepairsTotal.WithLabelValues(reason).Inc()
	}

	result := outcome.Result
	s.checkCitations(result, payload.Evidence)

	return result, nil
}

// checkCitations logs sources that are not in the evidence list and,
// in strict mode, drops them
func (s *Summarizer) checkCitations(result *model.FactCheckResult, evidence []model.EvidenceRecord) {
	allowed := make(map[string]bool, len(evidence))
	for _, rec := range evidence {
		allowed[rec.URL] = true
	}

	kept := result.Sources[:0]
	for _, src := range result.Sources {
		if allowed[src.URL] {
			kept = append(kept, src)
			continue
		}
		s.logger.Warn("summarizer cited a URL outside the evidence list",
			zap.String("url", src.URL),
			zap.Bool("dropped", s.config.StrictEvidence),
		)
		if !s.config.StrictEvidence {
			kept = append(kept, src)
		}
	}
	result.Sources = kept
}
