package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/fcyf/internal/authority"
	"github.com/ppiankov/fcyf/internal/llm"
	"github.com/ppiankov/fcyf/internal/metrics"
	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/prompt"
	"github.com/ppiankov/fcyf/internal/search"
)

// Stage names used for latency metrics and logs
const (
	StageSearch    = "search"
	StageFallback  = "fallback"
	StageSummarize = "summarize"
)

// Error kinds reported by ErrorKind
const (
	KindValidation = "validation"
	KindProvider   = "provider"
	KindMalformed  = "malformed"
	KindSummarizer = "summarization"
	KindUnknown    = "unknown"
)

// Summarizer turns a prompt payload into a validated result
type Summarizer interface {
	Summarize(ctx context.Context, payload prompt.Payload) (*model.FactCheckResult, error)
}

// Pipeline runs one claim through search, fallback, prompt and summarization.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	provider   search.Provider
	fallback   search.Fallback // nil when the fallback is disabled
	classifier *authority.Classifier
	summarizer Summarizer
	clock      func() time.Time
	logger     *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithFallback sets the provider consulted when the primary search is empty
func WithFallback(fallback search.Fallback) Option {
	return func(p *Pipeline) { p.fallback = fallback }
}

// WithClassifier labels evidence with authority tiers before prompting
func WithClassifier(classifier *authority.Classifier) Option {
	return func(p *Pipeline) { p.classifier = classifier }
}

// WithClock overrides the source of "today" in the prompt
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates a pipeline from already-built collaborators
func New(provider search.Provider, summarizer Summarizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider:   provider,
		summarizer: summarizer,
		clock:      time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig builds every client named in cfg and wires them together
func NewFromConfig(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := search.NewProvider(search.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize search provider: %w", err)
	}
	if tavily, ok := provider.(*search.TavilyProvider); ok {
		if err := tavily.Configured(); err != nil {
			logger.Warn("search provider has no API key, every request will use the fallback",
				zap.String("provider", provider.Name()))
		}
	}

	summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg), logger)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithClassifier(authority.NewClassifier(&cfg.Authority)),
		WithLogger(logger),
	}
	if cfg.Fallback.Enabled {
		opts = append(opts, WithFallback(search.NewWikipediaProvider(search.FallbackConfigFromModel(cfg))))
	}

	logger.Info("pipeline ready",
		zap.String("search", provider.Name()),
		zap.Bool("fallback", cfg.Fallback.Enabled),
		zap.String("llm", summarizer.ProviderName()),
	)

	return New(provider, summarizer, opts...), nil
}

// Check answers one claim.
//
// Fallback runs only when the primary search succeeds with zero records.
// Any error aborts the request; there are no partial results.
func (p *Pipeline) Check(ctx context.Context, req model.CheckRequest) (*model.FactCheckResult, error) {
	req, err := req.Validate()
	if err != nil {
		p.recordError(err)
		return nil, err
	}

	logger := p.logger.With(zap.String("query", req.Query))

	evidence, err := p.gather(ctx, logger, req.Query)
	if err != nil {
		p.recordError(err)
		return nil, err
	}

	if p.classifier != nil {
		evidence = p.classifier.Label(evidence)
	}

	payload := prompt.Build(req, evidence, p.clock())

	start := time.Now()
	result, err := p.summarizer.Summarize(ctx, payload)
	observe(StageSummarize, start)
	if err != nil {
		logger.Warn("summarization failed", zap.Error(err))
		p.recordError(err)
		return nil, err
	}

	logger.Info("claim checked",
		zap.Int("evidence", len(evidence)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("sources", len(result.Sources)),
	)

	return result, nil
}

// gather runs the primary search and, on an empty result, the fallback
func (p *Pipeline) gather(ctx context.Context, logger *zap.Logger, query string) ([]model.EvidenceRecord, error) {
	start := time.Now()
	evidence, err := p.provider.Search(ctx, query)
	observe(StageSearch, start)
	if err != nil {
		logger.Warn("search failed", zap.String("provider", p.provider.Name()), zap.Error(err))
		return nil, err
	}
	logger.Debug("search done", zap.Int("results", len(evidence)))

	if len(evidence) > 0 || p.fallback == nil {
		return evidence, nil
	}

	metrics.FallbacksTotal.Inc()
	start = time.Now()
	evidence, err = p.fallback.Summary(ctx, query)
	observe(StageFallback, start)
	if err != nil {
		logger.Warn("fallback failed", zap.String("provider", p.fallback.Name()), zap.Error(err))
		return nil, err
	}
	logger.Debug("fallback done", zap.Int("results", len(evidence)))

	return evidence, nil
}

func (p *Pipeline) recordError(err error) {
	metrics.ErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
}

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ErrorKind classifies a pipeline error into one of the Kind constants
func ErrorKind(err error) string {
	var (
		validation *model.ValidationError
		provider   *search.ProviderError
		malformed  *llm.MalformedResultError
		summarizer *llm.SummarizationError
	)

	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &provider):
		return KindProvider
	case errors.As(err, &malformed):
		return KindMalformed
	case errors.As(err, &summarizer):
		return KindSummarizer
	default:
		return KindUnknown
	}
}
