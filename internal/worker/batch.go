package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/pipeline"
)

// Checker answers one claim
type Checker interface {
	Check(ctx context.Context, req model.CheckRequest) (*model.FactCheckResult, error)
}

// CheckJob is one claim of a batch
type CheckJob struct {
	Index   int
	Request model.CheckRequest
	Checker Checker
	Timeout time.Duration
}

// Execute runs the claim through its own pipeline call
func (j *CheckJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	result, err := j.Checker.Check(ctx, j.Request)
	return &CheckResult{
		Index:  j.Index,
		Query:  j.Request.Query,
		Result: result,
		Error:  err,
	}
}

// CheckResult is the outcome of one claim
type CheckResult struct {
	Index  int
	Query  string
	Result *model.FactCheckResult
	Error  error
}

// GetIndex returns the claim's position in the batch
func (r *CheckResult) GetIndex() int {
	return r.Index
}

// GetError returns the error from the check
func (r *CheckResult) GetError() error {
	return r.Error
}

// resultLine is the JSON lines form of a CheckResult
type resultLine struct {
	Query  string                 `json:"query"`
	Result *model.FactCheckResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Kind   string                 `json:"kind,omitempty"`
}

// MarshalJSON renders the result as one output line
func (r *CheckResult) MarshalJSON() ([]byte, error) {
	line := resultLine{Query: r.Query, Result: r.Result}
	if r.Error != nil {
		line.Result = nil
		line.Error = r.Error.Error()
		line.Kind = pipeline.ErrorKind(r.Error)
	}
	return json.Marshal(line)
}

// BatchProcessor checks many claims concurrently. Each claim is an
// independent pipeline call; nothing is shared between them.
type BatchProcessor struct {
	checker     Checker
	concurrency int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewBatchProcessor creates a batch processor. timeout bounds each claim; zero means none.
func NewBatchProcessor(checker Checker, concurrency int, timeout time.Duration, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
	}
}

// ProcessClaims checks every request and returns results in input order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, reqs []model.CheckRequest) []*CheckResult {
	if len(reqs) == 0 {
		return []*CheckResult{}
	}

	jobs := make([]Job, len(reqs))
	for i, req := range reqs {
		jobs[i] = &CheckJob{
			Index:   i,
			Request: req,
			Checker: b.checker,
			Timeout: b.timeout,
		}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	results := pool.Run(jobs)

	out := make([]*CheckResult, len(reqs))
	for _, result := range results {
		cr := result.(*CheckResult)
		out[cr.Index] = cr
	}

	// Claims never submitted, or dropped on cancellation, still get a line
	failed, skipped := 0, 0
	for i, cr := range out {
		if cr == nil {
			cr = &CheckResult{Index: i, Query: reqs[i].Query, Error: cancelCause(ctx)}
			out[i] = cr
			skipped++
		}
		if cr.Error != nil {
			failed++
		}
	}

	b.logger.Info("batch finished",
		zap.Int("claims", len(reqs)),
		zap.Int("completed", len(results)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return out
}

func cancelCause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	reqs, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, reqs), nil
}

// WriteJSONLines writes one JSON object per result
func WriteJSONLines(w io.Writer, results []*CheckResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode result %d: %w", r.Index, err)
		}
	}
	return nil
}

// ReadClaimsFromFile reads claims from a file, one per line.
//
// A line is either plain claim text or a JSON request object
// ({"query": ..., "spice": ..., "skeptic": ...}). Blank lines and lines
// starting with # are skipped; repeated claims are kept once.
func ReadClaimsFromFile(filePath string) ([]model.CheckRequest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadClaims(file)
}

// ReadClaims parses claims from r; see ReadClaimsFromFile
func ReadClaims(r io.Reader) ([]model.CheckRequest, error) {
	var reqs []model.CheckRequest
	seen := make(map[model.CheckRequest]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req := model.CheckRequest{Query: line}
		if strings.HasPrefix(line, "{") {
			req = model.CheckRequest{}
			if err := json.Unmarshal([]byte(line), &req); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}

		if !seen[req] {
			seen[req] = true
			reqs = append(reqs, req)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return reqs, nil
}
