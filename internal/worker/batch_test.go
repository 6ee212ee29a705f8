package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/search"
)

// MockChecker implements Checker
type MockChecker struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	delay time.Duration
}

func (m *MockChecker) Check(ctx context.Context, req model.CheckRequest) (*model.FactCheckResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Query)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.fail[req.Query]; ok {
		return nil, err
	}
	return &model.FactCheckResult{
		Answer:     "Checked: " + req.Query,
		Confidence: 0.7,
		Sources:    []model.Source{},
		Speak:      "Checked.",
	}, nil
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	checker := &MockChecker{fail: map[string]error{
		"bad": &search.ProviderError{Provider: "tavily", StatusCode: 500, Body: "oops"},
	}}
	processor := NewBatchProcessor(checker, 2, 0, zaptest.NewLogger(t))

	reqs := []model.CheckRequest{{Query: "one"}, {Query: "bad"}, {Query: "three"}, {Query: "four"}}
	results := processor.ProcessClaims(context.Background(), reqs)

	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Query != reqs[i].Query {
			t.Errorf("Result %d out of order: index=%d query=%q", i, r.Index, r.Query)
		}
	}

	if results[0].Error != nil || results[0].Result.Answer != "Checked: one" {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
	if results[1].Error == nil || results[1].Result != nil {
		t.Errorf("Expected failure for bad claim, got %+v", results[1])
	}
	if len(checker.calls) != 4 {
		t.Errorf("Expected 4 checks, got %d", len(checker.calls))
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2, 0, nil)
	results := processor.ProcessClaims(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("Expected empty non-nil results, got %v", results)
	}
}

func TestBatchProcessor_PerClaimTimeout(t *testing.T) {
	checker := &MockChecker{delay: time.Second}
	processor := NewBatchProcessor(checker, 1, 20*time.Millisecond, nil)

	results := processor.ProcessClaims(context.Background(), []model.CheckRequest{{Query: "slow"}})
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if !errors.Is(results[0].Error, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", results[0].Error)
	}
}

func TestBatchProcessor_DeadlineMidBatch(t *testing.T) {
	checker := &MockChecker{delay: 200 * time.Millisecond}
	processor := NewBatchProcessor(checker, 2, 0, zaptest.NewLogger(t))

	reqs := make([]model.CheckRequest, 10)
	for i := range reqs {
		reqs[i] = model.CheckRequest{Query: fmt.Sprintf("claim %d", i)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results := processor.ProcessClaims(ctx, reqs)
	if len(results) != len(reqs) {
		t.Fatalf("Expected a result for each of %d claims, got %d", len(reqs), len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Query != reqs[i].Query {
			t.Errorf("Result %d out of order: index=%d query=%q", i, r.Index, r.Query)
		}
		if !errors.Is(r.Error, context.DeadlineExceeded) {
			t.Errorf("Claim %d: expected deadline exceeded, got %v", i, r.Error)
		}
	}
}

func TestCheckResult_MarshalJSON(t *testing.T) {
	ok := &CheckResult{Query: "q", Result: &model.FactCheckResult{Answer: "A", Confidence: 0.9, Speak: "A"}}
	data, err := json.Marshal(ok)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"query":"q","result":{"answer":"A","confidence":0.9,"sources":[],"speak":"A"}}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	failed := &CheckResult{Query: "q", Error: &search.ProviderError{Provider: "tavily", Timeout: true}}
	data, err = json.Marshal(failed)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(data, &line); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if line["kind"] != "provider" {
		t.Errorf("Expected kind provider, got %v", line["kind"])
	}
	if msg, _ := line["error"].(string); !strings.Contains(msg, "timed out") {
		t.Errorf("Expected timeout message, got %v", line["error"])
	}
	if _, ok := line["result"]; ok {
		t.Error("Expected no result on failure")
	}
}

func TestWriteJSONLines(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSONLines(&buf, []*CheckResult{
		{Index: 0, Query: "a", Result: &model.FactCheckResult{Answer: "x"}},
		{Index: 1, Query: "b", Error: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("WriteJSONLines: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], `"kind":"unknown"`) {
		t.Errorf("Expected unknown kind, got %s", lines[1])
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `# claims to check
Is tequila a stimulant?

Are dodos extinct?
Is tequila a stimulant?
{"query":"Is the moon made of cheese?","spice":"extra","skeptic":true}
`
	path := filepath.Join(t.TempDir(), "claims.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write claims: %v", err)
	}

	reqs, err := ReadClaimsFromFile(path)
	if err != nil {
		t.Fatalf("ReadClaimsFromFile: %v", err)
	}

	if len(reqs) != 3 {
		t.Fatalf("Expected 3 claims, got %d", len(reqs))
	}
	if reqs[0].Query != "Is tequila a stimulant?" || reqs[1].Query != "Are dodos extinct?" {
		t.Errorf("Unexpected claims: %+v", reqs)
	}
	want := model.CheckRequest{Query: "Is the moon made of cheese?", Spice: model.SpiceExtra, Skeptic: true}
	if reqs[2] != want {
		t.Errorf("Expected %+v, got %+v", want, reqs[2])
	}
}

func TestReadClaims_BadJSONLine(t *testing.T) {
	_, err := ReadClaims(strings.NewReader("ok\n{not json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected line 2 error, got %v", err)
	}
}

func TestReadClaimsFromFile_Missing(t *testing.T) {
	if _, err := ReadClaimsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}
