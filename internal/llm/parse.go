package llm

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/ppiankov/fcyf/internal/metrics"
	"github.com/ppiankov/fcyf/internal/model"
)

// repairAnswerLimit is how much raw output becomes the answer of a repaired result
const repairAnswerLimit = 140

// repairSourceLimit is how many evidence records a repaired result cites
const repairSourceLimit = 2

// Outcome is the tagged result of parsing model output.
//
//	Parsed=false                  the text was not a JSON object; use Repair
//	Parsed=true, Missing non-nil  the object lacks required fields
//	Parsed=true, Result non-nil   success, already normalized
type Outcome struct {
	Result *model.FactCheckResult
	Raw    string
	Parsed bool

	// Missing lists required fields that were absent or of the wrong type
	Missing []string

	// Violations are other schema complaints (repaired or ignored)
	Violations []string

	// Repairs are the metric reasons for fixes applied to Result
	Repairs []string
}

// StripFences removes a leading ```json or ``` fence and a trailing ``` fence
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Parse decodes and normalizes model output. It never returns an error:
// failures are reported through the Outcome tag.
func Parse(raw string) Outcome {
	out := Outcome{Raw: raw}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(StripFences(raw)), &doc); err != nil || doc == nil {
		return out
	}
	out.Parsed = true

	report, err := checkSchema(doc)
	if err != nil {
		out.Violations = append(out.Violations, err.Error())
	}
	out.Missing = report.Missing
	out.Violations = append(out.Violations, report.Violations...)

	result, missing, repairs := convert(doc)
	if len(out.Missing) == 0 {
		out.Missing = missing
	}
	if len(out.Missing) > 0 {
		return out
	}

	out.Result = result
	out.Repairs = repairs
	return out
}

// convert maps a decoded object onto FactCheckResult, applying the
// post-parse rules: out-of-range confidence becomes 0.5, sources beyond
// MaxSources are dropped, and a missing speak is derived from the answer.
func convert(doc map[string]interface{}) (*model.FactCheckResult, []string, []string) {
	var missing, repairs []string

	answer, ok := doc["answer"].(string)
	answer = strings.TrimSpace(answer)
	if !ok || answer == "" {
		missing = append(missing, "answer")
	}

	confidence, ok := doc["confidence"].(float64)
	if !ok {
		missing = append(missing, "confidence")
	} else if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		confidence = 0.5
		repairs = append(repairs, metrics.RepairConfidence)
	}

	rawSources, ok := doc["sources"].([]interface{})
	if !ok {
		missing = append(missing, "sources")
	}

	if len(missing) > 0 {
		return nil, missing, nil
	}

	sources := make([]model.Source, 0, len(rawSources))
	for _, item := range rawSources {
		src, ok := toSource(item)
		if !ok {
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) > model.MaxSources {
		sources = sources[:model.MaxSources]
		repairs = append(repairs, metrics.RepairSources)
	}

	speak, _ := doc["speak"].(string)
	speak = strings.TrimSpace(speak)
	if speak == "" {
		speak = firstSentence(answer)
		repairs = append(repairs, metrics.RepairSpeak)
	}

	notes, _ := doc["notes"].(string)

	var nextSearches []string
	if list, ok := doc["next_searches"].([]interface{}); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				nextSearches = append(nextSearches, strings.TrimSpace(s))
			}
		}
	}

	return &model.FactCheckResult{
		Answer:       answer,
		Confidence:   confidence,
		Sources:      sources,
		Speak:        speak,
		Notes:        strings.TrimSpace(notes),
		NextSearches: nextSearches,
	}, nil, repairs
}

func toSource(item interface{}) (model.Source, bool) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return model.Source{}, false
	}

	url, _ := m["url"].(string)
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Source{}, false
	}

	title, _ := m["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		title = url
	}
	date, _ := m["date"].(string)

	return model.Source{Title: title, URL: url, Date: strings.TrimSpace(date)}, true
}

// Repair builds a best-effort result from output that could not be parsed.
// Answer and speak are cut from the raw text as received, fences included.
// It never fails.
func Repair(raw string, evidence []model.EvidenceRecord) *model.FactCheckResult {
	answer := truncateRunes(raw, repairAnswerLimit)
	speak := raw
	if idx := strings.Index(raw, ". "); idx >= 0 {
		speak = raw[:idx]
	}

	n := len(evidence)
	if n > repairSourceLimit {
		n = repairSourceLimit
	}
	sources := make([]model.Source, 0, n)
	for _, rec := range evidence[:n] {
		sources = append(sources, rec.Source())
	}

	return &model.FactCheckResult{
		Answer:     answer,
		Confidence: 0.5,
		Sources:    sources,
		Speak:      speak,
	}
}

// firstSentence returns the text before the first ". "
func firstSentence(s string) string {
	if idx := strings.Index(s, ". "); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
