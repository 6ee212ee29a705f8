package model

import "encoding/json"

// FactCheckResult is the fixed-shape answer returned to callers.
// Answer, Confidence, Sources and Speak are always present.
type FactCheckResult struct {
	Answer       string   `json:"answer"`                  // ≤45 words by policy
	Confidence   float64  `json:"confidence"`              // 0.0–1.0
	Sources      []Source `json:"sources"`                 // 0–4 citations, ranked by the summarizer
	Speak        string   `json:"speak"`                   // One sentence for read-aloud
	Notes        string   `json:"notes,omitempty"`         // Nuance, ambiguity or conflict
	NextSearches []string `json:"next_searches,omitempty"` // Follow-ups when unconfirmed
}

// Source is a citation attached to a result
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// MaxSources is the citation cap of the result contract
const MaxSources = 4

// MarshalJSON keeps "sources" an array even when there are none
func (r FactCheckResult) MarshalJSON() ([]byte, error) {
	type alias FactCheckResult
	out := alias(r)
	if out.Sources == nil {
		out.Sources = []Source{}
	}
	return json.Marshal(out)
}
