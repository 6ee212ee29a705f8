package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CheckRequest is the inbound fact-check request
type CheckRequest struct {
	Query   string `json:"query"`             // The claim or question to verify
	Spice   Spice  `json:"spice,omitempty"`   // Tone modifier (off, light, extra)
	Skeptic bool   `json:"skeptic,omitempty"` // Ask the summarizer to push back harder
}

// UnmarshalJSON requires query to be a string when present.
// Spice and skeptic of the wrong type decode to their defaults.
func (r *CheckRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var req CheckRequest
	if raw, ok := fields["query"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &req.Query); err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}

	var spice string
	if err := json.Unmarshal(fields["spice"], &spice); err == nil {
		req.Spice = Spice(spice)
	}
	var skeptic bool
	if err := json.Unmarshal(fields["skeptic"], &skeptic); err == nil {
		req.Skeptic = skeptic
	}

	*r = req
	return nil
}

// Spice controls how playful the answer may be
type Spice string

const (
	SpiceOff   Spice = "off"   // Straight answer
	SpiceLight Spice = "light" // A playful word or two
	SpiceExtra Spice = "extra" // Playful but respectful
)

// Normalize maps unknown or empty values to SpiceOff
func (s Spice) Normalize() Spice {
	switch Spice(strings.ToLower(strings.TrimSpace(string(s)))) {
	case SpiceLight:
		return SpiceLight
	case SpiceExtra:
		return SpiceExtra
	default:
		return SpiceOff
	}
}

// MissingQueryMessage is returned to callers that send no usable claim
const MissingQueryMessage = `Missing "query" string`

// ValidationError reports malformed or empty input.
// It is raised before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the request and returns a normalized copy
func (r CheckRequest) Validate() (CheckRequest, error) {
	query := strings.TrimSpace(r.Query)
	if query == "" {
		return CheckRequest{}, &ValidationError{Message: MissingQueryMessage}
	}

	return CheckRequest{
		Query:   query,
		Spice:   r.Spice.Normalize(),
		Skeptic: r.Skeptic,
	}, nil
}
