package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCheckRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want CheckRequest
	}{
		{"full", `{"query":"q","spice":"extra","skeptic":true}`, CheckRequest{Query: "q", Spice: SpiceExtra, Skeptic: true}},
		{"numeric spice", `{"query":"q","spice":5}`, CheckRequest{Query: "q"}},
		{"string skeptic", `{"query":"q","skeptic":"yes"}`, CheckRequest{Query: "q"}},
		{"null modifiers", `{"query":"q","spice":null,"skeptic":null}`, CheckRequest{Query: "q"}},
		{"missing query", `{"spice":"light"}`, CheckRequest{Spice: SpiceLight}},
		{"null body", `null`, CheckRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got CheckRequest
			if err := json.Unmarshal([]byte(tt.body), &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.body, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.body, got, tt.want)
			}
		})
	}
}

func TestCheckRequest_UnmarshalJSON_BadQuery(t *testing.T) {
	for _, body := range []string{`{"query":42}`, `{"query":["a"]}`, `"q"`, `{`} {
		var req CheckRequest
		if err := json.Unmarshal([]byte(body), &req); err == nil {
			t.Errorf("Expected error for %s, got %+v", body, req)
		}
	}
}

func TestCheckRequest_Validate(t *testing.T) {
	req, err := CheckRequest{Query: "  Is it?  ", Spice: "LIGHT"}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if req.Query != "Is it?" || req.Spice != SpiceLight {
		t.Errorf("Unexpected normalized request: %+v", req)
	}

	_, err = CheckRequest{Query: "   "}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != MissingQueryMessage {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}
