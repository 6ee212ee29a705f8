package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiProvider_Summarize_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/"+DefaultGeminiModel+":generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"responseMimeType":"application/json"`) {
			t.Errorf("Expected JSON response MIME type in request, got %s", body)
		}
		if !strings.Contains(string(body), `"responseSchema"`) {
			t.Errorf("Expected response schema in request, got %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"{\"answer\":\"No.\",\"confidence\":0.8,\"sources\":[],\"speak\":\"No.\"}"}]}}],
			"usageMetadata":{"totalTokenCount":42}
		}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{
		System: "policy",
		Prompt: "Claim: x",
		Schema: ResultSchema(),
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if resp.Text != `{"answer":"No.","confidence":0.8,"sources":[],"speak":"No."}` {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if !resp.Structured || resp.TokensUsed != 42 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(Config{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestGeminiResultSchema_MatchesRequiredFields(t *testing.T) {
	schema := geminiResultSchema()

	want := map[string]bool{"answer": true, "confidence": true, "sources": true, "speak": true}
	if len(schema.Required) != len(want) {
		t.Fatalf("Expected %d required fields, got %v", len(want), schema.Required)
	}
	for _, field := range schema.Required {
		if !want[field] {
			t.Errorf("Unexpected required field %s", field)
		}
	}
	if max := schema.Properties["sources"].MaxItems; max == nil || *max != 4 {
		t.Errorf("Expected sources maxItems 4, got %v", max)
	}
}
