package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWikipediaProvider_Summary_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest_v1/page/summary/Dodo" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "fcyf-test" {
			t.Errorf("Expected User-Agent fcyf-test, got %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{
			"title":"Dodo",
			"extract":"The dodo is an extinct flightless bird.",
			"timestamp":"2024-05-01T10:00:00Z",
			"content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Dodo"}}
		}`))
	}))
	defer server.Close()

	p := NewWikipediaProvider(Config{BaseURL: server.URL, UserAgent: "fcyf-test"})
	records, err := p.Summary(context.Background(), "Dodo")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Title != "Dodo" || rec.URL != "https://en.wikipedia.org/wiki/Dodo" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.Snippet != "The dodo is an extinct flightless bird." || rec.Date != "2024-05-01T10:00:00Z" {
		t.Errorf("Unexpected snippet/date: %+v", rec)
	}
}

func TestWikipediaProvider_Summary_EscapesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/rest_v1/page/summary/Is%20tequila%20a%20stimulant%3F" {
			t.Errorf("Unexpected escaped path %s", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewWikipediaProvider(Config{BaseURL: server.URL})
	records, err := p.Summary(context.Background(), "Is tequila a stimulant?")
	if err != nil {
		t.Fatalf("Expected nil error on 404, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records on 404, got %d", len(records))
	}
}

func TestWikipediaProvider_Summary_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"no content_urls", `{"title":"Dodo","extract":"x"}`, 0},
		{"no title", `{"extract":"x","content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Dodo"}}}`, 0},
		{"no desktop page", `{"title":"Red panda","content_urls":{}}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewWikipediaProvider(Config{BaseURL: server.URL})
			records, err := p.Summary(context.Background(), "x")
			if err != nil {
				t.Fatalf("Summary failed: %v", err)
			}
			if len(records) != tt.want {
				t.Fatalf("Expected %d records, got %d", tt.want, len(records))
			}
			if tt.want == 1 && records[0].URL != "https://en.wikipedia.org/wiki/Red%20panda" {
				t.Errorf("Expected constructed page URL, got %s", records[0].URL)
			}
		})
	}
}
