package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grounder-ai/grounder/internal/config"
)

func TestFirecrawlProvider(t *testing.T) {
	t.Run("Not configured without API key", func(t *testing.T) {
		p := NewFirecrawlProvider("firecrawl", &config.ProviderConfig{})
		if p.IsAvailable() {
			t.Error("Expected provider without API key to be unavailable")
		}

		_, err := p.Search(context.Background(), &Request{Query: "x", MaxResults: 5})
		if err == nil {
			t.Fatal("Expected error for unconfigured provider")
		}
	})

	t.Run("Sends limit and parses web results", func(t *testing.T) {
		var gotBody firecrawlSearchRequest
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotBody)

			json.NewEncoder(w).Encode(firecrawlSearchResponse{
				Success: true,
				Data: &firecrawlSearchData{
					Web: []firecrawlSearchResult{
						{URL: "https://a.example", Title: "A", Description: "desc a", Markdown: "body a"},
						{URL: "https://b.example", Title: "B", Description: "desc b"},
					},
				},
			})
		}))
		defer srv.Close()

		p := NewFirecrawlProvider("firecrawl", &config.ProviderConfig{
			APIKey:  "fc-test",
			BaseURL: srv.URL,
		})

		result, err := p.Search(context.Background(), &Request{Query: "golang", MaxResults: 7})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if gotBody.Query != "golang" || gotBody.Limit != 7 {
			t.Errorf("Expected query=golang limit=7, got query=%q limit=%d", gotBody.Query, gotBody.Limit)
		}
		if gotAuth != "Bearer fc-test" {
			t.Errorf("Expected bearer auth, got %q", gotAuth)
		}

		if len(result.Results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(result.Results))
		}
		if result.Results[0].Title != "A" || result.Results[0].Snippet != "desc a" || result.Results[0].Content != "body a" {
			t.Errorf("Unexpected first result: %+v", result.Results[0])
		}
	})

	t.Run("Provider error reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(firecrawlSearchResponse{Success: false, Error: "quota exceeded"})
		}))
		defer srv.Close()

		p := NewFirecrawlProvider("firecrawl", &config.ProviderConfig{APIKey: "fc-test", BaseURL: srv.URL})

		_, err := p.Search(context.Background(), &Request{Query: "x", MaxResults: 5})
		if err == nil {
			t.Fatal("Expected error for unsuccessful response")
		}
	})
}
