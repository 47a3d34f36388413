package search

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/grounder-ai/grounder/internal/models"
)

// fakeProvider records the request it received and returns canned results
type fakeProvider struct {
	name      string
	available bool
	lastReq   *Request
	results   int
	err       error
}

func (f *fakeProvider) Name() string      { return f.name }
func (f *fakeProvider) IsAvailable() bool { return f.available }

func (f *fakeProvider) Search(ctx context.Context, req *Request) (*models.SearchProviderResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	result := &models.SearchProviderResult{Query: req.Query}
	for i := 0; i < f.results; i++ {
		result.Results = append(result.Results, models.SearchResult{
			Title: fmt.Sprintf("Result %d", i+1),
			URL:   fmt.Sprintf("https://example.com/%d", i+1),
		})
	}
	return result, nil
}

func newTestManager(p Provider) *Manager {
	return &Manager{
		providers:       map[string]Provider{p.Name(): p},
		defaultProvider: p.Name(),
		region:          "kr-kr",
	}
}

func TestManagerSearch(t *testing.T) {
	t.Run("Site restriction applied before dispatch", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: true, results: 3}
		m := newTestManager(fp)

		_, err := m.Search(context.Background(), &Query{
			Text:       "당화혈색소 정상 수치",
			MaxResults: 10,
			Region:     "kr-kr",
			Sites:      []string{"amc.seoul.kr"},
		})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if !strings.HasSuffix(fp.lastReq.Query, "site:amc.seoul.kr") {
			t.Errorf("Expected dispatched query to end with site clause, got %q", fp.lastReq.Query)
		}
		if fp.lastReq.MaxResults != 10 {
			t.Errorf("Expected max results 10, got %d", fp.lastReq.MaxResults)
		}
		if fp.lastReq.Region != "kr-kr" {
			t.Errorf("Expected region kr-kr, got %q", fp.lastReq.Region)
		}
	})

	t.Run("Never returns more than max results", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: true, results: 9}
		m := newTestManager(fp)

		result, err := m.Search(context.Background(), &Query{Text: "x", MaxResults: 4})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if len(result.Results) > 4 {
			t.Errorf("Expected at most 4 results, got %d", len(result.Results))
		}
	})

	t.Run("Defaults and clamps max results", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: true, results: 1}
		m := newTestManager(fp)

		m.Search(context.Background(), &Query{Text: "x"})
		if fp.lastReq.MaxResults != defaultMaxResults {
			t.Errorf("Expected default max results %d, got %d", defaultMaxResults, fp.lastReq.MaxResults)
		}

		m.Search(context.Background(), &Query{Text: "x", MaxResults: 50})
		if fp.lastReq.MaxResults != maxResultsCap {
			t.Errorf("Expected max results clamped to %d, got %d", maxResultsCap, fp.lastReq.MaxResults)
		}
	})

	t.Run("Manager region used when query has none", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: true, results: 1}
		m := newTestManager(fp)

		m.Search(context.Background(), &Query{Text: "x"})
		if fp.lastReq.Region != "kr-kr" {
			t.Errorf("Expected configured region, got %q", fp.lastReq.Region)
		}
	})

	t.Run("Provider error propagates", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: true, err: fmt.Errorf("provider down")}
		m := newTestManager(fp)

		_, err := m.Search(context.Background(), &Query{Text: "x"})
		if err == nil {
			t.Fatal("Expected error from failing provider")
		}
	})

	t.Run("No available provider", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: false}
		m := newTestManager(fp)

		if m.HasAvailableProvider() {
			t.Error("Expected no available provider")
		}

		_, err := m.Search(context.Background(), &Query{Text: "x"})
		if err == nil {
			t.Fatal("Expected error when no provider is available")
		}
	})

	t.Run("SearchWithProvider rejects unknown name", func(t *testing.T) {
		fp := &fakeProvider{name: "fake", available: true}
		m := newTestManager(fp)

		_, err := m.SearchWithProvider(context.Background(), "missing", &Query{Text: "x"})
		if err == nil {
			t.Fatal("Expected error for unknown provider")
		}
	})
}

func TestFormatResults(t *testing.T) {
	t.Run("Empty results", func(t *testing.T) {
		got := FormatResults(&models.SearchProviderResult{Query: "x"})
		if got != "No search results found." {
			t.Errorf("Unexpected empty-result text: %q", got)
		}
		if FormatResults(nil) != "No search results found." {
			t.Error("Expected nil result to format as no results")
		}
	})

	t.Run("Numbered results with URL and snippet", func(t *testing.T) {
		got := FormatResults(&models.SearchProviderResult{
			Query: "hba1c",
			Results: []models.SearchResult{
				{Title: "First", URL: "https://a.example", Snippet: "summary a"},
				{Title: "Second", URL: "https://b.example"},
			},
		})

		for _, want := range []string{"Search results for: hba1c", "1. First", "URL: https://a.example", "Summary: summary a", "2. Second"} {
			if !strings.Contains(got, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, got)
			}
		}
	})

	t.Run("Long content truncated", func(t *testing.T) {
		long := strings.Repeat("a", 600)
		got := FormatResults(&models.SearchProviderResult{
			Query:   "x",
			Results: []models.SearchResult{{Title: "T", Content: long}},
		})

		if strings.Contains(got, long) {
			t.Error("Expected long content to be truncated")
		}
		if !strings.Contains(got, "...") {
			t.Error("Expected truncation marker")
		}
	})
}
