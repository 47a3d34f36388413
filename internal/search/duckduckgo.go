package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/grounder-ai/grounder/internal/config"
	"github.com/grounder-ai/grounder/internal/models"
	"github.com/grounder-ai/grounder/pkg/logger"
)

// DuckDuckGoProvider implements the Provider interface against the
// DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGoProvider struct {
	name    string
	baseURL string
	timeout int
	client  *http.Client
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider
func NewDuckDuckGoProvider(name string, cfg *config.ProviderConfig) *DuckDuckGoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://html.duckduckgo.com/html/"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}

	return &DuckDuckGoProvider{
		name:    name,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Name returns the provider name
func (p *DuckDuckGoProvider) Name() string {
	return p.name
}

// IsAvailable returns true; the HTML endpoint is keyless
func (p *DuckDuckGoProvider) IsAvailable() bool {
	return true
}

// Search performs a search query against the DuckDuckGo HTML endpoint
func (p *DuckDuckGoProvider) Search(ctx context.Context, sreq *Request) (*models.SearchProviderResult, error) {
	log := logger.Log

	params := url.Values{}
	params.Set("q", sreq.Query)
	if sreq.Region != "" {
		params.Set("kl", sreq.Region)
	}

	reqURL := p.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The HTML endpoint rejects requests without a browser-like agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search failed: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &models.SearchProviderResult{
		Query:   sreq.Query,
		Results: make([]models.SearchResult, 0, sreq.MaxResults),
	}

	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if sreq.MaxResults > 0 && len(result.Results) >= sreq.MaxResults {
			return false
		}

		anchor := s.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}

		result.Results = append(result.Results, models.SearchResult{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: snippet,
		})
		return true
	})

	if log != nil {
		log.Info("duckduckgo search completed",
			zap.String("provider", p.name),
			zap.String("query", sreq.Query),
			zap.Int("result_count", len(result.Results)),
		)
	}

	return result, nil
}

// resolveRedirect unwraps the //duckduckgo.com/l/?uddg=<url> redirect links
// the HTML endpoint emits
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}
