package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/grounder-ai/grounder/internal/config"
	"github.com/grounder-ai/grounder/internal/models"
	"github.com/grounder-ai/grounder/pkg/logger"
)

const (
	defaultMaxResults = 5
	maxResultsCap     = 10
)

// Manager manages search providers
type Manager struct {
	providers       map[string]Provider
	defaultProvider string
	region          string
}

// NewManager creates a new search manager
func NewManager(cfg *config.SearchConfig) *Manager {
	m := &Manager{
		providers:       make(map[string]Provider),
		defaultProvider: cfg.Default,
		region:          cfg.Region,
	}

	// Dynamically create providers based on type
	for name, providerCfg := range cfg.Providers {
		var provider Provider
		switch providerCfg.Type {
		case "duckduckgo":
			provider = NewDuckDuckGoProvider(name, &providerCfg)
		case "mcp":
			provider = NewMCPProvider(name, &providerCfg)
		case "firecrawl":
			provider = NewFirecrawlProvider(name, &providerCfg)
		default:
			logger.Warn("unknown provider type, skipping",
				zap.String("provider", name),
				zap.String("type", providerCfg.Type))
			continue
		}

		m.providers[name] = provider
	}

	logger.Info("search manager initialized",
		zap.String("default_provider", cfg.Default),
		zap.Int("provider_count", len(m.providers)),
	)

	return m
}

// HasAvailableProvider returns true if there's at least one available provider
func (m *Manager) HasAvailableProvider() bool {
	for _, p := range m.providers {
		if p.IsAvailable() {
			return true
		}
	}
	return false
}

// Search resolves the provider, applies the site restriction and the
// max-results bound, and dispatches the query.
func (m *Manager) Search(ctx context.Context, q *Query) (*models.SearchProviderResult, error) {
	p, err := m.resolveProvider("")
	if err != nil {
		return nil, err
	}
	return m.search(ctx, p, q)
}

// SearchWithProvider performs a search using a specific provider
func (m *Manager) SearchWithProvider(ctx context.Context, providerName string, q *Query) (*models.SearchProviderResult, error) {
	p, err := m.resolveProvider(providerName)
	if err != nil {
		return nil, err
	}
	return m.search(ctx, p, q)
}

func (m *Manager) resolveProvider(name string) (Provider, error) {
	if name != "" {
		p, ok := m.providers[name]
		if !ok {
			return nil, fmt.Errorf("provider not found: %s", name)
		}
		if !p.IsAvailable() {
			return nil, fmt.Errorf("provider not available: %s", name)
		}
		return p, nil
	}

	// Try the default provider first
	if m.defaultProvider != "" {
		if p, ok := m.providers[m.defaultProvider]; ok && p.IsAvailable() {
			return p, nil
		}
	}

	// Fall back to any available provider
	for pname, p := range m.providers {
		if p.IsAvailable() {
			logger.Debug("using fallback provider", zap.String("provider", pname))
			return p, nil
		}
	}

	return nil, fmt.Errorf("no available search provider")
}

func (m *Manager) search(ctx context.Context, p Provider, q *Query) (*models.SearchProviderResult, error) {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}

	region := q.Region
	if region == "" {
		region = m.region
	}

	req := &Request{
		Query:      BuildQuery(q.Text, q.Sites),
		MaxResults: maxResults,
		Region:     region,
	}

	result, err := p.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	// Providers without a count parameter may overshoot
	if len(result.Results) > maxResults {
		result.Results = result.Results[:maxResults]
	}

	return result, nil
}

// FormatResults formats search results as a string for tool message content
func FormatResults(result *models.SearchProviderResult) string {
	if result == nil || len(result.Results) == 0 {
		return "No search results found."
	}

	output := fmt.Sprintf("Search results for: %s\n\n", result.Query)
	for i, r := range result.Results {
		output += fmt.Sprintf("%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			output += fmt.Sprintf("   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			output += fmt.Sprintf("   Summary: %s\n", r.Snippet)
		}
		if r.Content != "" && r.Content != r.Snippet {
			// Truncate content if too long
			content := r.Content
			if len(content) > 500 {
				content = content[:500] + "..."
			}
			output += fmt.Sprintf("   Content: %s\n", content)
		}
		output += "\n"
	}

	return output
}
