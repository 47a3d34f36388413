package search

import (
	"context"

	"github.com/grounder-ai/grounder/internal/models"
)

// Provider defines the interface for search providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search executes the request and returns up to MaxResults records
	Search(ctx context.Context, req *Request) (*models.SearchProviderResult, error)

	// IsAvailable returns true if the provider is properly configured
	IsAvailable() bool
}
