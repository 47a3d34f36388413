package models

// SearchProviderResult represents the result from a search provider
type SearchProviderResult struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult represents a single search result
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Content string `json:"content,omitempty"`
}

// SearchArgs is the model-controlled arguments payload of the search tool.
// Region and site restrictions stay caller-controlled and are merged in by
// the orchestrator, never taken from the model.
type SearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}
