package search

import "strings"

// Request is what a provider executes: the final query text with any site
// restriction already applied, plus provider hints.
type Request struct {
	Query      string
	MaxResults int
	Region     string
}

// Query is a caller-level search: raw text plus restriction parameters.
// Sites are narrowed with the search-engine site: operator before dispatch.
type Query struct {
	Text       string
	MaxResults int
	Region     string
	Sites      []string
}

// BuildQuery appends a site-restriction clause to the query text.
// One domain becomes "<query> site:<domain>"; several become a parenthesized
// OR of site: clauses; none leaves the text untouched.
func BuildQuery(query string, sites []string) string {
	switch len(sites) {
	case 0:
		return query
	case 1:
		return query + " site:" + sites[0]
	default:
		clauses := make([]string, len(sites))
		for i, site := range sites {
			clauses[i] = "site:" + site
		}
		return query + " (" + strings.Join(clauses, " OR ") + ")"
	}
}
