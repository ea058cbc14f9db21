// Package lookup defines the backend contract that typeahead sessions query:
// a Searcher takes a query string plus options and filter expressions and
// returns ranked hits.
package lookup

import "context"

// Searcher executes a query against a backend index.
type Searcher interface {
	// Search executes a search with the given query and options.
	Search(ctx context.Context, query string, opts ...SearchOption) (*Results, error)
}

// SearcherFunc is a function type that implements the Searcher interface.
type SearcherFunc func(context.Context, string, ...SearchOption) (*Results, error)

// Search implements the Searcher interface for SearcherFunc.
func (f SearcherFunc) Search(ctx context.Context, query string, opts ...SearchOption) (*Results, error) {
	return f(ctx, query, opts...)
}

// Apply folds opts into a SearchConfig, filling in DefaultLimit when no
// limit was requested.
func Apply(opts ...SearchOption) *SearchConfig {
	cfg := &SearchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(cfg)
		}
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Offset < 0 {
		cfg.Offset = 0
	}
	return cfg
}
