package directory

import (
	"github.com/letmevibethatforyou/typeahead"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

// Search returns a SearchFunc that finds up to limit users matching the
// typed term within the session's Scope.
func Search(searcher lookup.Searcher, limit int) typeahead.SearchFunc[User, Scope] {
	return typeahead.FromSearcher(searcher, DecodeHit, Scope.Filters, lookup.WithLimit(limit))
}

// NewProvider returns a provider of directory sessions. Sessions are shared
// per Scope.Key, see Acquire.
func NewProvider(searcher lookup.Searcher, limit int, opts ...typeahead.Option) *Provider {
	return &Provider{
		Provider: typeahead.NewProvider(Search(searcher, limit), opts...),
	}
}

// Provider shares directory sessions between consumers looking at the same scope.
type Provider struct {
	*typeahead.Provider[User, Scope]
}

// Acquire returns the shared session for scope.
func (p *Provider) Acquire(scope Scope) (*typeahead.Session[User, Scope], func()) {
	return p.Provider.Acquire(scope.Key(), scope)
}
