package typeahead

// State is a snapshot of a session. Results is shared with the session and
// with other subscribers and must be treated as read-only.
type State[R any] struct {
	// SearchTerm is the raw input, whitespace included.
	SearchTerm string

	// Results is the latest successful result set, or empty when the term is empty.
	Results []R

	// IsSearchInProgress is true while a lookup for the current term is
	// waiting for its debounce window or for the search callback.
	IsSearchInProgress bool

	// IsEmptySearchTerm is true when the trimmed term is empty.
	IsEmptySearchTerm bool

	// Err is the failure of the most recent lookup for the current term.
	// It is cleared by the next dispatch, a successful lookup, or an empty term.
	Err error
}
