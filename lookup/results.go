package lookup

// Hit is a single matching document.
type Hit struct {
	// ID is the document identifier.
	ID string `json:"id"`

	// Score is the backend's relevance score; higher is better.
	Score float64 `json:"score"`

	// Fields holds the document attributes.
	Fields map[string]any `json:"fields"`
}

// Results is one page of hits.
type Results struct {
	Hits []Hit

	// Total is the number of matching documents across all pages.
	Total int64

	// Took is the backend time in milliseconds.
	Took int64

	Query string

	// NextOffset is set when more hits are available.
	NextOffset *int
}
