package lookup

// DefaultLimit is used when no WithLimit option is given.
const DefaultLimit = 10

// SearchOption represents a search configuration option.
type SearchOption interface {
	Apply(*SearchConfig)
}

// SearchConfig holds all search configuration parameters.
type SearchConfig struct {
	// Limit is the maximum number of hits to return.
	Limit int

	// Offset is the number of hits to skip.
	Offset int

	// Sort orders hits by fields instead of relevance.
	Sort []SortField

	// Filters must all match for a document to be returned.
	Filters []Expression
}

// SortField represents a field to sort by.
type SortField struct {
	Field string
	Desc  bool
}

type optionFunc func(*SearchConfig)

func (f optionFunc) Apply(cfg *SearchConfig) {
	f(cfg)
}

// WithLimit sets the maximum number of hits to return.
func WithLimit(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Limit = n
	})
}

// WithOffset sets the number of hits to skip for pagination.
func WithOffset(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Offset = n
	})
}

// WithSort adds a sort field. The pseudo field "_score" sorts by relevance.
func WithSort(field string, desc bool) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Sort = append(cfg.Sort, SortField{Field: field, Desc: desc})
	})
}
