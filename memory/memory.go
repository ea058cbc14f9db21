// Package memory implements lookup.Searcher over an in-memory document set.
// It is meant for tests, local development, and small directories that fit
// in a process.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

// Document is one indexed record.
type Document struct {
	ID     string
	Fields map[string]any
}

// Index implements lookup.Searcher. It is safe for concurrent use.
type Index struct {
	searchable []string

	mu   sync.RWMutex
	docs []Document
	byID map[string]int
}

// Option configures an Index.
type Option func(*Index)

// WithSearchableFields restricts query matching to the named fields.
// By default every field is searched.
func WithSearchableFields(fields ...string) Option {
	return func(ix *Index) {
		ix.searchable = append([]string(nil), fields...)
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		byID: make(map[string]int),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add inserts doc, replacing any document with the same ID.
func (ix *Index) Add(doc Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if i, ok := ix.byID[doc.ID]; ok {
		ix.docs[i] = doc
		return
	}
	ix.byID[doc.ID] = len(ix.docs)
	ix.docs = append(ix.docs, doc)
}

// AddJSON parses data as a JSON object and adds it under id.
func (ix *Index) AddJSON(id string, data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrapf(err, "failed to unmarshal document %s", id)
	}
	ix.Add(Document{ID: id, Fields: fields})
	return nil
}

// Remove deletes the document with the given ID and reports whether it existed.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	i, ok := ix.byID[id]
	if !ok {
		return false
	}

	ix.docs = append(ix.docs[:i], ix.docs[i+1:]...)
	delete(ix.byID, id)
	for j := i; j < len(ix.docs); j++ {
		ix.byID[ix.docs[j].ID] = j
	}
	return true
}

// Clear removes every document.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs = nil
	ix.byID = make(map[string]int)
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search implements lookup.Searcher. An empty query matches every document
// that passes the filters.
func (ix *Index) Search(ctx context.Context, query string, opts ...lookup.SearchOption) (*lookup.Results, error) {
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, lookup.FromContext(err)
	}

	cfg := lookup.Apply(opts...)
	terms := strings.Fields(strings.ToLower(query))

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matches []scored
	for i, doc := range ix.docs {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, lookup.FromContext(err)
			}
		}

		ok, err := matchesAll(doc, cfg.Filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		score := ix.score(doc, terms)
		if score > 0 {
			matches = append(matches, scored{doc: doc, score: score})
		}
	}

	sortMatches(matches, cfg.Sort)

	total := len(matches)
	start := min(cfg.Offset, total)
	end := min(cfg.Offset+cfg.Limit, total)

	res := &lookup.Results{
		Hits:  make([]lookup.Hit, 0, end-start),
		Total: int64(total),
		Query: query,
	}
	for _, m := range matches[start:end] {
		res.Hits = append(res.Hits, lookup.Hit{
			ID:     m.doc.ID,
			Score:  m.score,
			Fields: m.doc.Fields,
		})
	}
	if end < total {
		next := end
		res.NextOffset = &next
	}
	res.Took = time.Since(started).Milliseconds()

	return res, nil
}

type scored struct {
	doc   Document
	score float64
}

// score ranks doc for a typeahead query. Each term earns 2 points per field
// where it prefixes a word and 1 point per field where it only occurs
// inside a word. Documents matching every term get a 1.5x boost.
func (ix *Index) score(doc Document, terms []string) float64 {
	if len(terms) == 0 {
		return 1
	}

	total := 0.0
	matched := 0
	for _, term := range terms {
		termScore := 0.0
		for _, value := range ix.values(doc) {
			termScore += matchValue(value, term)
		}
		if termScore > 0 {
			matched++
			total += termScore
		}
	}

	if matched == 0 {
		return 0
	}
	if matched == len(terms) {
		total *= 1.5
	}
	return total
}

func (ix *Index) values(doc Document) []any {
	if len(ix.searchable) == 0 {
		values := make([]any, 0, len(doc.Fields))
		keys := make([]string, 0, len(doc.Fields))
		for k := range doc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			values = append(values, doc.Fields[k])
		}
		return values
	}

	values := make([]any, 0, len(ix.searchable))
	for _, field := range ix.searchable {
		if v, ok := doc.Fields[field]; ok {
			values = append(values, v)
		}
	}
	return values
}

// matchValue returns the best match score of term inside value.
func matchValue(value any, term string) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return matchText(v, term)
	case []any:
		best := 0.0
		for _, item := range v {
			best = max(best, matchValue(item, term))
		}
		return best
	case []string:
		best := 0.0
		for _, item := range v {
			best = max(best, matchText(item, term))
		}
		return best
	case map[string]any:
		best := 0.0
		for _, item := range v {
			best = max(best, matchValue(item, term))
		}
		return best
	default:
		return matchText(fmt.Sprint(v), term)
	}
}

func matchText(text, term string) float64 {
	text = strings.ToLower(text)
	if !strings.Contains(text, term) {
		return 0
	}
	for _, word := range strings.FieldsFunc(text, isSeparator) {
		if strings.HasPrefix(word, term) {
			return 2
		}
	}
	return 1
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '.', '@', '-', '_', ',', '/':
		return true
	}
	return false
}

func sortMatches(matches []scored, fields []lookup.SortField) {
	sort.SliceStable(matches, func(i, j int) bool {
		for _, sf := range fields {
			var c int
			if sf.Field == "_score" {
				c = compareFloat(matches[i].score, matches[j].score)
			} else {
				c = compareValues(matches[i].doc.Fields[sf.Field], matches[j].doc.Fields[sf.Field])
			}
			if c != 0 {
				if sf.Desc {
					return c > 0
				}
				return c < 0
			}
		}

		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].doc.ID < matches[j].doc.ID
	})
}
