package algolia

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/typeahead/lookup"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Searcher implements lookup.Searcher against one Algolia index.
type Searcher struct {
	client    *Client
	indexName string
}

// NewSearcher creates a searcher for indexName.
func NewSearcher(client *Client, indexName string) *Searcher {
	return &Searcher{
		client:    client,
		indexName: indexName,
	}
}

// Search implements lookup.Searcher. Algolia ranks hits itself, so Score is
// derived from the hit's position and sort fields other than relevance are
// ignored; custom orderings need replica indices.
func (s *Searcher) Search(ctx context.Context, query string, opts ...lookup.SearchOption) (*lookup.Results, error) {
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, lookup.FromContext(err)
	}

	ctx, span := s.client.tracer.Start(ctx, "algolia.search",
		trace.WithAttributes(
			attribute.String("algolia.index_name", s.indexName),
			attribute.Int("algolia.query_length", len(query)),
		),
	)
	defer span.End()

	cfg := lookup.Apply(opts...)
	params, err := buildSearchParams(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid search parameters")
		return nil, err
	}

	index, err := s.client.index(ctx, span, s.indexName)
	if err != nil {
		return nil, errors.WithSecondaryError(lookup.ErrBackendUnavailable, err)
	}

	res, err := index.Search(query, append(params, ctx)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		// The transport reports a cancelled request as a plain network error.
		if cerr := ctx.Err(); cerr != nil {
			return nil, errors.WithSecondaryError(lookup.FromContext(cerr), err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, lookup.FromContext(err)
		}
		return nil, errors.WithSecondaryError(
			lookup.ErrBackendUnavailable,
			errors.Wrap(err, "Algolia search failed"),
		)
	}

	results := &lookup.Results{
		Hits:  make([]lookup.Hit, 0, len(res.Hits)),
		Total: int64(res.NbHits),
		Query: query,
	}
	for i, hit := range res.Hits {
		id, _ := hit["objectID"].(string)
		results.Hits = append(results.Hits, lookup.Hit{
			ID:     id,
			Score:  rankScore(len(res.Hits), i),
			Fields: hit,
		})
	}
	if next := res.Page + 1; next < res.NbPages {
		offset := next * cfg.Limit
		results.NextOffset = &offset
	}
	results.Took = time.Since(started).Milliseconds()

	span.SetAttributes(attribute.Int("algolia.hit_count", len(results.Hits)))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

func buildSearchParams(cfg *lookup.SearchConfig) ([]interface{}, error) {
	params := []interface{}{opt.HitsPerPage(cfg.Limit)}
	if cfg.Offset > 0 {
		params = append(params, opt.Page(cfg.Offset/cfg.Limit))
	}

	filters := make([]string, 0, len(cfg.Filters))
	for _, e := range cfg.Filters {
		f, err := filterString(e)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if len(filters) > 0 {
		params = append(params, opt.Filters(strings.Join(filters, " AND ")))
	}

	return params, nil
}

// rankScore maps a hit position to (0, 1], first hit highest.
func rankScore(total, position int) float64 {
	if total == 0 {
		return 1
	}
	return float64(total-position) / float64(total)
}

// filterString renders an expression in Algolia filter syntax. Algolia can
// only negate single facet filters, so NOT is accepted over Eq, Ne and In.
func filterString(e lookup.Expression) (string, error) {
	switch x := e.(type) {
	case lookup.AndExpr:
		return joinFilters(x.Exprs, " AND ")
	case lookup.OrExpr:
		return joinFilters(x.Exprs, " OR ")
	case lookup.NotExpr:
		return negate(x.Inner)
	case lookup.EqExpr:
		return facet(x.Field, x.Value), nil
	case lookup.NeExpr:
		return "NOT " + facet(x.Field, x.Value), nil
	case lookup.InExpr:
		if len(x.Values) == 0 {
			return "", errors.Wrapf(lookup.ErrInvalidExpression, "empty IN on %s", x.Field)
		}
		parts := make([]string, 0, len(x.Values))
		for _, v := range x.Values {
			parts = append(parts, facet(x.Field, v))
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	default:
		return "", errors.Wrapf(lookup.ErrInvalidExpression, "algolia does not support %T", e)
	}
}

func joinFilters(exprs []lookup.Expression, sep string) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		f, err := filterString(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+f+")")
	}
	if len(parts) == 0 {
		return "", errors.Wrap(lookup.ErrInvalidExpression, "empty group")
	}
	return strings.Join(parts, sep), nil
}

func negate(e lookup.Expression) (string, error) {
	switch x := e.(type) {
	case lookup.EqExpr:
		return "NOT " + facet(x.Field, x.Value), nil
	case lookup.NeExpr:
		return facet(x.Field, x.Value), nil
	case lookup.InExpr:
		parts := make([]string, 0, len(x.Values))
		for _, v := range x.Values {
			parts = append(parts, "NOT "+facet(x.Field, v))
		}
		if len(parts) == 0 {
			return "", errors.Wrapf(lookup.ErrInvalidExpression, "empty IN on %s", x.Field)
		}
		return strings.Join(parts, " AND "), nil
	default:
		return "", errors.Wrapf(lookup.ErrInvalidExpression, "algolia cannot negate %T", e)
	}
}

func facet(field string, value any) string {
	return escapeField(field) + ":" + escapeValue(value)
}

func escapeField(field string) string {
	if strings.ContainsAny(field, " :-()\"") {
		return strconv.Quote(field)
	}
	return field
}

func escapeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return `"null"`
	case bool:
		return strconv.FormatBool(v)
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	case string:
		return strconv.Quote(v)
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}
