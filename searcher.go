package typeahead

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

// FromSearcher adapts a lookup.Searcher into a SearchFunc. filters turns
// the session metadata into search options (it may be nil), opts are applied to every
// query, and decode converts each hit into a result.
func FromSearcher[R, M any](
	searcher lookup.Searcher,
	decode func(lookup.Hit) (R, error),
	filters func(M) []lookup.SearchOption,
	opts ...lookup.SearchOption,
) SearchFunc[R, M] {
	return func(ctx context.Context, term string, metadata M) ([]R, error) {
		all := append([]lookup.SearchOption(nil), opts...)
		if filters != nil {
			all = append(all, filters(metadata)...)
		}

		res, err := searcher.Search(ctx, term, all...)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return []R{}, nil
		}

		out := make([]R, 0, len(res.Hits))
		for _, hit := range res.Hits {
			r, err := decode(hit)
			if err != nil {
				return nil, errors.Wrapf(err, "decode hit %s", hit.ID)
			}
			out = append(out, r)
		}
		return out, nil
	}
}
