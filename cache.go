package typeahead

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/letmevibethatforyou/typeahead/clock"
)

// DefaultCacheSize bounds a Cached lookup when no positive size is given.
const DefaultCacheSize = 256

type cacheEntry[R any] struct {
	results   []R
	expiresAt time.Time
}

// Cached wraps search with an LRU of successful result sets keyed by
// metadata and term. size <= 0 uses DefaultCacheSize and ttl <= 0 means
// entries never expire. key maps metadata to a cache key; nil treats all
// metadata as equal. Cached result slices are shared and must not be
// modified.
func Cached[R, M any](search SearchFunc[R, M], size int, ttl time.Duration, key func(M) string) SearchFunc[R, M] {
	return cached(search, size, ttl, key, clock.Real())
}

func cached[R, M any](search SearchFunc[R, M], size int, ttl time.Duration, key func(M) string, c clock.Clock) SearchFunc[R, M] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// New only fails for a non-positive size.
	cache, _ := lru.New[string, cacheEntry[R]](size)

	return func(ctx context.Context, term string, metadata M) ([]R, error) {
		k := term
		if key != nil {
			k = key(metadata) + "\x00" + term
		}

		if e, ok := cache.Get(k); ok {
			if ttl <= 0 || c.Now().Before(e.expiresAt) {
				return e.results, nil
			}
			cache.Remove(k)
		}

		results, err := search(ctx, term, metadata)
		if err != nil {
			return nil, err
		}

		e := cacheEntry[R]{results: results}
		if ttl > 0 {
			e.expiresAt = c.Now().Add(ttl)
		}
		cache.Add(k, e)
		return results, nil
	}
}
