package typeahead

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/typeahead/clock"
	"go.uber.org/goleak"
)

func TestCached(t *testing.T) {
	var calls int32
	fail := errors.New("unavailable")
	search := func(ctx context.Context, term string, group string) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		if term == "fail" {
			return nil, fail
		}
		return []string{group + ":" + term}, nil
	}

	cached := Cached(search, 16, 0, func(group string) string { return group })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := cached(ctx, "ada", "eng")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(res) != 1 || res[0] != "eng:ada" {
			t.Fatalf("Unexpected results %v", res)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 underlying call, got %d", got)
	}

	res, err := cached(ctx, "ada", "ops")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res[0] != "ops:ada" {
		t.Errorf("Expected metadata to be part of the key, got %v", res)
	}

	for i := 0; i < 2; i++ {
		if _, err := cached(ctx, "fail", "eng"); !errors.Is(err, fail) {
			t.Errorf("Expected the failure to pass through, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("Expected failures not to be cached (4 calls), got %d", got)
	}
}

func TestCachedEviction(t *testing.T) {
	var calls int32
	search := func(ctx context.Context, term string, _ struct{}) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{term}, nil
	}

	cached := Cached(search, 1, 0, nil)
	ctx := context.Background()

	_, _ = cached(ctx, "a", struct{}{})
	_, _ = cached(ctx, "b", struct{}{})
	_, _ = cached(ctx, "a", struct{}{})

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected a size-1 cache to evict, got %d calls", got)
	}
}

func TestCachedExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls int32
	search := func(ctx context.Context, term string, _ struct{}) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{term}, nil
	}

	fake := clock.NewFake(time.Unix(0, 0))
	memo := cached(search, 8, time.Minute, nil, fake)
	ctx := context.Background()

	_, _ = memo(ctx, "a", struct{}{})
	fake.Advance(59 * time.Second)
	_, _ = memo(ctx, "a", struct{}{})
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("Expected a fresh entry to be served from cache, got %d calls", got)
	}

	fake.Advance(time.Second)
	_, _ = memo(ctx, "a", struct{}{})
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("Expected an expired entry to be looked up again, got %d calls", got)
	}
}

func TestCachedWithTTLStartsNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	search := func(ctx context.Context, term string, _ struct{}) ([]string, error) {
		return []string{term}, nil
	}
	cached := Cached(search, 0, time.Minute, nil)
	if _, err := cached(context.Background(), "a", struct{}{}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
}
