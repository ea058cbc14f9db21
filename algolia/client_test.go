package algolia

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

func TestClientLazyCredentials(t *testing.T) {
	calls := 0
	client := NewClient(func() (Secrets, error) {
		calls++
		return Secrets{}, errors.New("vault sealed")
	})

	if calls != 0 {
		t.Fatalf("Expected credentials to be fetched lazily, got %d fetches", calls)
	}

	ctx := context.Background()
	err := client.SaveObject(ctx, "users", map[string]any{"objectID": "u1"})
	if err == nil || !strings.Contains(err.Error(), "vault sealed") {
		t.Errorf("Expected the fetch error, got %v", err)
	}

	if err := client.DeleteObject(ctx, "users", "u1"); err == nil {
		t.Error("Expected DeleteObject to fail")
	}
	if err := client.SaveObjects(ctx, "users", []map[string]any{{"objectID": "u1"}}); err == nil {
		t.Error("Expected SaveObjects to fail")
	}

	if calls != 1 {
		t.Errorf("Expected credentials to be fetched once, got %d", calls)
	}
}

func TestSaveObjectsEmpty(t *testing.T) {
	client := NewClient(StaticSecrets("", ""))
	if err := client.SaveObjects(context.Background(), "users", nil); err != nil {
		t.Errorf("Expected an empty batch to be a no-op, got %v", err)
	}
}

type ctxKey struct{}

// recordingRequester answers every request with body and records the
// request contexts it saw.
type recordingRequester struct {
	mu       sync.Mutex
	body     string
	requests []*http.Request
}

func (r *recordingRequester) Request(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Header:     make(http.Header),
	}, nil
}

func (r *recordingRequester) contexts() []context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]context.Context, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, req.Context())
	}
	return out
}

// blockingRequester holds every request until its context is done.
type blockingRequester struct {
	started chan struct{}
}

func (r *blockingRequester) Request(req *http.Request) (*http.Response, error) {
	select {
	case r.started <- struct{}{}:
	default:
	}
	<-req.Context().Done()
	return nil, req.Context().Err()
}

func TestClientPassesContext(t *testing.T) {
	requester := &recordingRequester{body: `{"objectID":"u1","taskID":1}`}
	client := NewClient(StaticSecrets("app", "key"), WithRequester(requester))

	ctx := context.WithValue(context.Background(), ctxKey{}, "write")

	if err := client.SaveObject(ctx, "users", map[string]any{"objectID": "u1"}); err != nil {
		t.Fatalf("SaveObject failed: %v", err)
	}
	if err := client.DeleteObject(ctx, "users", "u1"); err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}

	contexts := requester.contexts()
	if len(contexts) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(contexts))
	}
	for i, c := range contexts {
		if c.Value(ctxKey{}) != "write" {
			t.Errorf("Request %d did not carry the caller context", i)
		}
	}
}

func TestSearcherPassesContext(t *testing.T) {
	requester := &recordingRequester{body: `{"hits":[{"objectID":"u1","name":"Ada"}],"nbHits":1,"page":0,"nbPages":1}`}
	searcher := NewSearcher(NewClient(StaticSecrets("app", "key"), WithRequester(requester)), "users")

	ctx := context.WithValue(context.Background(), ctxKey{}, "search")
	res, err := searcher.Search(ctx, "ada")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].ID != "u1" || res.Hits[0].Fields["name"] != "Ada" {
		t.Errorf("Unexpected hits %+v", res.Hits)
	}

	contexts := requester.contexts()
	if len(contexts) != 1 || contexts[0].Value(ctxKey{}) != "search" {
		t.Errorf("Expected the search request to carry the caller context")
	}
}

func TestSearcherCancellation(t *testing.T) {
	requester := &blockingRequester{started: make(chan struct{}, 1)}
	searcher := NewSearcher(NewClient(StaticSecrets("app", "key"), WithRequester(requester)), "users")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := searcher.Search(ctx, "ada")
		errc <- err
	}()

	select {
	case <-requester.started:
	case <-time.After(5 * time.Second):
		t.Fatal("Search never reached the requester")
	}
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, lookup.ErrCanceled) {
			t.Errorf("Expected ErrCanceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Search did not return after its context was cancelled")
	}
}
