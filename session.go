package typeahead

import (
	"context"
	"strings"
	"sync"

	"github.com/letmevibethatforyou/typeahead/internal/debounce"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SearchFunc looks up the full result set for term. An empty slice means no
// results; errors are reserved for transport or backend failures. metadata
// is the value the session was created with, passed through unchanged.
type SearchFunc[R, M any] func(ctx context.Context, term string, metadata M) ([]R, error)

// Session is one debounced search stream. All methods are safe for
// concurrent use.
type Session[R, M any] struct {
	search   SearchFunc[R, M]
	metadata M
	cfg      config
	debounce *debounce.Debouncer
	tracer   trace.Tracer
	metrics  metrics

	// ctx is the parent of every lookup context and is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	term         string
	lastSearched string
	results      []R
	inProgress   bool
	err          error
	generation   uint64
	cancelLookup context.CancelFunc
	subscribers  map[uint64]chan State[R]
	nextSub      uint64
	closed       bool
}

// New creates a session that calls search with metadata on every lookup.
func New[R, M any](search SearchFunc[R, M], metadata M, opts ...Option) *Session[R, M] {
	return newSession(search, metadata, newConfig(opts))
}

func newSession[R, M any](search SearchFunc[R, M], metadata M, cfg config) *Session[R, M] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session[R, M]{
		search:      search,
		metadata:    metadata,
		cfg:         cfg,
		debounce:    debounce.New(cfg.clock, cfg.delay),
		tracer:      cfg.tracerProvider.Tracer(instrumentationName),
		metrics:     newMetrics(cfg.meterProvider, cfg.logger),
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[uint64]chan State[R]),
	}
}

// SetSearchTerm records term and reconciles the session with it:
//   - an empty trimmed term clears results and abandons pending work;
//   - a trimmed term equal to the last searched one dispatches nothing and
//     clears the in-progress flag;
//   - any other term schedules a debounced lookup and marks the session
//     as in progress immediately.
func (s *Session[R, M]) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.term = term
	actual := strings.TrimSpace(term)

	switch {
	case actual == "":
		s.debounce.Cancel()
		s.supersede()
		s.lastSearched = ""
		s.results = nil
		s.inProgress = false
		s.err = nil

	case actual == s.lastSearched:
		// A lookup still pending for this term keeps its generation and
		// lands normally.
		s.inProgress = false

	default:
		s.supersede()
		s.lastSearched = actual
		s.inProgress = true
		s.err = nil

		gen := s.generation
		s.debounce.Debounce(func() { s.dispatch(gen) })
	}

	s.publish()
}

// ClearSearch is SetSearchTerm("").
func (s *Session[R, M]) ClearSearch() {
	s.SetSearchTerm("")
}

// SearchTerm returns the raw term.
func (s *Session[R, M]) SearchTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// Results returns the latest result set. The slice must not be modified.
func (s *Session[R, M]) Results() []R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// IsSearchInProgress reports whether a lookup for the current term is pending.
func (s *Session[R, M]) IsSearchInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

// IsEmptySearchTerm reports whether the trimmed term is empty.
func (s *Session[R, M]) IsEmptySearchTerm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.term) == ""
}

// Err returns the failure of the latest lookup for the current term, if any.
func (s *Session[R, M]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Metadata returns the value passed to every lookup.
func (s *Session[R, M]) Metadata() M {
	return s.metadata
}

// State returns a snapshot of the session.
func (s *Session[R, M]) State() State[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe returns a channel that receives the current state at once and
// then every state the session publishes. A subscriber that falls behind
// only sees the newest state. The returned func unsubscribes and closes the
// channel; Close does the same for every subscriber.
func (s *Session[R, M]) Subscribe() (<-chan State[R], func()) {
	ch := make(chan State[R], 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	ch <- s.snapshot()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// Close stops the pending debounce, cancels the context of running
// lookups, closes subscriber channels and waits for running lookups to
// return. It must not be called from inside the SearchFunc.
func (s *Session[R, M]) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.debounce.Cancel()
		s.generation++
		for id, ch := range s.subscribers {
			delete(s.subscribers, id)
			close(ch)
		}
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// supersede makes every lookup scheduled or running so far stale.
// Callers hold s.mu.
func (s *Session[R, M]) supersede() {
	s.generation++
	if s.cfg.cancelSuperseded && s.cancelLookup != nil {
		s.cancelLookup()
		s.cancelLookup = nil
	}
}

// dispatch runs when the debounce window for generation gen elapses.
func (s *Session[R, M]) dispatch(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}

	term := s.lastSearched
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelLookup = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	s.cfg.logger.Debug("dispatching lookup", "term", term, "generation", gen)
	go s.lookup(ctx, cancel, gen, term)
}

func (s *Session[R, M]) lookup(ctx context.Context, cancel context.CancelFunc, gen uint64, term string) {
	done := sync.OnceFunc(s.wg.Done)
	defer done()
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "typeahead.lookup",
		trace.WithAttributes(
			attribute.Int("typeahead.term_length", len(term)),
			attribute.Int64("typeahead.generation", int64(gen)),
		),
	)
	defer span.End()

	started := s.cfg.clock.Now()
	results, err := s.search(ctx, term, s.metadata)
	took := s.cfg.clock.Now().Sub(started)

	s.mu.Lock()
	var outcome string
	var failure error
	switch {
	case s.closed:
		outcome = outcomeClosed
	case gen != s.generation:
		outcome = outcomeStale
	case err != nil:
		outcome = outcomeError
		failure = lookupFailed(err, term)
		s.err = failure
		s.inProgress = false
		s.publish()
	default:
		outcome = outcomeOK
		s.results = results
		s.err = nil
		s.inProgress = false
		s.publish()
	}
	onError := s.cfg.onError
	s.mu.Unlock()

	span.SetAttributes(attribute.String("typeahead.outcome", outcome))
	s.metrics.record(ctx, outcome, took)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
	}

	switch outcome {
	case outcomeError:
		s.cfg.logger.Debug("lookup failed", "term", term, "error", err)
		if onError != nil {
			// Leave the wait group first so the handler may Close the session.
			cancel()
			done()
			onError(term, failure)
		}
	case outcomeStale:
		s.cfg.logger.Debug("discarding stale lookup result", "term", term, "generation", gen)
	}
}

// publish offers the current state to every subscriber without blocking.
// Callers hold s.mu, which makes publish the only sender on each channel.
func (s *Session[R, M]) publish() {
	if len(s.subscribers) == 0 {
		return
	}

	st := s.snapshot()
	for _, ch := range s.subscribers {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

func (s *Session[R, M]) snapshot() State[R] {
	return State[R]{
		SearchTerm:         s.term,
		Results:            s.results,
		IsSearchInProgress: s.inProgress,
		IsEmptySearchTerm:  strings.TrimSpace(s.term) == "",
		Err:                s.err,
	}
}
