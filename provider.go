package typeahead

import "sync"

// Provider hands out one shared Session per scope key. Consumers that
// acquire the same key observe and drive the same session; the session is
// closed when the last of them releases it.
type Provider[R, M any] struct {
	search SearchFunc[R, M]
	cfg    config

	mu     sync.Mutex
	scopes map[string]*scope[R, M]
	closed bool
}

type scope[R, M any] struct {
	session *Session[R, M]
	refs    int
}

// NewProvider creates a provider whose sessions call search and share opts.
func NewProvider[R, M any](search SearchFunc[R, M], opts ...Option) *Provider[R, M] {
	return &Provider[R, M]{
		search: search,
		cfg:    newConfig(opts),
		scopes: make(map[string]*scope[R, M]),
	}
}

// Acquire returns the session for key, creating it with metadata if no
// consumer holds it. When the session already exists its original metadata
// is kept. The returned release func is safe to call more than once.
//
// After Close, Acquire returns a fresh session that is not tracked by the
// provider; releasing it closes it.
func (p *Provider[R, M]) Acquire(key string, metadata M) (*Session[R, M], func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		s := newSession(p.search, metadata, p.cfg)
		var once sync.Once
		return s, func() { once.Do(s.Close) }
	}

	sc, ok := p.scopes[key]
	if !ok {
		sc = &scope[R, M]{session: newSession(p.search, metadata, p.cfg)}
		p.scopes[key] = sc
	}
	sc.refs++

	var once sync.Once
	return sc.session, func() {
		once.Do(func() { p.release(key, sc) })
	}
}

func (p *Provider[R, M]) release(key string, sc *scope[R, M]) {
	p.mu.Lock()
	sc.refs--
	last := sc.refs == 0
	if last && p.scopes[key] == sc {
		delete(p.scopes, key)
	}
	p.mu.Unlock()

	if last {
		sc.session.Close()
	}
}

// Len returns the number of live scopes.
func (p *Provider[R, M]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scopes)
}

// Close closes every live session regardless of outstanding holders.
func (p *Provider[R, M]) Close() {
	p.mu.Lock()
	p.closed = true
	scopes := p.scopes
	p.scopes = make(map[string]*scope[R, M])
	p.mu.Unlock()

	for _, sc := range scopes {
		sc.session.Close()
	}
}
