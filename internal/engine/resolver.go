package engine

import (
	"sync"

	"github.com/five82/breate/internal/filter"
)

// Resolver hands out monotonically increasing tokens and decides whether a
// response is still wanted. Only the most recently issued token is current.
type Resolver struct {
	mu      sync.Mutex
	current filter.Token
}

// Issue allocates the next token and makes it current.
func (r *Resolver) Issue() filter.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	return r.current
}

// Current returns the latest issued token.
func (r *Resolver) Current() filter.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Accept reports whether a response carrying t should be applied.
func (r *Resolver) Accept(t filter.Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return t != 0 && t == r.current
}

// Invalidate advances the token without issuing a request so every response
// still in flight is discarded.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
}
