package service

import (
	"sync"

	"github.com/ethos-ledger/ethos/internal/apperr"
)

// Guard is a set of per-key in-flight flags. A second acquire of a held key
// is rejected rather than queued.
type Guard struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{held: make(map[string]bool)}
}

// TryAcquire marks key in flight. It returns apperr.ErrInFlight if key is
// already held; otherwise the returned release func must be called once the
// operation finishes.
func (g *Guard) TryAcquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] {
		return nil, apperr.ErrInFlight
	}
	g.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
