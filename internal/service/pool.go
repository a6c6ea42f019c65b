package service

import (
	"context"
	"sync"

	"github.com/Ning0612/mistergen/internal/adapter"
)

// sessionPool hands out idle sessions and opens new ones on demand.
// Concurrency is bounded by the caller, so the pool never holds more
// sessions than there are workers.
type sessionPool struct {
	factory adapter.SessionFactory

	mu   sync.Mutex
	idle []adapter.Session
	all  []adapter.Session
}

func newSessionPool(factory adapter.SessionFactory) *sessionPool {
	return &sessionPool{factory: factory}
}

// get returns an idle session or opens a new one
func (p *sessionPool) get(ctx context.Context) (adapter.Session, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	s, err := p.factory.Open(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.all = append(p.all, s)
	p.mu.Unlock()
	return s, nil
}

// put returns a healthy session for reuse
func (p *sessionPool) put(s adapter.Session) {
	p.mu.Lock()
	p.idle = append(p.idle, s)
	p.mu.Unlock()
}

// discard closes a session that hit a fatal error
func (p *sessionPool) discard(s adapter.Session) {
	p.mu.Lock()
	for i, cur := range p.all {
		if cur == s {
			p.all = append(p.all[:i], p.all[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	s.Close()
}

// Close closes every session the pool opened
func (p *sessionPool) Close() error {
	p.mu.Lock()
	all := p.all
	p.all, p.idle = nil, nil
	p.mu.Unlock()

	var lastErr error
	for _, s := range all {
		if err := s.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
