package inflight

import (
	"context"
	"sync"
)

type memoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemoryGuard() Guard {
	return &memoryGuard{
		busy: make(map[string]struct{}),
	}
}

func (g *memoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[key]; ok {
		return nil, ErrInFlight
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}
