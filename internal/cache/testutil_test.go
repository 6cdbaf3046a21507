package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"alignd/pkg/types"
)

type fakeGeom struct {
	mu       sync.Mutex
	id       string
	cost     int
	released bool
}

func (g *fakeGeom) Bounds() types.BoundingBox {
	return types.BoundingBox{Min: [3]float64{-1, -1, 0}, Max: [3]float64{1, 1, 2}}
}

func (g *fakeGeom) Cost() int { return g.cost }

func (g *fakeGeom) Release() error {
	g.mu.Lock()
	g.released = true
	g.mu.Unlock()
	return nil
}

func (g *fakeGeom) wasReleased() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// fakeLoader counts load invocations and supports failure injection and
// a gate channel to hold loads in flight.
type fakeLoader struct {
	mu     sync.Mutex
	calls  map[string]int
	costs  map[string]int
	fail   map[string]error
	gate   chan struct{}
	loaded map[string]*fakeGeom
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		calls:  make(map[string]int),
		costs:  make(map[string]int),
		fail:   make(map[string]error),
		loaded: make(map[string]*fakeGeom),
	}
}

func (l *fakeLoader) Load(ctx context.Context, m types.Model) (Geometry, error) {
	l.mu.Lock()
	l.calls[m.ID]++
	gate := l.gate
	err := l.fail[m.ID]
	cost := l.costs[m.ID]
	if cost == 0 {
		cost = 1
	}
	l.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	g := &fakeGeom{id: m.ID, cost: cost}
	l.mu.Lock()
	l.loaded[m.ID] = g
	l.mu.Unlock()
	return g, nil
}

func (l *fakeLoader) callCount(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

func (l *fakeLoader) geomFor(id string) *fakeGeom {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[id]
}

type fakeSource map[string]types.Model

func (s fakeSource) Lookup(id string) (types.Model, bool) {
	m, ok := s[id]
	return m, ok
}

func newTestCache(t *testing.T, budget, margin int, l *fakeLoader, ids ...string) *Cache {
	t.Helper()
	src := fakeSource{}
	for _, id := range ids {
		src[id] = types.Model{ID: id, Name: id, Path: id}
	}
	return New(Config{
		Source:     src,
		Loader:     l,
		BudgetCost: budget,
		MarginCost: margin,
		Logger:     zerolog.Nop(),
	})
}
