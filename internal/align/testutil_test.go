package align

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"alignd/internal/cache"
	"alignd/internal/registry"
	"alignd/pkg/types"
)

// fakeCache implements AssetCache with controllable resolution.
type fakeCache struct {
	mu       sync.Mutex
	refs     map[string]int
	gate     chan struct{} // when non-nil, Acquire blocks until closed
	fail     error
	acquires int
	releases int
}

func newFakeCache() *fakeCache {
	return &fakeCache{refs: map[string]int{}}
}

func (f *fakeCache) Acquire(ctx context.Context, id string) (cache.Handle, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return cache.Handle{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return cache.Handle{}, f.fail
	}
	f.refs[id]++
	f.acquires++
	return cache.Handle{ModelID: id}, nil
}

func (f *fakeCache) Release(h cache.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[h.ModelID]--
	f.releases++
}

func (f *fakeCache) refsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[id]
}

// fakeStore implements PlacementStore with failure injection.
type fakeStore struct {
	mu         sync.Mutex
	persisted  map[string]types.Transform
	persistErr error
	links      map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{persisted: map[string]types.Transform{}, links: map[string]string{}}
}

func (f *fakeStore) PersistTransform(ctx context.Context, modelID string, t types.Transform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted[modelID] = t
	return nil
}

func (f *fakeStore) Link(ctx context.Context, modelID, buildingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.links[modelID]; ok {
		if existing == buildingID {
			return nil
		}
		return registry.ErrConflict(modelID, existing)
	}
	f.links[modelID] = buildingID
	return nil
}

func (f *fakeStore) persistedFor(id string) (types.Transform, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.persisted[id]
	return t, ok
}

type staticMeta map[string]types.ModelMetadata

func (m staticMeta) Metadata(id string) (types.ModelMetadata, error) {
	return m[id], nil
}

func squarePolygons() []types.Polygon {
	return []types.Polygon{{
		ID: "p1",
		Vertices: [][3]float64{
			{0, 0, 0}, {4, 0, 0}, {4, 2, 0}, {0, 2, 0},
		},
	}}
}

func unitMeta(id string) staticMeta {
	return staticMeta{id: {
		Format:      "glb",
		BoundingBox: types.BoundingBox{Min: [3]float64{-0.5, -0.5, 0}, Max: [3]float64{0.5, 0.5, 1}},
		VertexCount: 100,
	}}
}

func newTestController(t *testing.T, fc *fakeCache, fs *fakeStore, meta MetadataSource) *Controller {
	t.Helper()
	return New(Config{
		Cache:       fc,
		Metadata:    meta,
		Placements:  fs,
		LoadTimeout: 2 * time.Second,
		Logger:      zerolog.Nop(),
	})
}

// waitState polls until the controller reaches the wanted state.
func waitState(t *testing.T, c *Controller, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		if snap.State == want {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller never reached %s (now %s)", want, c.Snapshot().State)
	return Snapshot{}
}
