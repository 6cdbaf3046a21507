package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"alignd/internal/align"
	"alignd/internal/registry"
	"alignd/pkg/types"
)

type mockModels struct {
	models []types.Model
	meta   map[string]types.ModelMetadata
}

func (m *mockModels) List() []types.Model { return append([]types.Model(nil), m.models...) }

func (m *mockModels) Lookup(id string) (types.Model, bool) {
	for _, mdl := range m.models {
		if mdl.ID == id {
			return mdl, true
		}
	}
	return types.Model{}, false
}

func (m *mockModels) Metadata(id string) (types.ModelMetadata, error) {
	if meta, ok := m.meta[id]; ok {
		return meta, nil
	}
	return types.ModelMetadata{}, registry.ErrModelNotFound(id)
}

type mockCache struct {
	mu         sync.Mutex
	prefetched []string
	status     types.CacheStatus
}

func (m *mockCache) Prefetch(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefetched = append(m.prefetched, ids...)
	return nil
}

func (m *mockCache) Snapshot() types.CacheStatus { return m.status }

type mockAlign struct {
	snap      align.Snapshot
	enterErr  error
	updateErr error
	commitErr error
	cancelErr error
}

func (m *mockAlign) Enter(modelID string, polys []types.Polygon) (align.Snapshot, error) {
	if m.enterErr != nil {
		return align.Snapshot{}, m.enterErr
	}
	return m.snap, nil
}

func (m *mockAlign) UpdateTransform(t types.Transform) (align.Snapshot, error) {
	if m.updateErr != nil {
		return align.Snapshot{}, m.updateErr
	}
	s := m.snap
	s.Current = &t
	return s, nil
}

func (m *mockAlign) Commit(ctx context.Context, buildingID string) (align.Snapshot, error) {
	if m.commitErr != nil {
		return align.Snapshot{}, m.commitErr
	}
	return align.Snapshot{State: align.StateIdle}, nil
}

func (m *mockAlign) Cancel() (align.Snapshot, error) {
	if m.cancelErr != nil {
		return align.Snapshot{}, m.cancelErr
	}
	return align.Snapshot{State: align.StateIdle}, nil
}

func (m *mockAlign) Snapshot() align.Snapshot { return m.snap }

type mockPlacements struct {
	placements []types.Placement
	err        error
}

func (m *mockPlacements) ListPlacements(ctx context.Context) ([]types.Placement, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]types.Placement(nil), m.placements...), nil
}

func (m *mockPlacements) GetPlacement(ctx context.Context, modelID string) (types.Placement, error) {
	if m.err != nil {
		return types.Placement{}, m.err
	}
	for _, p := range m.placements {
		if p.ModelID == modelID {
			return p, nil
		}
	}
	return types.Placement{}, registry.ErrPlacementNotFound(modelID)
}

func newTestMux(models *mockModels, cch *mockCache, al *mockAlign, pl *mockPlacements) http.Handler {
	if models == nil {
		models = &mockModels{}
	}
	if cch == nil {
		cch = &mockCache{}
	}
	if al == nil {
		al = &mockAlign{snap: align.Snapshot{State: align.StateIdle}}
	}
	if pl == nil {
		pl = &mockPlacements{}
	}
	return NewMux(Deps{Models: models, Cache: cch, Align: al, Placements: pl, Start: time.Now()})
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
