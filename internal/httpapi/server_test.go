package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alignd/internal/align"
	"alignd/pkg/types"
)

func TestModelsHandler(t *testing.T) {
	models := &mockModels{models: []types.Model{{ID: "a.glb"}, {ID: "b.obj"}}}
	r := newTestMux(models, nil, nil, nil)
	w := doJSON(r, http.MethodGet, "/models", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("models len=%d", len(body.Models))
	}
}

func TestModelByID(t *testing.T) {
	models := &mockModels{models: []types.Model{{ID: "a.glb", Name: "a"}}}
	r := newTestMux(models, nil, nil, nil)
	w := doJSON(r, http.MethodGet, "/models/a.glb", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/models/missing.glb", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing model status=%d", w.Code)
	}
}

func TestModelMetadata(t *testing.T) {
	models := &mockModels{
		models: []types.Model{{ID: "a.glb"}},
		meta:   map[string]types.ModelMetadata{"a.glb": {Format: "glb", VertexCount: 12}},
	}
	r := newTestMux(models, nil, nil, nil)
	w := doJSON(r, http.MethodGet, "/models/a.glb/metadata", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var meta types.ModelMetadata
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("json: %v", err)
	}
	if meta.VertexCount != 12 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	w = doJSON(r, http.MethodGet, "/models/missing/metadata", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing metadata status=%d", w.Code)
	}
}

func TestPrefetchAccepted(t *testing.T) {
	models := &mockModels{models: []types.Model{{ID: "a.glb"}}}
	cch := &mockCache{}
	r := newTestMux(models, cch, nil, nil)
	w := doJSON(r, http.MethodPost, "/models/a.glb/prefetch", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	// Warm-up runs in the background.
	deadline := time.Now().Add(2 * time.Second)
	for {
		cch.mu.Lock()
		n := len(cch.prefetched)
		cch.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("prefetch never invoked")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPrefetchUnknownModel(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	w := doJSON(r, http.MethodPost, "/models/nope/prefetch", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPlacements(t *testing.T) {
	pl := &mockPlacements{placements: []types.Placement{
		{ModelID: "a.glb", BuildingID: "b1", Transform: types.IdentityTransform()},
	}}
	r := newTestMux(nil, nil, nil, pl)
	w := doJSON(r, http.MethodGet, "/placements", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.PlacementsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Placements) != 1 || body.Placements[0].BuildingID != "b1" {
		t.Fatalf("unexpected placements: %+v", body.Placements)
	}

	w = doJSON(r, http.MethodGet, "/placements/a.glb", "")
	if w.Code != http.StatusOK {
		t.Fatalf("by model status=%d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/placements/missing.glb", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing placement status=%d", w.Code)
	}
}

func TestAlignEnterAccepted(t *testing.T) {
	al := &mockAlign{snap: align.Snapshot{State: align.StatePreparing, SessionID: "s1", ModelID: "a.glb"}}
	r := newTestMux(nil, nil, al, nil)
	body := `{"model_id":"a.glb","polygons":[{"id":"p1","vertices":[[0,0,0],[1,0,0],[1,1,0]]}]}`
	w := doJSON(r, http.MethodPost, "/align/enter", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var sess types.SessionStatus
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sess.State != "preparing" || sess.SessionID != "s1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestAlignTransform(t *testing.T) {
	al := &mockAlign{snap: align.Snapshot{State: align.StateAligning, SessionID: "s1"}}
	r := newTestMux(nil, nil, al, nil)
	body := `{"transform":{"translation":[1,2,0],"rotation":[0,0,0,1],"scale":[1,1,1]}}`
	w := doJSON(r, http.MethodPost, "/align/transform", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var sess types.SessionStatus
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sess.Current == nil || sess.Current.Translation[0] != 1 {
		t.Fatalf("current transform not echoed: %+v", sess.Current)
	}
}

func TestAlignCommitAndCancel(t *testing.T) {
	al := &mockAlign{snap: align.Snapshot{State: align.StateAligning}}
	r := newTestMux(nil, nil, al, nil)
	w := doJSON(r, http.MethodPost, "/align/commit", `{"building_id":"b1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("commit status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPost, "/align/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAlignBadJSON(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	w := doJSON(r, http.MethodPost, "/align/enter", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestAlignUnsupportedMediaType(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/align/enter", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestAlignBodyTooLarge(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	big := bytes.Repeat([]byte{'a'}, int(maxBodyBytes)+10)
	req := httptest.NewRequest(http.MethodPost, "/align/enter", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	cch := &mockCache{status: types.CacheStatus{BudgetCost: 1000, UsedCost: 250}}
	al := &mockAlign{snap: align.Snapshot{State: align.StateIdle}}
	r := newTestMux(nil, cch, al, nil)
	w := doJSON(r, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Cache.BudgetCost != 1000 || body.Session.State != "idle" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ServerTimeUnix == 0 {
		t.Fatalf("server time missing")
	}
}

func TestHealthz(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	w := doJSON(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	w := doJSON(r, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestMux(nil, nil, nil, nil)
	// Record at least one request so the counter series exists.
	doJSON(r, http.MethodGet, "/healthz", "")
	w := doJSON(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alignd_http_requests_total") {
		t.Fatalf("http metrics missing from exposition")
	}
}
