package registry

import (
	"encoding/json"
	"os"

	"alignd/pkg/types"
)

// Index is the in-memory model catalog built from a directory scan.
type Index struct {
	models []types.Model
	byID   map[string]types.Model
}

// NewIndex builds an Index from a model list.
func NewIndex(models []types.Model) *Index {
	idx := &Index{
		models: models,
		byID:   make(map[string]types.Model, len(models)),
	}
	for _, m := range models {
		idx.byID[m.ID] = m
	}
	return idx
}

// OpenDir scans dir and returns the resulting Index.
func OpenDir(dir string) (*Index, error) {
	models, err := ScanDir(dir)
	if err != nil {
		return nil, err
	}
	return NewIndex(models), nil
}

// List returns the catalog. The slice is a copy to avoid external mutation.
func (idx *Index) List() []types.Model {
	out := make([]types.Model, len(idx.models))
	copy(out, idx.models)
	return out
}

// Lookup returns the model for id.
func (idx *Index) Lookup(id string) (types.Model, bool) {
	m, ok := idx.byID[id]
	return m, ok
}

// sidecar mirrors the on-disk <asset>.meta.json layout.
type sidecar struct {
	VertexCount int                `json:"vertex_count"`
	BoundingBox *types.BoundingBox `json:"bounding_box"`
}

// defaultBounds is used when an asset has no sidecar metadata: a unit
// footprint centered on the origin, base on the ground plane.
func defaultBounds() types.BoundingBox {
	return types.BoundingBox{
		Min: [3]float64{-0.5, -0.5, 0},
		Max: [3]float64{0.5, 0.5, 1},
	}
}

// Metadata returns the solver-facing facts for a model. The bounding
// box and vertex count come from the asset's sidecar file
// (<path>.meta.json); a missing or unreadable sidecar yields unit
// bounds so alignment still produces a usable proposal.
func (idx *Index) Metadata(id string) (types.ModelMetadata, error) {
	m, ok := idx.byID[id]
	if !ok {
		return types.ModelMetadata{}, modelNotFoundError{id: id}
	}
	meta := types.ModelMetadata{
		Format:      m.Format,
		BoundingBox: defaultBounds(),
	}
	b, err := os.ReadFile(m.Path + ".meta.json")
	if err != nil {
		return meta, nil
	}
	var sc sidecar
	if err := json.Unmarshal(b, &sc); err != nil {
		return meta, nil
	}
	meta.VertexCount = sc.VertexCount
	if sc.BoundingBox != nil {
		meta.BoundingBox = *sc.BoundingBox
	}
	return meta, nil
}
