package cache

import (
	"context"
	"time"

	"alignd/pkg/types"
)

// State represents the lifecycle state of a cached asset.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Geometry is the renderer-owned handle for a loaded asset. The cache
// treats it as opaque apart from its cost and teardown contract.
type Geometry interface {
	// Bounds returns the axis-aligned bounds of the loaded asset.
	Bounds() types.BoundingBox
	// Cost returns the eviction cost charged against the cache budget,
	// e.g. the vertex count.
	Cost() int
	// Release tears the geometry down. Called exactly once, on eviction.
	Release() error
}

// Loader loads model bytes into a renderable asset. Supplied externally;
// one call per cache-initiated load.
type Loader interface {
	Load(ctx context.Context, m types.Model) (Geometry, error)
}

// ModelSource resolves a model id to its catalog entry.
type ModelSource interface {
	Lookup(id string) (types.Model, bool)
}

// Handle is a borrowed reference to a cached asset. It must be returned
// with Cache.Release exactly once.
type Handle struct {
	ModelID string
	geom    Geometry
}

// Geometry returns the loaded asset backing the handle.
func (h Handle) Geometry() Geometry { return h.geom }

// Bounds is a convenience for the scene layer.
func (h Handle) Bounds() types.BoundingBox { return h.geom.Bounds() }

// entry wraps one asset plus its bookkeeping. One entry exists per
// model id at any time; all fields are guarded by the cache mutex.
type entry struct {
	id       string
	state    State
	geom     Geometry
	cost     int
	failure  error
	refs     int
	waiters  int
	lastUsed time.Time
	// closed exactly once, when the load resolves ready or failed
	done chan struct{}
}
