package align

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"alignd/internal/cache"
	"alignd/internal/registry"
	"alignd/internal/solver"
	"alignd/pkg/types"
)

// State represents the lifecycle state of the alignment workflow.
type State string

const (
	StateIdle       State = "idle"
	StatePreparing  State = "preparing"
	StateAligning   State = "aligning"
	StateCommitting State = "committing"
	// StateCancelled is transient: observers see it on a cancel or load
	// failure before the controller folds back to idle.
	StateCancelled State = "cancelled"
)

// AssetCache is the slice of the model cache the controller needs.
type AssetCache interface {
	Acquire(ctx context.Context, id string) (cache.Handle, error)
	Release(h cache.Handle)
}

// MetadataSource supplies the model bounds fed to the solver.
type MetadataSource interface {
	Metadata(id string) (types.ModelMetadata, error)
}

// PlacementStore persists committed transforms and building links.
type PlacementStore interface {
	PersistTransform(ctx context.Context, modelID string, t types.Transform) error
	Link(ctx context.Context, modelID, buildingID string) error
}

// Snapshot is a read-only projection of the controller state. Transforms
// are present only while the session is in aligning or committing.
type Snapshot struct {
	State      State
	SessionID  string
	ModelID    string
	PolygonIDs []string
	Initial    *types.Transform
	Current    *types.Transform
	Err        string
}

// session is the live state of one alignment attempt.
type session struct {
	id       string
	modelID  string
	polygons []types.Polygon
	polyIDs  []string

	handle   cache.Handle
	acquired bool

	initial      types.Transform
	current      types.Transform
	hasTransform bool
}

const defaultLoadTimeout = 2 * time.Minute

// Config encapsulates the controller's collaborators.
type Config struct {
	Cache      AssetCache
	Metadata   MetadataSource
	Placements PlacementStore
	// LoadTimeout bounds how long a session waits for the asset load.
	LoadTimeout time.Duration
	Logger      zerolog.Logger
}

// Controller is the alignment workflow state machine. All methods are
// safe for concurrent use; events are applied in the order the mutex
// admits them.
type Controller struct {
	mu      sync.Mutex
	state   State
	sess    *session
	seq     uint64 // bumped when a session ends; stale load completions check it
	lastErr string
	subs    []func(Snapshot)

	cache       AssetCache
	meta        MetadataSource
	store       PlacementStore
	loadTimeout time.Duration
	log         zerolog.Logger
}

// New constructs an idle Controller.
func New(cfg Config) *Controller {
	lt := cfg.LoadTimeout
	if lt <= 0 {
		lt = defaultLoadTimeout
	}
	return &Controller{
		state:       StateIdle,
		cache:       cfg.Cache,
		meta:        cfg.Metadata,
		store:       cfg.Placements,
		loadTimeout: lt,
		log:         cfg.Logger,
	}
}

// Subscribe registers an observer notified on every state transition.
// Callbacks run outside the controller lock and may call back in.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Enter starts an alignment session for modelID over the given
// footprints. The model is acquired in the background; the session
// reaches aligning once the load resolves and the solver proposes a
// transform. Rejected while another session is active.
func (c *Controller) Enter(modelID string, polys []types.Polygon) (Snapshot, error) {
	if modelID == "" {
		return Snapshot{}, validationError{msg: "model id required"}
	}
	if len(polys) == 0 {
		return Snapshot{}, validationError{msg: "no polygons selected"}
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Snapshot{}, validationError{msg: "alignment session already active"}
	}
	sess := &session{
		id:       uuid.NewString(),
		modelID:  modelID,
		polygons: append([]types.Polygon(nil), polys...),
	}
	for _, p := range polys {
		sess.polyIDs = append(sess.polyIDs, p.ID)
	}
	c.sess = sess
	c.state = StatePreparing
	c.lastErr = ""
	c.seq++
	seq := c.seq
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info().Str("session", sess.id).Str("model", modelID).
		Int("polygons", len(polys)).Msg("alignment session started")
	c.notify(snap)
	go c.prepare(seq, sess)
	return snap, nil
}

// prepare runs the session's single suspension point: waiting for the
// shared asset load, then seeding the transform.
func (c *Controller) prepare(seq uint64, sess *session) {
	ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
	defer cancel()
	h, err := c.cache.Acquire(ctx, sess.modelID)

	c.mu.Lock()
	if c.seq != seq || c.state != StatePreparing {
		// Session was cancelled while the load was in flight. The load
		// itself was not aborted; hand the reference straight back so
		// the refcount returns to its pre-session value.
		c.mu.Unlock()
		if err == nil {
			c.cache.Release(h)
		}
		return
	}
	if err != nil {
		c.failPrepareLocked(sess, err)
		return
	}

	meta, err := c.meta.Metadata(sess.modelID)
	if err == nil {
		var t types.Transform
		t, err = solver.Solve(meta.BoundingBox, sess.polygons)
		if err == nil {
			sess.handle = h
			sess.acquired = true
			sess.initial = t
			sess.current = t
			sess.hasTransform = true
			c.state = StateAligning
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.log.Info().Str("session", sess.id).Str("model", sess.modelID).Msg("alignment ready")
			c.notify(snap)
			return
		}
	}
	// Metadata or solve failure: the handle was acquired but the
	// session cannot proceed.
	c.mu.Unlock()
	c.cache.Release(h)
	c.mu.Lock()
	if c.seq == seq && c.state == StatePreparing {
		c.failPrepareLocked(sess, err)
		return
	}
	c.mu.Unlock()
}

// failPrepareLocked folds a failed preparation to idle. Caller holds
// c.mu; the lock is released here.
func (c *Controller) failPrepareLocked(sess *session, err error) {
	c.lastErr = err.Error()
	snapCancelled, snapIdle := c.foldLocked()
	c.mu.Unlock()
	c.log.Error().Err(err).Str("session", sess.id).Str("model", sess.modelID).
		Msg("alignment preparation failed")
	c.notify(snapCancelled, snapIdle)
}

// foldLocked moves the controller through the transient cancelled state
// back to idle, returning both snapshots for observers. Caller holds c.mu.
func (c *Controller) foldLocked() (cancelled, idle Snapshot) {
	c.state = StateCancelled
	cancelled = c.snapshotLocked()
	c.sess = nil
	c.seq++
	c.state = StateIdle
	idle = c.snapshotLocked()
	return cancelled, idle
}

// UpdateTransform replaces the session's current transform. Last write
// wins; there is no reconciliation across concurrent updates.
func (c *Controller) UpdateTransform(t types.Transform) (Snapshot, error) {
	c.mu.Lock()
	if c.state != StateAligning {
		st := c.state
		c.mu.Unlock()
		return Snapshot{}, stateError{op: "update transform", state: st}
	}
	if !t.Finite() {
		c.mu.Unlock()
		return Snapshot{}, validationError{msg: "transform has non-finite components"}
	}
	c.sess.current = t
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return snap, nil
}

// Commit persists the current transform and, when buildingID is given,
// links the model to the building. On success the session ends and the
// model is released to the cache. On persistence failure the session
// drops back to aligning with the transform retained, so a corrected
// retry commits the latest value.
func (c *Controller) Commit(ctx context.Context, buildingID string) (Snapshot, error) {
	c.mu.Lock()
	if c.state != StateAligning {
		st := c.state
		c.mu.Unlock()
		return Snapshot{}, stateError{op: "commit", state: st}
	}
	sess := c.sess
	t := sess.current
	c.state = StateCommitting
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	if buildingID != "" {
		if err := c.store.Link(ctx, sess.modelID, buildingID); err != nil {
			if !registry.IsConflict(err) {
				err = persistenceError{cause: err}
			}
			return c.commitFailed(sess, err)
		}
	}
	if err := c.store.PersistTransform(ctx, sess.modelID, t); err != nil {
		return c.commitFailed(sess, persistenceError{cause: err})
	}

	c.mu.Lock()
	h, acquired := sess.handle, sess.acquired
	c.sess = nil
	c.seq++
	c.state = StateIdle
	c.lastErr = ""
	snap = c.snapshotLocked()
	c.mu.Unlock()
	if acquired {
		c.cache.Release(h)
	}
	c.log.Info().Str("session", sess.id).Str("model", sess.modelID).
		Str("building", buildingID).Msg("alignment committed")
	c.notify(snap)
	return snap, nil
}

// commitFailed returns the session to aligning; transform and handle
// are untouched so the user can retry or cancel.
func (c *Controller) commitFailed(sess *session, err error) (Snapshot, error) {
	c.mu.Lock()
	c.state = StateAligning
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.log.Warn().Err(err).Str("session", sess.id).Str("model", sess.modelID).Msg("commit failed")
	c.notify(snap)
	return snap, err
}

// Cancel abandons the session without persisting. Allowed while
// preparing or aligning; a load still in flight is released by prepare
// once it resolves.
func (c *Controller) Cancel() (Snapshot, error) {
	c.mu.Lock()
	switch c.state {
	case StatePreparing:
		sess := c.sess
		snapCancelled, snapIdle := c.foldLocked()
		c.mu.Unlock()
		c.log.Info().Str("session", sess.id).Str("model", sess.modelID).Msg("alignment cancelled during load")
		c.notify(snapCancelled, snapIdle)
		return snapIdle, nil
	case StateAligning:
		sess := c.sess
		h, acquired := sess.handle, sess.acquired
		snapCancelled, snapIdle := c.foldLocked()
		c.mu.Unlock()
		if acquired {
			c.cache.Release(h)
		}
		c.log.Info().Str("session", sess.id).Str("model", sess.modelID).Msg("alignment cancelled")
		c.notify(snapCancelled, snapIdle)
		return snapIdle, nil
	default:
		st := c.state
		c.mu.Unlock()
		return Snapshot{}, stateError{op: "cancel", state: st}
	}
}

// snapshotLocked builds a Snapshot. Caller holds c.mu.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state, Err: c.lastErr}
	if c.sess == nil {
		return snap
	}
	snap.SessionID = c.sess.id
	snap.ModelID = c.sess.modelID
	snap.PolygonIDs = append([]string(nil), c.sess.polyIDs...)
	if c.sess.hasTransform && (c.state == StateAligning || c.state == StateCommitting) {
		initial := c.sess.initial
		current := c.sess.current
		snap.Initial = &initial
		snap.Current = &current
	}
	return snap
}

// notify fans snapshots out to subscribers, outside the lock and in
// transition order.
func (c *Controller) notify(snaps ...Snapshot) {
	c.mu.Lock()
	subs := append([](func(Snapshot))(nil), c.subs...)
	c.mu.Unlock()
	for _, snap := range snaps {
		for _, fn := range subs {
			fn(snap)
		}
	}
}
