package cache

import (
	"context"
	"time"

	"alignd/pkg/types"
)

// Acquire returns a borrowed handle for id, loading the asset if needed.
// Concurrent acquires for the same id share one in-flight load and
// observe the same outcome. The context only bounds this caller's wait;
// it does not abort the load itself, which other waiters may still need.
func (c *Cache) Acquire(ctx context.Context, id string) (Handle, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		mdl, found := c.source.Lookup(id)
		if !found {
			c.mu.Unlock()
			return Handle{}, modelNotFoundError{id: id}
		}
		e = &entry{
			id:       id,
			state:    StateLoading,
			lastUsed: time.Now(),
			done:     make(chan struct{}),
		}
		c.entries[id] = e
		go c.load(e, mdl)
	}

	if e.state == StateReady {
		h := c.borrowLocked(e)
		c.mu.Unlock()
		return h, nil
	}

	// Loading (or just created): attach to the in-flight load.
	e.waiters++
	done := e.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		c.mu.Lock()
		e.waiters--
		c.mu.Unlock()
		return Handle{}, ctx.Err()
	}

	c.mu.Lock()
	e.waiters--
	if e.state == StateReady {
		h := c.borrowLocked(e)
		c.mu.Unlock()
		return h, nil
	}
	cause := e.failure
	c.mu.Unlock()
	return Handle{}, loadError{id: id, cause: cause}
}

// borrowLocked increments the refcount and builds a handle. Caller holds c.mu.
func (c *Cache) borrowLocked(e *entry) Handle {
	e.refs++
	e.lastUsed = time.Now()
	return Handle{ModelID: e.id, geom: e.geom}
}

// load runs the single external load for an entry and resolves it for
// all waiters. Failed entries are removed from the table so the next
// Acquire starts a fresh attempt.
func (c *Cache) load(e *entry, mdl types.Model) {
	c.pub.Publish(Event{Name: "load_start", ModelID: e.id})
	start := time.Now()

	g, err := c.loader.Load(context.Background(), mdl)
	if err != nil {
		c.mu.Lock()
		e.state = StateFailed
		e.failure = err
		delete(c.entries, e.id)
		c.loadFailures++
		close(e.done)
		c.mu.Unlock()
		loadFailuresTotal.Inc()
		c.log.Error().Err(err).Str("model", e.id).Msg("asset load failed")
		c.pub.Publish(Event{Name: "load_failed", ModelID: e.id, Fields: map[string]any{"error": err.Error()}})
		return
	}

	c.mu.Lock()
	e.state = StateReady
	e.geom = g
	e.cost = g.Cost()
	e.lastUsed = time.Now()
	c.used += e.cost
	c.loads++
	close(e.done)
	resident := len(c.entries)
	used := c.used
	c.mu.Unlock()

	loadsTotal.Inc()
	residentAssets.Set(float64(resident))
	usedCost.Set(float64(used))
	c.log.Info().Str("model", e.id).Int("cost", e.cost).
		Dur("dur", time.Since(start)).Msg("asset loaded")
	c.pub.Publish(Event{Name: "load_ready", ModelID: e.id, Fields: map[string]any{"cost": e.cost}})

	c.evictToBudget()
}
