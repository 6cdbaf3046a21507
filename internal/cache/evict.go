package cache

// evictToBudget disposes LRU idle assets until used cost plus margin
// fits the budget. Entries that are borrowed, loading, or have attached
// waiters are never evicted regardless of recency; when nothing is
// evictable the cache may stay over budget.
func (c *Cache) evictToBudget() {
	if c.budget <= 0 {
		return
	}
	for {
		c.mu.Lock()
		if c.used+c.margin <= c.budget {
			c.mu.Unlock()
			return
		}
		var lru *entry
		for _, e := range c.entries {
			if e.state != StateReady || e.refs > 0 || e.waiters > 0 {
				continue
			}
			if lru == nil || e.lastUsed.Before(lru.lastUsed) {
				lru = e
			}
		}
		if lru == nil {
			c.mu.Unlock()
			return
		}
		delete(c.entries, lru.id)
		c.used -= lru.cost
		if c.used < 0 {
			c.used = 0
		}
		c.evictions++
		resident := len(c.entries)
		used := c.used
		c.mu.Unlock()

		if err := lru.geom.Release(); err != nil {
			c.log.Warn().Err(err).Str("model", lru.id).Msg("geometry teardown failed")
		}
		evictionsTotal.Inc()
		residentAssets.Set(float64(resident))
		usedCost.Set(float64(used))
		c.log.Info().Str("model", lru.id).Int("cost", lru.cost).Msg("asset evicted")
		c.pub.Publish(Event{Name: "evict", ModelID: lru.id, Fields: map[string]any{"cost": lru.cost}})
	}
}
