package cache

import (
	"sort"

	"alignd/pkg/types"
)

// Snapshot returns a read-only view of the cache for /status. Assets are
// sorted by id for stable output.
func (c *Cache) Snapshot() types.CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := types.CacheStatus{
		Assets:            make([]types.AssetStatus, 0, len(c.entries)),
		BudgetCost:        c.budget,
		MarginCost:        c.margin,
		UsedCost:          c.used,
		LoadsTotal:        c.loads,
		LoadFailuresTotal: c.loadFailures,
		EvictionsTotal:    c.evictions,
	}
	for _, e := range c.entries {
		st.Assets = append(st.Assets, types.AssetStatus{
			ModelID:      e.id,
			State:        string(e.state),
			Refs:         e.refs,
			Cost:         e.cost,
			LastUsedUnix: e.lastUsed.Unix(),
		})
	}
	sort.Slice(st.Assets, func(i, j int) bool { return st.Assets[i].ModelID < st.Assets[j].ModelID })
	return st
}
