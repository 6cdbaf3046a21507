package cache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prefetch warms the cache for the given ids concurrently. Each asset is
// acquired and released immediately, leaving it resident but idle. The
// first load failure is returned after all loads settle.
func (c *Cache) Prefetch(ctx context.Context, ids ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			h, err := c.Acquire(ctx, id)
			if err != nil {
				return err
			}
			c.Release(h)
			return nil
		})
	}
	return g.Wait()
}
