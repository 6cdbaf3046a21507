package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config encapsulates all tunables for Cache construction.
type Config struct {
	Source ModelSource
	Loader Loader
	// BudgetCost caps the summed cost of resident assets (0 = unlimited).
	BudgetCost int
	// MarginCost is headroom kept free below the budget.
	MarginCost int
	Publisher  EventPublisher
	Logger     zerolog.Logger
}

// Cache is the deduplicating, reference-counted model cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	used    int

	source ModelSource
	loader Loader
	budget int
	margin int
	pub    EventPublisher
	log    zerolog.Logger

	// counters mirrored into Snapshot; the Prometheus collectors are
	// process-global and shared across caches
	loads        uint64
	loadFailures uint64
	evictions    uint64
}

// New constructs a Cache from Config. Source and Loader are required.
func New(cfg Config) *Cache {
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	return &Cache{
		entries: make(map[string]*entry),
		source:  cfg.Source,
		loader:  cfg.Loader,
		budget:  cfg.BudgetCost,
		margin:  cfg.MarginCost,
		pub:     pub,
		log:     cfg.Logger,
	}
}

// Release returns a borrowed handle. The reference count never goes
// negative: a release without a matching acquire is logged and ignored.
// A count of zero makes the entry eviction-eligible but does not dispose
// it; disposal is deferred to cost pressure.
func (c *Cache) Release(h Handle) {
	c.mu.Lock()
	e, ok := c.entries[h.ModelID]
	if !ok || e.refs == 0 {
		c.mu.Unlock()
		c.log.Warn().Str("model", h.ModelID).Msg("release without matching acquire")
		return
	}
	e.refs--
	e.lastUsed = time.Now()
	c.mu.Unlock()
	c.evictToBudget()
}

// StateOf returns the lifecycle state of the entry for id, or
// StateUnloaded when no entry exists.
func (c *Cache) StateOf(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return StateUnloaded
}

// Refs returns the current reference count for id (0 when absent).
func (c *Cache) Refs(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.refs
	}
	return 0
}
