// Package cache owns loaded model geometry. It is structured into small
// files by concern:
//
//   - cache.go: core Cache type, Config, constructor, Release.
//   - types.go: internal state types (State, entry, Handle).
//   - acquire.go: Acquire and the shared in-flight load path.
//   - evict.go: LRU eviction against the configured cost budget.
//   - prefetch.go: concurrent cache warming.
//   - status.go: Snapshot reporting for /status.
//   - errors.go: error types and helpers (IsLoadError, IsModelNotFound).
//   - events.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// The cache is the single authoritative owner of loaded assets. Callers
// borrow a Handle via Acquire and must pair it with exactly one Release.
// For a given model id at most one load is in flight; every concurrent
// Acquire attaches to it and observes the same ready/failed outcome.
// Assets whose reference count is zero stay resident until cost pressure
// evicts them, so a quick re-acquire avoids a reload.
//
// All entry-table mutation (insert, refcount change, eviction) is
// serialized by one mutex; this is the only component that tolerates
// concurrent callers.
package cache
