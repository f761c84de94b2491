package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Cache holds the current catalog snapshot behind an RWMutex. Resolution
// reads one snapshot pointer and keeps using it; Reload swaps in a fresh
// snapshot atomically, so in-flight resolutions never see a half-loaded
// catalog.
type Cache struct {
	source Source

	mu   sync.RWMutex
	snap *Snapshot
}

// NewCache creates a snapshot cache over the given rule source. No load
// happens until Snapshot or Reload is called.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Snapshot returns the current snapshot, loading one from the source on
// first use.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return c.reload(ctx)
}

// Reload discards the cached snapshot and loads a fresh one. Used by the
// admin surface after rule edits.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	return c.reload(ctx)
}

func (c *Cache) reload(ctx context.Context) (*Snapshot, error) {
	records, err := c.source.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}

	snap := BuildSnapshot(records)
	for _, fault := range snap.Rejected {
		log.Printf("catalog: excluding invalid rule: %v", fault)
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return snap, nil
}

// Close releases the underlying source.
func (c *Cache) Close() error {
	return c.source.Close()
}
