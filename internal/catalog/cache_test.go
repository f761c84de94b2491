package catalog

import (
	"context"
	"errors"
	"testing"
)

// countingSource tracks how often the cache actually hits the source.
type countingSource struct {
	rules []IntentRule
	err   error
	loads int
}

func (s *countingSource) LoadRules(ctx context.Context) ([]IntentRule, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

func (s *countingSource) Close() error { return nil }

func TestCacheLoadsOnce(t *testing.T) {
	src := &countingSource{rules: []IntentRule{validRecord("r1", "greeting")}}
	cache := NewCache(src)

	ctx := context.Background()
	first, err := cache.Snapshot(ctx)
	if err != nil {
		t.Fatalf("first Snapshot returned error: %v", err)
	}
	second, err := cache.Snapshot(ctx)
	if err != nil {
		t.Fatalf("second Snapshot returned error: %v", err)
	}

	if src.loads != 1 {
		t.Errorf("expected exactly one load, got %d", src.loads)
	}
	if first != second {
		t.Error("repeated Snapshot calls should return the same snapshot pointer")
	}
}

func TestCacheReloadSwapsSnapshot(t *testing.T) {
	src := &countingSource{rules: []IntentRule{validRecord("r1", "greeting")}}
	cache := NewCache(src)

	ctx := context.Background()
	first, err := cache.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	src.rules = []IntentRule{validRecord("r1", "greeting"), validRecord("r2", "farewell")}
	fresh, err := cache.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}

	if fresh == first {
		t.Error("Reload should build a new snapshot")
	}
	if len(fresh.Rules) != 2 {
		t.Errorf("expected 2 rules after reload, got %d", len(fresh.Rules))
	}
	if src.loads != 2 {
		t.Errorf("expected 2 loads, got %d", src.loads)
	}

	// The old snapshot must stay usable for in-flight resolutions.
	if len(first.Rules) != 1 {
		t.Errorf("old snapshot mutated: %d rules", len(first.Rules))
	}
}

func TestCacheSourceErrorIsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("connection refused")}
	cache := NewCache(src)

	ctx := context.Background()
	if _, err := cache.Snapshot(ctx); err == nil {
		t.Fatal("expected error from failing source")
	}

	src.err = nil
	src.rules = []IntentRule{validRecord("r1", "greeting")}
	snap, err := cache.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot after recovery returned error: %v", err)
	}
	if len(snap.Rules) != 1 {
		t.Errorf("expected 1 rule after recovery, got %d", len(snap.Rules))
	}
}
