package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCache_PutGetWithTTL(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "market_cache.json")

	c, err := New(cachePath)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	type cachedPrices struct {
		Prices []float64 `json:"prices"`
	}

	key := ListingsKey("Charizard", "Base Set", "10", "psa")
	if err := c.Put(key, cachedPrices{Prices: []float64{80, 90}}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got cachedPrices
	found, err := c.Get(key, &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("Expected a cache hit")
	}
	if len(got.Prices) != 2 || got.Prices[0] != 80 {
		t.Errorf("Get returned %+v", got)
	}
}

func TestCache_Expiry(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "market_cache.json")
	c, err := New(cachePath)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	key := SalesKey("Pikachu", "Jungle", "", "")
	if err := c.Put(key, "stale", time.Nanosecond); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got string
	found, err := c.Get(key, &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("Expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired entry to be dropped, Len() = %d", c.Len())
	}
}

func TestCache_Persistence(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "market_cache.json")

	c1, err := New(cachePath)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	if err := c1.Put("k", 42, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A second cache over the same file sees the persisted entry.
	c2, err := New(cachePath)
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}

	var got int
	found, err := c2.Get("k", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || got != 42 {
		t.Errorf("Get = (%v, %d), want (true, 42)", found, got)
	}
}

func TestCache_PruneExpired(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "market_cache.json")
	c, err := New(cachePath)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	if err := c.Put("fresh", 1, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put("stale", 2, time.Nanosecond); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	removed, err := c.PruneExpired()
	if err != nil {
		t.Fatalf("PruneExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneExpired removed %d entries, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestBuildKey(t *testing.T) {
	if got := BuildKey("listings", "Charizard", "Base Set"); got != "listings|Charizard|Base Set" {
		t.Errorf("BuildKey = %q", got)
	}
}
