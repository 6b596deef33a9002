package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.QueryTimeout)
	}
	if cfg.CompetitorPremiumPct != 0.02 {
		t.Errorf("CompetitorPremiumPct = %v, want 0.02", cfg.CompetitorPremiumPct)
	}
	if cfg.SnapshotSchedule != "@every 6h" {
		t.Errorf("SnapshotSchedule = %q", cfg.SnapshotSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLABMARKET_HTTP_ADDR", ":9090")
	t.Setenv("SLABMARKET_CACHE_TTL", "1m")
	t.Setenv("SLABMARKET_FAST_SALE_MARKUP_PCT", "0.08")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, want 1m", cfg.CacheTTL)
	}
	if cfg.FastSaleMarkupPct != 0.08 {
		t.Errorf("FastSaleMarkupPct = %v, want 0.08", cfg.FastSaleMarkupPct)
	}
}

func TestParseWatchlist(t *testing.T) {
	t.Setenv("SLABMARKET_WATCHLIST", "Charizard|Base Set|10|psa; Blastoise|Base Set ;|orphan-set")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Watchlist) != 2 {
		t.Fatalf("got %d watchlist entries, want 2 (nameless entry dropped)", len(cfg.Watchlist))
	}
	first := cfg.Watchlist[0]
	if first.Name != "Charizard" || first.Grade != "10" || first.GradingCompanyID != "psa" {
		t.Errorf("first entry = %+v", first)
	}
	if cfg.Watchlist[1].SetName != "Base Set" {
		t.Errorf("second entry = %+v", cfg.Watchlist[1])
	}
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("SLABMARKET_QUERY_TIMEOUT", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadBadFloat(t *testing.T) {
	t.Setenv("SLABMARKET_COMPETITOR_PREMIUM_PCT", "two percent")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid float")
	}
}
