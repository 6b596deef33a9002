// Package config loads engine configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
)

// Config holds everything the analytics service needs at startup.
type Config struct {
	// HTTPAddr is the API listen address.
	HTTPAddr string

	// DatabaseURL is the Market Data Store connection string. Empty
	// selects the in-memory store (local/demo mode).
	DatabaseURL string

	// CachePath is the collector cache file. Empty disables caching.
	CachePath string

	// CacheTTL bounds cached collector results.
	CacheTTL time.Duration

	// QueryTimeout bounds each store query.
	QueryTimeout time.Duration

	// CompsBaseURL enables the scraped sold-comps fallback source.
	CompsBaseURL string

	// SnapshotPath stores scheduled market snapshots. Empty disables
	// the snapshot scheduler.
	SnapshotPath string

	// SnapshotSchedule is a cron expression for snapshot capture.
	SnapshotSchedule string

	// Watchlist is the set of identities captured in snapshots, parsed
	// from SLABMARKET_WATCHLIST ("Name|Set|Grade|Company" entries
	// separated by semicolons; trailing fields may be omitted).
	Watchlist []model.ItemIdentity

	// SnapshotThresholdPct and SnapshotThresholdUSD gate movement
	// reporting between snapshots.
	SnapshotThresholdPct float64
	SnapshotThresholdUSD float64

	// CompetitorPremiumPct and FastSaleMarkupPct override the pricing
	// policy knobs (fractions: 0.02 = 2%).
	CompetitorPremiumPct float64
	FastSaleMarkupPct    float64
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present; a missing file is not an
// error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:             envOr("SLABMARKET_HTTP_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("SLABMARKET_DATABASE_URL"),
		CachePath:            os.Getenv("SLABMARKET_CACHE_PATH"),
		CompsBaseURL:         os.Getenv("SLABMARKET_COMPS_BASE_URL"),
		SnapshotPath:         os.Getenv("SLABMARKET_SNAPSHOT_PATH"),
		SnapshotSchedule:     envOr("SLABMARKET_SNAPSHOT_SCHEDULE", "@every 6h"),
		Watchlist:            parseWatchlist(os.Getenv("SLABMARKET_WATCHLIST")),
		CacheTTL:             5 * time.Minute,
		QueryTimeout:         5 * time.Second,
		CompetitorPremiumPct: 0.02,
		FastSaleMarkupPct:    0.05,
		SnapshotThresholdPct: 10,
		SnapshotThresholdUSD: 25,
	}

	var err error
	if cfg.CacheTTL, err = envDuration("SLABMARKET_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = envDuration("SLABMARKET_QUERY_TIMEOUT", cfg.QueryTimeout); err != nil {
		return nil, err
	}
	if cfg.CompetitorPremiumPct, err = envFloat("SLABMARKET_COMPETITOR_PREMIUM_PCT", cfg.CompetitorPremiumPct); err != nil {
		return nil, err
	}
	if cfg.FastSaleMarkupPct, err = envFloat("SLABMARKET_FAST_SALE_MARKUP_PCT", cfg.FastSaleMarkupPct); err != nil {
		return nil, err
	}
	if cfg.SnapshotThresholdPct, err = envFloat("SLABMARKET_SNAPSHOT_THRESHOLD_PCT", cfg.SnapshotThresholdPct); err != nil {
		return nil, err
	}
	if cfg.SnapshotThresholdUSD, err = envFloat("SLABMARKET_SNAPSHOT_THRESHOLD_USD", cfg.SnapshotThresholdUSD); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseWatchlist(raw string) []model.ItemIdentity {
	if raw == "" {
		return nil
	}

	var out []model.ItemIdentity
	for _, entry := range strings.Split(raw, ";") {
		fields := strings.Split(entry, "|")
		var id model.ItemIdentity
		for i, f := range fields {
			f = strings.TrimSpace(f)
			switch i {
			case 0:
				id.Name = f
			case 1:
				id.SetName = f
			case 2:
				id.Grade = f
			case 3:
				id.GradingCompanyID = f
			}
		}
		if id.Name != "" {
			out = append(out, id)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return f, nil
}
