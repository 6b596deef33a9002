package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomangit/slabmarket-sub001/internal/analytics"
	"github.com/Tomangit/slabmarket-sub001/internal/api"
	"github.com/Tomangit/slabmarket-sub001/internal/cache"
	"github.com/Tomangit/slabmarket-sub001/internal/collector"
	"github.com/Tomangit/slabmarket-sub001/internal/comps"
	"github.com/Tomangit/slabmarket-sub001/internal/config"
	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/monitor"
	"github.com/Tomangit/slabmarket-sub001/internal/recommend"
	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	dataStore, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open market data store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	opts := []collector.Option{
		collector.WithLogger(logger),
		collector.WithQueryTimeout(cfg.QueryTimeout),
	}

	if cfg.CachePath != "" {
		c, err := cache.New(cfg.CachePath)
		if err != nil {
			logger.Error("failed to open collector cache", "path", cfg.CachePath, "error", err)
			os.Exit(1)
		}
		opts = append(opts, collector.WithCache(c, cfg.CacheTTL))
	}

	// Sold comps come from the store first, falling back to the scraped
	// source when one is configured.
	sources := []comps.Source{comps.NewStoreSource(dataStore, collector.MaxRecentSales)}
	if cfg.CompsBaseURL != "" {
		if scraped := comps.NewScrapedSource(cfg.CompsBaseURL); scraped != nil {
			sources = append(sources, scraped)
		}
	}
	opts = append(opts, collector.WithSalesSource(comps.NewChain(logger, sources...)))

	policy := recommend.DefaultPolicy()
	policy.CompetitorPremiumPct = cfg.CompetitorPremiumPct
	policy.FastSaleMarkupPct = cfg.FastSaleMarkupPct

	service := analytics.NewService(dataStore, collector.New(dataStore, opts...), policy)

	if cfg.SnapshotPath != "" && len(cfg.Watchlist) > 0 {
		sched := monitor.NewScheduler(snapshotStats{service}, cfg.Watchlist, cfg.SnapshotPath,
			cfg.SnapshotThresholdPct, cfg.SnapshotThresholdUSD, logger)
		if err := sched.Start(cfg.SnapshotSchedule); err != nil {
			logger.Error("failed to start snapshot scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
		logger.Info("snapshot scheduler started",
			"schedule", cfg.SnapshotSchedule, "items", len(cfg.Watchlist))
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(service, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// snapshotStats adapts the facade's statistics operation to the
// identity-keyed shape the snapshot scheduler captures.
type snapshotStats struct {
	service *analytics.Service
}

func (s snapshotStats) GetMarketStatistics(ctx context.Context, id model.ItemIdentity) (model.MarketStatistics, error) {
	return s.service.GetMarketStatistics(ctx, id.Name, id.SetName), nil
}

// openStore selects the Postgres store when a database URL is
// configured, otherwise the in-memory store for local runs.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.MarketDataStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no database configured, using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}

	pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connected")
	return pg, pg.Close, nil
}
