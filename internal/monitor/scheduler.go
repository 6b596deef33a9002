package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
)

// StatsProvider produces current market statistics for one identity.
type StatsProvider interface {
	GetMarketStatistics(ctx context.Context, id model.ItemIdentity) (model.MarketStatistics, error)
}

// Scheduler captures market snapshots for a watchlist on a cron
// schedule and logs significant movement against the previous capture.
type Scheduler struct {
	provider     StatsProvider
	watchlist    []model.ItemIdentity
	path         string
	thresholdPct float64
	thresholdUSD float64
	log          *slog.Logger
	cron         *cron.Cron
}

// NewScheduler builds a snapshot scheduler. Movement below both
// thresholds is not reported.
func NewScheduler(provider StatsProvider, watchlist []model.ItemIdentity, path string, thresholdPct, thresholdUSD float64, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		provider:     provider,
		watchlist:    watchlist,
		path:         path,
		thresholdPct: thresholdPct,
		thresholdUSD: thresholdUSD,
		log:          log,
	}
}

// Start schedules captures with the given cron expression and begins
// running them. The first capture happens on the first tick, not
// immediately.
func (s *Scheduler) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := s.Capture(context.Background()); err != nil {
			s.log.Error("snapshot capture failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling snapshots: %w", err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts scheduled captures. In-flight captures run to completion.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Capture takes a snapshot of every watched identity, compares it with
// the previous one on disk, logs the deltas, and persists the new
// snapshot.
func (s *Scheduler) Capture(ctx context.Context) error {
	snapshot := NewSnapshot()

	for _, id := range s.watchlist {
		stats, err := s.provider.GetMarketStatistics(ctx, id)
		if err != nil {
			s.log.Warn("skipping identity in snapshot",
				"name", id.Name, "grade", id.Grade, "error", err)
			continue
		}
		snapshot.Add(id, stats)
	}

	if prev, err := LoadSnapshot(s.path); err == nil {
		for _, d := range CompareSnapshots(prev, snapshot, s.thresholdPct, s.thresholdUSD) {
			s.log.Info("market moved",
				"name", d.Identity.Name,
				"set", d.Identity.SetName,
				"grade", d.Identity.Grade,
				"old", d.OldPrice,
				"new", d.NewPrice,
				"delta_pct", fmt.Sprintf("%.1f", d.DeltaPct))
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("previous snapshot unreadable", "path", s.path, "error", err)
	}

	return SaveSnapshot(s.path, snapshot)
}
