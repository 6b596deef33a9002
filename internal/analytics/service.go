// Package analytics is the public surface of the market analytics engine:
// descriptive statistics, ranked comparisons and price recommendations
// over the Market Data Store.
package analytics

import (
	"context"
	"fmt"

	"github.com/Tomangit/slabmarket-sub001/internal/collector"
	"github.com/Tomangit/slabmarket-sub001/internal/compare"
	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/recommend"
	"github.com/Tomangit/slabmarket-sub001/internal/stats"
	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

// CompareMode selects a comparison ranking.
type CompareMode string

const (
	ModeSimilar         CompareMode = "similar"
	ModeGradeComparison CompareMode = "grades"
)

// CompareRequest describes a comparison query.
type CompareRequest struct {
	Mode CompareMode

	// Similar mode.
	ReferenceID string
	GradeMatch  compare.GradeMatch

	// Grade-comparison mode.
	Name             string
	SetName          string
	GradingCompanyID string

	Limit int
}

// Service wires the analytics components behind the three operations the
// marketplace calls.
type Service struct {
	collector *collector.Collector
	ranker    *compare.Ranker
	engine    *recommend.Engine
}

// NewService assembles the engine over a Market Data Store.
func NewService(s store.MarketDataStore, c *collector.Collector, policy recommend.Policy) *Service {
	return &Service{
		collector: c,
		ranker:    compare.NewRanker(s, c),
		engine:    recommend.NewEngine(c, policy),
	}
}

// GetMarketStatistics aggregates the current market for a card: active
// listings pooled with recent sales. Sparse or unavailable data yields
// the zero-valued statistics object, never an error.
func (s *Service) GetMarketStatistics(ctx context.Context, name, setName string) model.MarketStatistics {
	collected := s.collector.Collect(ctx, model.ItemIdentity{Name: name, SetName: setName})

	pooled := make([]model.Observation, 0, len(collected.Listings)+len(collected.Sales))
	pooled = append(pooled, collected.Listings...)
	pooled = append(pooled, collected.Sales...)

	return stats.Aggregate(pooled)
}

// Compare returns a ranked comparison set. Invalid requests (unknown
// reference item, missing card name) are genuine failures and are
// returned as errors, unlike sparse market data.
func (s *Service) Compare(ctx context.Context, req CompareRequest) ([]model.ComparisonItemView, error) {
	switch req.Mode {
	case ModeSimilar:
		return s.ranker.Similar(ctx, req.ReferenceID, compare.SimilarOptions{
			GradeMatch: req.GradeMatch,
			Limit:      req.Limit,
		})
	case ModeGradeComparison:
		return s.ranker.CompareGrades(ctx, compare.GradeQuery{
			Name:             req.Name,
			SetName:          req.SetName,
			GradingCompanyID: req.GradingCompanyID,
			Limit:            req.Limit,
		})
	default:
		return nil, fmt.Errorf("unknown comparison mode %q", req.Mode)
	}
}

// GetPriceRecommendation produces a recommendation for the identity.
// currentPrice may be nil when the item is not yet listed.
func (s *Service) GetPriceRecommendation(ctx context.Context, identity model.ItemIdentity, currentPrice *float64) *model.PriceRecommendation {
	return s.engine.Recommend(ctx, identity, currentPrice)
}
