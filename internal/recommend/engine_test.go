package recommend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Tomangit/slabmarket-sub001/internal/collector"
	"github.com/Tomangit/slabmarket-sub001/internal/model"
)

// fixedCollector returns canned observations.
type fixedCollector struct {
	collected collector.Collected
}

func (f *fixedCollector) Collect(ctx context.Context, identity model.ItemIdentity) collector.Collected {
	return f.collected
}

func listingObs(prices ...float64) []model.Observation {
	obs := make([]model.Observation, 0, len(prices))
	for _, p := range prices {
		obs = append(obs, model.Observation{Price: p, Source: model.SourceListing})
	}
	return obs
}

// saleObs builds sale observations most recent first, spaced a day apart.
func saleObs(prices ...float64) []model.Observation {
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obs := make([]model.Observation, 0, len(prices))
	for i, p := range prices {
		obs = append(obs, model.Observation{
			Price:      p,
			Source:     model.SourceSale,
			RecordedAt: base.AddDate(0, 0, -i),
		})
	}
	return obs
}

func newEngine(c collector.Collected) *Engine {
	return NewEngine(&fixedCollector{collected: c}, DefaultPolicy())
}

func ptr(v float64) *float64 { return &v }

func hasReasoningContaining(rec *model.PriceRecommendation, substr string) bool {
	for _, line := range rec.Reasoning {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestRecommend_NoData(t *testing.T) {
	tests := []struct {
		name      string
		current   *float64
		wantPrice float64
	}{
		{"With current price", ptr(150), 150},
		{"Without current price", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(collector.Collected{})
			rec := engine.Recommend(context.Background(), model.ItemIdentity{Name: "Charizard"}, tt.current)

			if rec.RecommendedPrice != tt.wantPrice {
				t.Errorf("RecommendedPrice = %v, want %v", rec.RecommendedPrice, tt.wantPrice)
			}
			if rec.Confidence != model.ConfidenceLow {
				t.Errorf("Confidence = %v, want Low", rec.Confidence)
			}
			if len(rec.Reasoning) != 2 || !strings.Contains(rec.Reasoning[0], "No market data") {
				t.Errorf("Reasoning = %v", rec.Reasoning)
			}
			if rec.Competitive.Position != model.PositionUnknown {
				t.Errorf("Position = %v, want Unknown", rec.Competitive.Position)
			}
			if rec.Trend.Direction != model.TrendUnknown {
				t.Errorf("Trend = %v, want Unknown", rec.Trend.Direction)
			}
		})
	}
}

func TestRecommend_SparseData(t *testing.T) {
	engine := newEngine(collector.Collected{Listings: listingObs(75)})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{Name: "Charizard"}, nil)

	if rec.Confidence != model.ConfidenceLow {
		t.Errorf("Confidence = %v, want Low", rec.Confidence)
	}
	if rec.RecommendedPrice != 75 {
		t.Errorf("RecommendedPrice = %v, want 75", rec.RecommendedPrice)
	}
	if !hasReasoningContaining(rec, "single comparable listing") {
		t.Errorf("Reasoning = %v", rec.Reasoning)
	}
}

func TestRecommend_LimitedDataUsesMean(t *testing.T) {
	engine := newEngine(collector.Collected{
		Listings: listingObs(100, 120),
		Sales:    saleObs(110),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{Name: "Charizard"}, nil)

	if rec.Confidence != model.ConfidenceMedium {
		t.Errorf("Confidence = %v, want Medium", rec.Confidence)
	}
	if rec.RecommendedPrice != 110 {
		t.Errorf("RecommendedPrice = %v, want 110 (mean of 100,120,110)", rec.RecommendedPrice)
	}
	if !hasReasoningContaining(rec, "3 comparable prices") {
		t.Errorf("Reasoning = %v", rec.Reasoning)
	}
}

func TestRecommend_ConfidenceMonotonicInSampleSize(t *testing.T) {
	tests := []struct {
		count    int
		expected model.Confidence
	}{
		{0, model.ConfidenceLow},
		{1, model.ConfidenceLow},
		{2, model.ConfidenceMedium},
		{4, model.ConfidenceMedium},
		{5, model.ConfidenceHigh},
		{9, model.ConfidenceHigh},
	}

	for _, tt := range tests {
		prices := make([]float64, tt.count)
		for i := range prices {
			prices[i] = 100 + float64(i)
		}
		engine := newEngine(collector.Collected{Listings: listingObs(prices...)})
		rec := engine.Recommend(context.Background(), model.ItemIdentity{}, nil)
		if rec.Confidence != tt.expected {
			t.Errorf("%d prices: Confidence = %v, want %v", tt.count, rec.Confidence, tt.expected)
		}
	}
}

func TestRecommend_EndToEndOverpriced(t *testing.T) {
	// 6 listings, no sales, current price 87.5% above the cheapest
	// listing: overridden to lowest*1.02, and 81.6 is already under the
	// lower quartile (90) so the fast-sale rule does not fire.
	engine := newEngine(collector.Collected{
		Listings: listingObs(80, 90, 100, 110, 120, 200),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{Name: "Charizard"}, ptr(150))

	if rec.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %v, want High", rec.Confidence)
	}
	if rec.MarketData.ActiveListings != 6 {
		t.Errorf("ActiveListings = %d, want 6", rec.MarketData.ActiveListings)
	}
	if rec.MarketData.Median != 105 {
		t.Errorf("Median = %v, want 105", rec.MarketData.Median)
	}
	if rec.Competitive.LowestCompetitor != 80 {
		t.Errorf("LowestCompetitor = %v, want 80", rec.Competitive.LowestCompetitor)
	}
	if rec.RecommendedPrice != 81.6 {
		t.Errorf("RecommendedPrice = %v, want 81.6", rec.RecommendedPrice)
	}
	if rec.Competitive.Position != model.PositionAbove {
		t.Errorf("Position = %v, want Above", rec.Competitive.Position)
	}
	if !hasReasoningContaining(rec, "above the lowest competitor") {
		t.Errorf("Reasoning = %v", rec.Reasoning)
	}
}

func TestRecommend_FastSaleAdjustment(t *testing.T) {
	// Median 105 exceeds the lower quartile 90, so the recommendation
	// drops to 90*1.05 = 94.5.
	engine := newEngine(collector.Collected{
		Listings: listingObs(80, 90, 100, 110, 120, 200),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{Name: "Charizard"}, nil)

	if rec.RecommendedPrice != 94.5 {
		t.Errorf("RecommendedPrice = %v, want 94.5", rec.RecommendedPrice)
	}
	if !hasReasoningContaining(rec, "faster sale") {
		t.Errorf("Reasoning = %v", rec.Reasoning)
	}
}

func TestRecommend_FastSaleNeverIncreasesPrice(t *testing.T) {
	// The competitor override already drops the price below the
	// adjusted quartile value; the fast-sale rule must not raise it.
	engine := newEngine(collector.Collected{
		Listings: listingObs(80, 90, 100, 110, 120, 200),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{Name: "Charizard"}, ptr(150))

	if rec.RecommendedPrice > 81.6 {
		t.Errorf("fast-sale adjustment increased the price: %v", rec.RecommendedPrice)
	}
}

func TestRecommend_CompetitivelyPricedKeepsMedian(t *testing.T) {
	// Current price 10% below the cheapest listing: praised, median kept
	// (then fast-sale adjusted off the quartile).
	engine := newEngine(collector.Collected{
		Listings: listingObs(100, 100, 100, 100, 100),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{}, ptr(90))

	if !hasReasoningContaining(rec, "competitively below") {
		t.Errorf("Reasoning = %v", rec.Reasoning)
	}
	// Uniform prices: quartileLower == median == 100, no adjustment.
	if rec.RecommendedPrice != 100 {
		t.Errorf("RecommendedPrice = %v, want 100", rec.RecommendedPrice)
	}
}

func TestRecommend_TrendRequiresTwoWindows(t *testing.T) {
	tests := []struct {
		name     string
		sales    []model.Observation
		expected model.TrendDirection
	}{
		{"No sales", nil, model.TrendUnknown},
		{"Single sale", saleObs(500), model.TrendUnknown},
		// The recent window swallows all five, leaving no older window.
		{"Five sales", saleObs(110, 108, 106, 104, 100), model.TrendUnknown},
		{"Six sales", saleObs(120, 120, 120, 120, 120, 100), model.TrendUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(collector.Collected{
				Listings: listingObs(100, 100, 100, 100, 100),
				Sales:    tt.sales,
			})
			rec := engine.Recommend(context.Background(), model.ItemIdentity{}, nil)
			if rec.Trend.Direction != tt.expected {
				t.Errorf("Trend.Direction = %v, want %v", rec.Trend.Direction, tt.expected)
			}
		})
	}
}

func TestRecommend_TrendDirections(t *testing.T) {
	tests := []struct {
		name       string
		sales      []model.Observation
		direction  model.TrendDirection
		changeSign float64
	}{
		{
			// recent window avg 120 vs older window avg 100: +20%.
			name:       "Rising",
			sales:      saleObs(120, 120, 120, 120, 120, 100, 100, 100, 100, 100),
			direction:  model.TrendUp,
			changeSign: 1,
		},
		{
			name:       "Falling",
			sales:      saleObs(80, 80, 80, 80, 80, 100, 100, 100, 100, 100),
			direction:  model.TrendDown,
			changeSign: -1,
		},
		{
			name:       "Stable",
			sales:      saleObs(101, 101, 101, 101, 101, 100, 100, 100, 100, 100),
			direction:  model.TrendStable,
			changeSign: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(collector.Collected{Sales: tt.sales})
			rec := engine.Recommend(context.Background(), model.ItemIdentity{}, nil)

			if rec.Trend.Direction != tt.direction {
				t.Errorf("Direction = %v, want %v", rec.Trend.Direction, tt.direction)
			}
			if tt.changeSign > 0 && rec.Trend.ChangePercent <= 0 {
				t.Errorf("ChangePercent = %v, want positive", rec.Trend.ChangePercent)
			}
			if tt.changeSign < 0 && rec.Trend.ChangePercent >= 0 {
				t.Errorf("ChangePercent = %v, want negative", rec.Trend.ChangePercent)
			}
			if rec.Trend.RecentSaleCount != len(tt.sales) {
				t.Errorf("RecentSaleCount = %d, want %d", rec.Trend.RecentSaleCount, len(tt.sales))
			}
		})
	}
}

func TestRecommend_PositionWithoutCurrentPrice(t *testing.T) {
	engine := newEngine(collector.Collected{
		Listings: listingObs(50, 60, 70, 80, 90),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{}, nil)

	if rec.Competitive.LowestCompetitor != 50 {
		t.Errorf("LowestCompetitor = %v, want 50", rec.Competitive.LowestCompetitor)
	}
	if rec.Competitive.Position != model.PositionUnknown {
		t.Errorf("Position = %v, want Unknown", rec.Competitive.Position)
	}
	if !strings.Contains(rec.Competitive.Advice, "slightly below") {
		t.Errorf("Advice = %q", rec.Competitive.Advice)
	}
}

func TestRecommend_ReasoningOrderStable(t *testing.T) {
	engine := newEngine(collector.Collected{
		Listings: listingObs(80, 90, 100, 110, 120, 200),
		Sales:    saleObs(120, 120, 120, 120, 120, 100, 100, 100, 100, 100),
	})
	rec := engine.Recommend(context.Background(), model.ItemIdentity{}, ptr(150))

	// Base lines first, then override, then fast-sale, then trend.
	if !strings.Contains(rec.Reasoning[0], "comparable prices") {
		t.Errorf("Reasoning[0] = %q", rec.Reasoning[0])
	}
	last := rec.Reasoning[len(rec.Reasoning)-1]
	if !strings.Contains(last, "price higher") {
		t.Errorf("trend advisory must be appended last, got %q", last)
	}
}
