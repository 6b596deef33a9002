// Package recommend turns collected market observations into a single
// recommended price with a confidence tier and an ordered, human-readable
// justification.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/Tomangit/slabmarket-sub001/internal/collector"
	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/stats"
)

// observationCollector is the slice of the collector the engine needs.
type observationCollector interface {
	Collect(ctx context.Context, identity model.ItemIdentity) collector.Collected
}

// Engine computes price recommendations. It is stateless per call; the
// only states are the four data-sufficiency branches, selected once by
// observation count.
type Engine struct {
	collector observationCollector
	policy    Policy
}

// NewEngine creates an Engine with the given policy.
func NewEngine(c observationCollector, policy Policy) *Engine {
	return &Engine{collector: c, policy: policy}
}

// Recommend produces a price recommendation for the identity.
// currentPrice is the caller's asking price, nil when the item is not yet
// listed. The call never fails on sparse or missing market data; that is
// surfaced as a Low confidence tier.
func (e *Engine) Recommend(ctx context.Context, identity model.ItemIdentity, currentPrice *float64) *model.PriceRecommendation {
	collected := e.collector.Collect(ctx, identity)

	// Listings-only statistics drive competitive context; the pooled
	// prices (sales are realized value, listings asking value) drive the
	// recommendation itself.
	marketStats := stats.Aggregate(collected.Listings)

	allPrices := make([]float64, 0, len(collected.Listings)+len(collected.Sales))
	listingPrices := make([]float64, 0, len(collected.Listings))
	for _, o := range collected.Listings {
		allPrices = append(allPrices, o.Price)
		listingPrices = append(listingPrices, o.Price)
	}
	salePrices := make([]float64, 0, len(collected.Sales))
	for _, o := range collected.Sales {
		allPrices = append(allPrices, o.Price)
		salePrices = append(salePrices, o.Price)
	}

	rec := &model.PriceRecommendation{
		Reasoning: []string{},
		MarketData: model.MarketData{
			ActiveListings: len(collected.Listings),
			RecentSales:    len(collected.Sales),
			Average:        marketStats.Average,
			Median:         marketStats.Median,
			Min:            marketStats.Min,
			Max:            marketStats.Max,
			QuartileLower:  marketStats.QuartileLower,
			QuartileUpper:  marketStats.QuartileUpper,
		},
		Trend: model.Trend{Direction: model.TrendUnknown},
	}
	if currentPrice != nil {
		rec.CurrentPrice = model.Round2(*currentPrice)
	}

	var lowestCompetitor float64
	if len(listingPrices) > 0 {
		lowestCompetitor = listingPrices[0]
		for _, p := range listingPrices[1:] {
			if p < lowestCompetitor {
				lowestCompetitor = p
			}
		}
	}

	// Terminal branch: nothing comparable at all.
	if len(allPrices) == 0 {
		if currentPrice != nil {
			rec.RecommendedPrice = model.Round2(*currentPrice)
		}
		rec.Confidence = model.ConfidenceLow
		rec.Reasoning = append(rec.Reasoning,
			"No market data available for this card and grade",
			"Recommendation based on similar cards or general pricing")
		rec.Competitive = model.CompetitiveAdvice{
			Position: model.PositionUnknown,
			Advice:   "No competing listings found - research similar cards before pricing",
		}
		return rec
	}

	price := e.basePrice(rec, allPrices)
	price = e.applyCompetitorOverride(rec, price, lowestCompetitor, currentPrice)
	price = e.applyFastSaleAdjustment(rec, price, marketStats)

	rec.RecommendedPrice = model.Round2(price)
	rec.Trend = e.detectTrend(rec, salePrices)
	rec.Competitive = e.position(lowestCompetitor, currentPrice)

	return rec
}

// basePrice selects the confidence tier and starting price from the
// pooled comparable prices.
func (e *Engine) basePrice(rec *model.PriceRecommendation, allPrices []float64) float64 {
	switch n := len(allPrices); {
	case n == 1:
		rec.Confidence = model.ConfidenceLow
		rec.Reasoning = append(rec.Reasoning,
			"Very limited market data (1 comparable price)",
			fmt.Sprintf("Recommendation based on single comparable listing at $%.2f", allPrices[0]))
		return allPrices[0]

	case n <= 4:
		var sum float64
		for _, p := range allPrices {
			sum += p
		}
		mean := sum / float64(n)
		rec.Confidence = model.ConfidenceMedium
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Limited market data (%d comparable prices)", n),
			fmt.Sprintf("Recommendation is the market average of $%.2f", mean))
		return mean

	default:
		sorted := append([]float64(nil), allPrices...)
		sort.Float64s(sorted)
		var med float64
		if n%2 == 0 {
			med = (sorted[n/2-1] + sorted[n/2]) / 2
		} else {
			med = sorted[n/2]
		}
		rec.Confidence = model.ConfidenceHigh
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Based on %d comparable prices", n),
			fmt.Sprintf("Market median price is $%.2f", med))
		return med
	}
}

// applyCompetitorOverride reprices overpriced items to a small premium
// over the cheapest active listing. High-confidence branch only.
func (e *Engine) applyCompetitorOverride(rec *model.PriceRecommendation, price, lowestCompetitor float64, currentPrice *float64) float64 {
	if rec.Confidence != model.ConfidenceHigh || lowestCompetitor <= 0 || currentPrice == nil {
		return price
	}

	diffPct := (*currentPrice - lowestCompetitor) / lowestCompetitor * 100
	switch {
	case diffPct > e.policy.OverpricedThresholdPct:
		price = lowestCompetitor * (1 + e.policy.CompetitorPremiumPct)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Your price is %.1f%% above the lowest competitor ($%.2f) - repricing recommended", diffPct, lowestCompetitor))
	case diffPct < -e.policy.CompetitiveThresholdPct:
		rec.Reasoning = append(rec.Reasoning,
			"Your price is competitively below the market - well positioned for a fast sale")
	default:
		rec.Reasoning = append(rec.Reasoning,
			"Your price is competitive with the market")
	}
	return price
}

// applyFastSaleAdjustment nudges the recommendation under the listing
// lower quartile. Runs after the competitor override and can only lower
// the price, never raise it.
func (e *Engine) applyFastSaleAdjustment(rec *model.PriceRecommendation, price float64, marketStats model.MarketStatistics) float64 {
	if rec.Confidence != model.ConfidenceHigh {
		return price
	}
	// A quartile only exists when there are active listings; without one
	// the adjustment would zero the price.
	if marketStats.Count == 0 || marketStats.QuartileLower <= 0 {
		return price
	}

	adjusted := marketStats.QuartileLower * (1 + e.policy.FastSaleMarkupPct)
	if price > marketStats.QuartileLower && adjusted < price {
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Adjusted to $%.2f (lower quartile + %.0f%%) to optimize for faster sale", adjusted, e.policy.FastSaleMarkupPct*100))
		return adjusted
	}
	return price
}

// detectTrend compares the average of the most recent sale window against
// the window before it. salePrices are most recent first; at least two
// windows of data are required, otherwise the trend is Unknown.
func (e *Engine) detectTrend(rec *model.PriceRecommendation, salePrices []float64) model.Trend {
	trend := model.Trend{
		Direction:       model.TrendUnknown,
		RecentSaleCount: len(salePrices),
	}

	n := len(salePrices)
	if n < 2 {
		return trend
	}

	window := e.policy.TrendWindow
	if window <= 0 {
		window = 5
	}

	recentEnd := window
	if recentEnd > n {
		recentEnd = n
	}
	olderEnd := recentEnd + window
	if olderEnd > n {
		olderEnd = n
	}

	recent := salePrices[:recentEnd]
	older := salePrices[recentEnd:olderEnd]
	if len(older) == 0 {
		return trend
	}

	recentAvg := average(recent)
	olderAvg := average(older)
	changePct := (recentAvg - olderAvg) / olderAvg * 100
	trend.ChangePercent = model.Round2(changePct)

	switch {
	case changePct > e.policy.TrendThresholdPct:
		trend.Direction = model.TrendUp
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Recent sale prices trending up (%+.1f%%)", changePct),
			"Prices rising - you may be able to price higher")
	case changePct < -e.policy.TrendThresholdPct:
		trend.Direction = model.TrendDown
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Recent sale prices trending down (%+.1f%%)", changePct),
			"Prices declining - price competitively to sell sooner")
	default:
		trend.Direction = model.TrendStable
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Recent sale prices are stable (%+.1f%%)", changePct))
	}

	return trend
}

// position computes competitive positioning for display. It is
// independent of the override logic: the same thresholds band the
// caller's price against the cheapest listing.
func (e *Engine) position(lowestCompetitor float64, currentPrice *float64) model.CompetitiveAdvice {
	if lowestCompetitor <= 0 {
		return model.CompetitiveAdvice{
			Position: model.PositionUnknown,
			Advice:   "No competing listings found - research similar cards before pricing",
		}
	}

	advice := model.CompetitiveAdvice{
		LowestCompetitor: model.Round2(lowestCompetitor),
	}

	if currentPrice == nil {
		advice.Position = model.PositionUnknown
		advice.Advice = fmt.Sprintf("Price slightly below the lowest competitor ($%.2f) for the fastest sale", lowestCompetitor)
		return advice
	}

	diffPct := (*currentPrice - lowestCompetitor) / lowestCompetitor * 100
	switch {
	case diffPct > e.policy.CompetitiveThresholdPct:
		advice.Position = model.PositionAbove
		advice.Advice = fmt.Sprintf("Your price is %.1f%% above the cheapest listing - consider reducing it", diffPct)
	case diffPct < -e.policy.CompetitiveThresholdPct:
		advice.Position = model.PositionBelow
		advice.Advice = "Your price undercuts the market - positioned for a fast sale"
	default:
		advice.Position = model.PositionAt
		advice.Advice = "Your price is in line with the market"
	}
	return advice
}

func average(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
