package recommend

// Policy holds the pricing knobs the engine applies. These are business
// policy, not derived values, so they are configurable rather than
// hard-coded.
type Policy struct {
	// CompetitorPremiumPct is the premium applied over the cheapest
	// active listing when an overpriced item is repriced (0.02 = 2%).
	CompetitorPremiumPct float64

	// FastSaleMarkupPct is the markup over the lower quartile used by
	// the fast-sale adjustment (0.05 = 5%).
	FastSaleMarkupPct float64

	// OverpricedThresholdPct triggers the competitor override when the
	// caller's price exceeds the cheapest listing by more than this.
	OverpricedThresholdPct float64

	// CompetitiveThresholdPct bounds the "at market" band for both
	// reasoning and competitive positioning.
	CompetitiveThresholdPct float64

	// TrendThresholdPct separates Stable from Up/Down.
	TrendThresholdPct float64

	// TrendWindow is the number of sales per trend window.
	TrendWindow int
}

// DefaultPolicy returns the standard marketplace pricing policy.
func DefaultPolicy() Policy {
	return Policy{
		CompetitorPremiumPct:    0.02,
		FastSaleMarkupPct:       0.05,
		OverpricedThresholdPct:  10,
		CompetitiveThresholdPct: 5,
		TrendThresholdPct:       5,
		TrendWindow:             5,
	}
}
