// Package stats reduces raw price observations into descriptive market
// statistics: average, median, quartiles and per-grade distributions.
package stats

import (
	"math"
	"sort"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
)

type gradeBucket struct {
	sum   float64
	min   float64
	max   float64
	count int
}

// Aggregate reduces observations into MarketStatistics. Non-positive
// prices are ignored; an empty input yields the zero-valued statistics
// object so callers can render without null checks. Monetary outputs are
// rounded to 2 decimals once, at assembly.
func Aggregate(observations []model.Observation) model.MarketStatistics {
	priced := make([]model.Observation, 0, len(observations))
	for _, o := range observations {
		if o.Price > 0 {
			priced = append(priced, o)
		}
	}

	result := model.EmptyMarketStatistics()
	if len(priced) == 0 {
		return result
	}

	prices := make([]float64, 0, len(priced))
	var sum float64
	buckets := make(map[string]*gradeBucket)

	for _, o := range priced {
		prices = append(prices, o.Price)
		sum += o.Price

		grade := o.GradeBucket()
		result.GradeDistribution[grade]++

		b, ok := buckets[grade]
		if !ok {
			b = &gradeBucket{min: math.MaxFloat64}
			buckets[grade] = b
		}
		b.sum += o.Price
		b.count++
		if o.Price < b.min {
			b.min = o.Price
		}
		if o.Price > b.max {
			b.max = o.Price
		}
	}

	sort.Float64s(prices)
	n := len(prices)

	result.Count = n
	result.Average = model.Round2(sum / float64(n))
	result.Median = model.Round2(median(prices))
	result.Min = model.Round2(prices[0])
	result.Max = model.Round2(prices[n-1])

	lower, upper := quartiles(prices)
	result.QuartileLower = model.Round2(lower)
	result.QuartileUpper = model.Round2(upper)

	for grade, b := range buckets {
		result.PriceByGrade[grade] = model.GradePriceStats{
			Average: model.Round2(b.sum / float64(b.count)),
			Min:     model.Round2(b.min),
			Max:     model.Round2(b.max),
			Count:   b.count,
		}
	}

	return result
}

// median of an ascending-sorted, non-empty slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// quartiles returns the lower (p25) and upper (p75) quartile of an
// ascending-sorted, non-empty slice. With fewer than 4 points the index
// computation is degenerate, so min and max stand in.
func quartiles(sorted []float64) (lower, upper float64) {
	n := len(sorted)
	if n < 4 {
		return sorted[0], sorted[n-1]
	}

	lowerIdx := int(math.Floor(float64(n) * 0.25))
	upperIdx := int(math.Ceil(float64(n) * 0.75))
	if lowerIdx > n-1 {
		lowerIdx = n - 1
	}
	if upperIdx > n-1 {
		upperIdx = n - 1
	}

	return sorted[lowerIdx], sorted[upperIdx]
}
