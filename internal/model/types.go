package model

import (
	"strconv"
	"strings"
	"time"
)

// Source identifies where a price observation came from.
type Source string

const (
	SourceListing Source = "listing"
	SourceSale    Source = "sale"
)

// UnknownGrade is the bucket label for observations with no grade.
const UnknownGrade = "Unknown"

// ItemIdentity is the comparison key for market queries. Empty fields are
// wildcards: two observations are comparable iff every non-empty field of
// the query identity matches.
type ItemIdentity struct {
	Name             string `json:"name"`
	SetName          string `json:"set_name,omitempty"`
	Grade            string `json:"grade,omitempty"`
	GradingCompanyID string `json:"grading_company_id,omitempty"`
}

// Observation is a single immutable price data point, fetched fresh per
// request and discarded after the response is computed.
type Observation struct {
	Price            float64   `json:"price"`
	Source           Source    `json:"source"`
	Grade            string    `json:"grade,omitempty"`
	GradingCompanyID string    `json:"grading_company_id,omitempty"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// GradeBucket returns the grade-distribution bucket for the observation.
func (o Observation) GradeBucket() string {
	if o.Grade == "" {
		return UnknownGrade
	}
	return o.Grade
}

// GradePriceStats holds per-grade price statistics within MarketStatistics.
type GradePriceStats struct {
	Average float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
}

// MarketStatistics is derived per request and never stored. When Count is
// zero every numeric field is 0 and both maps are empty (never nil), so
// callers can render without null checks.
type MarketStatistics struct {
	Count             int                        `json:"count"`
	Average           float64                    `json:"average"`
	Median            float64                    `json:"median"`
	Min               float64                    `json:"min"`
	Max               float64                    `json:"max"`
	QuartileLower     float64                    `json:"quartile_lower"`
	QuartileUpper     float64                    `json:"quartile_upper"`
	GradeDistribution map[string]int             `json:"grade_distribution"`
	PriceByGrade      map[string]GradePriceStats `json:"price_by_grade"`
}

// EmptyMarketStatistics returns the zero-count statistics object with
// allocated maps.
func EmptyMarketStatistics() MarketStatistics {
	return MarketStatistics{
		GradeDistribution: map[string]int{},
		PriceByGrade:      map[string]GradePriceStats{},
	}
}

// Confidence tiers for a price recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Position of the caller's current price relative to the cheapest
// competing listing.
type Position string

const (
	PositionAbove   Position = "Above"
	PositionAt      Position = "At"
	PositionBelow   Position = "Below"
	PositionUnknown Position = "Unknown"
)

// TrendDirection of recent realized sale prices.
type TrendDirection string

const (
	TrendUp      TrendDirection = "Up"
	TrendDown    TrendDirection = "Down"
	TrendStable  TrendDirection = "Stable"
	TrendUnknown TrendDirection = "Unknown"
)

// CompetitiveAdvice describes where the caller sits against the market.
type CompetitiveAdvice struct {
	LowestCompetitor float64  `json:"lowest_competitor,omitempty"`
	Position         Position `json:"position"`
	Advice           string   `json:"advice"`
}

// Trend summarizes the direction of recent sales.
type Trend struct {
	Direction       TrendDirection `json:"direction"`
	ChangePercent   float64        `json:"change_percent"`
	RecentSaleCount int            `json:"recent_sale_count"`
}

// MarketData is the statistics subset embedded in a recommendation.
type MarketData struct {
	ActiveListings int     `json:"active_listings"`
	RecentSales    int     `json:"recent_sales"`
	Average        float64 `json:"average"`
	Median         float64 `json:"median"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	QuartileLower  float64 `json:"quartile_lower"`
	QuartileUpper  float64 `json:"quartile_upper"`
}

// PriceRecommendation is built fresh per call and never persisted.
// Reasoning is ordered: later rules append but never reorder earlier lines.
type PriceRecommendation struct {
	RecommendedPrice float64           `json:"recommended_price"`
	CurrentPrice     float64           `json:"current_price,omitempty"`
	Confidence       Confidence        `json:"confidence"`
	Reasoning        []string          `json:"reasoning"`
	MarketData       MarketData        `json:"market_data"`
	Competitive      CompetitiveAdvice `json:"competitive_advice"`
	Trend            Trend             `json:"trend"`
}

// ComparisonItemView is the read-only projection of a listing returned by
// comparison queries, never the full persisted record.
type ComparisonItemView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SetName        string    `json:"set_name,omitempty"`
	Grade          string    `json:"grade,omitempty"`
	GradingCompany string    `json:"grading_company,omitempty"`
	Price          float64   `json:"price"`
	CertNumber     string    `json:"cert_number,omitempty"`
	CertVerified   bool      `json:"cert_verified"`
	SellerName     string    `json:"seller_name,omitempty"`
	Images         []string  `json:"images,omitempty"`
	Views          int       `json:"views"`
	WatchlistCount int       `json:"watchlist_count"`
	ListingType    string    `json:"listing_type,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// GradeWeight converts a grade label to its numeric sort weight.
// "10" outranks "9.5" outranks "9"; a garbled or missing grade weighs 0
// and sorts last. Labels with a trailing qualifier ("9.5 GEM MINT") use
// the leading number.
func GradeWeight(grade string) float64 {
	s := strings.TrimSpace(grade)
	if s == "" {
		return 0
	}
	if w, err := strconv.ParseFloat(s, 64); err == nil && w > 0 {
		return w
	}
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0
	}
	w, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || w < 0 {
		return 0
	}
	return w
}
