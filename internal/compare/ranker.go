// Package compare produces ordered comparison sets of active listings for
// side-by-side display: similar items ranked by price, or all grades of a
// card ranked grade-first. Completed sales never appear in comparisons.
package compare

import (
	"context"
	"fmt"
	"sort"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

const (
	// DefaultSimilarLimit caps similar-item results.
	DefaultSimilarLimit = 10

	// DefaultGradeLimit caps grade-comparison results.
	DefaultGradeLimit = 20
)

// GradeMatch controls grade filtering in similar-item mode.
type GradeMatch int

const (
	// AnyGrade returns comparable items regardless of grade.
	AnyGrade GradeMatch = iota
	// SameGrade restricts results to the reference item's grade.
	SameGrade
	// DifferentGrade restricts results to grades other than the
	// reference item's.
	DifferentGrade
)

// SimilarOptions tunes a similar-item query.
type SimilarOptions struct {
	GradeMatch GradeMatch
	Limit      int
}

// GradeQuery identifies the card for a grade comparison.
type GradeQuery struct {
	Name             string
	SetName          string
	GradingCompanyID string
	Limit            int
}

// listingFetcher is the slice of the collector the ranker needs.
type listingFetcher interface {
	CollectListingRecords(ctx context.Context, filter store.ItemFilter, limit int) []store.Listing
}

// Ranker builds ranked comparison sets from active listings.
type Ranker struct {
	store    store.MarketDataStore
	listings listingFetcher
}

// NewRanker creates a Ranker. The store resolves reference items by id;
// the fetcher supplies degraded-on-failure listing queries.
func NewRanker(s store.MarketDataStore, listings listingFetcher) *Ranker {
	return &Ranker{store: s, listings: listings}
}

// Similar returns active listings of the same card as the reference item,
// cheapest first, excluding the reference itself. An unknown reference id
// is a structural failure and is returned as an error wrapping
// store.ErrNotFound, never as an empty result.
func (r *Ranker) Similar(ctx context.Context, refID string, opts SimilarOptions) ([]model.ComparisonItemView, error) {
	ref, err := r.store.FindItemByID(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("resolving reference item %s: %w", refID, err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	// Same card: by card id when the listing carries one, otherwise by
	// the (name, set) pair.
	filter := store.ItemFilter{CardID: ref.CardID}
	if filter.CardID == "" {
		filter.Name = ref.Name
		filter.SetName = ref.SetName
	}

	candidates := r.listings.CollectListingRecords(ctx, filter, 0)

	var views []model.ComparisonItemView
	for _, l := range candidates {
		if l.ID == refID {
			continue
		}
		switch opts.GradeMatch {
		case SameGrade:
			if l.Grade != ref.Grade {
				continue
			}
		case DifferentGrade:
			if l.Grade == ref.Grade {
				continue
			}
		}
		views = append(views, toView(l))
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].Price != views[j].Price {
			return views[i].Price < views[j].Price
		}
		return views[i].ID < views[j].ID
	})

	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

// CompareGrades returns all active listings of a card ordered by grade
// descending, price ascending within a grade. Garbled grades weigh 0 and
// land last.
func (r *Ranker) CompareGrades(ctx context.Context, q GradeQuery) ([]model.ComparisonItemView, error) {
	if q.Name == "" {
		return nil, fmt.Errorf("grade comparison requires a card name")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultGradeLimit
	}

	candidates := r.listings.CollectListingRecords(ctx, store.ItemFilter{
		Name:             q.Name,
		SetName:          q.SetName,
		GradingCompanyID: q.GradingCompanyID,
	}, 0)

	views := make([]model.ComparisonItemView, 0, len(candidates))
	for _, l := range candidates {
		views = append(views, toView(l))
	}

	sort.Slice(views, func(i, j int) bool {
		wi, wj := model.GradeWeight(views[i].Grade), model.GradeWeight(views[j].Grade)
		if wi != wj {
			return wi > wj
		}
		if views[i].Price != views[j].Price {
			return views[i].Price < views[j].Price
		}
		return views[i].ID < views[j].ID
	})

	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

func toView(l store.Listing) model.ComparisonItemView {
	return model.ComparisonItemView{
		ID:             l.ID,
		Name:           l.Name,
		SetName:        l.SetName,
		Grade:          l.Grade,
		GradingCompany: l.GradingCompany,
		Price:          model.Round2(l.Price),
		CertNumber:     l.CertNumber,
		CertVerified:   l.CertVerified,
		SellerName:     l.SellerName,
		Images:         l.Images,
		Views:          l.Views,
		WatchlistCount: l.WatchlistCount,
		ListingType:    l.ListingType,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
	}
}
