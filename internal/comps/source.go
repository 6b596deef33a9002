// Package comps supplies completed-sale observations from an ordered set
// of sources. The primary source is the Market Data Store; a scraped
// sold-comps site can back it up when the store has no sales for an item.
package comps

import (
	"context"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

// Source produces recent completed-sale observations for an identity,
// most recent first.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// RecentSales returns up to limit sale observations, most recent
	// first. An empty result is not an error.
	RecentSales(ctx context.Context, identity model.ItemIdentity, limit int) ([]model.Observation, error)
}

// StoreSource reads completed sales from the Market Data Store.
type StoreSource struct {
	store    store.MarketDataStore
	maxSales int
}

// NewStoreSource creates a store-backed sale source.
func NewStoreSource(s store.MarketDataStore, maxSales int) *StoreSource {
	return &StoreSource{store: s, maxSales: maxSales}
}

// Name implements Source.
func (s *StoreSource) Name() string {
	return "market-data-store"
}

// RecentSales implements Source.
func (s *StoreSource) RecentSales(ctx context.Context, identity model.ItemIdentity, limit int) ([]model.Observation, error) {
	if limit <= 0 || limit > s.maxSales {
		limit = s.maxSales
	}

	sales, err := s.store.FindCompletedSales(ctx, store.ItemFilter{
		Name:             identity.Name,
		SetName:          identity.SetName,
		Grade:            identity.Grade,
		GradingCompanyID: identity.GradingCompanyID,
	}, limit)
	if err != nil {
		return nil, err
	}

	obs := make([]model.Observation, 0, len(sales))
	for _, sale := range sales {
		obs = append(obs, model.Observation{
			Price:            sale.Price,
			Source:           model.SourceSale,
			Grade:            sale.Grade,
			GradingCompanyID: sale.GradingCompanyID,
			RecordedAt:       sale.CompletedAt,
		})
	}
	return obs, nil
}
