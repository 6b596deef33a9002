package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory MarketDataStore for tests and local runs.
// It can be configured to simulate store failures.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]Listing
	sales    []Sale

	// FailQueries makes every query return an error, simulating an
	// unavailable backing store.
	FailQueries bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]Listing),
	}
}

// AddListing stores a listing, assigning an id when absent, and returns
// the stored record.
func (m *MemoryStore) AddListing(l Listing) Listing {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = "active"
	}

	m.mu.Lock()
	m.listings[l.ID] = l
	m.mu.Unlock()
	return l
}

// AddSale stores a completed sale, assigning an id when absent.
func (m *MemoryStore) AddSale(s Sale) Sale {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	m.mu.Lock()
	m.sales = append(m.sales, s)
	m.mu.Unlock()
	return s
}

// FindActiveListings returns active listings matching the filter.
func (m *MemoryStore) FindActiveListings(ctx context.Context, filter ItemFilter, limit int) ([]Listing, error) {
	if err := m.checkAvailable(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Listing
	for _, l := range m.listings {
		if l.Status != "active" {
			continue
		}
		if filter.Matches(l) {
			matched = append(matched, l)
		}
	}

	// Deterministic order for a map-backed store.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// FindCompletedSales returns sales matching the filter, most recent first.
func (m *MemoryStore) FindCompletedSales(ctx context.Context, filter ItemFilter, limit int) ([]Sale, error) {
	if err := m.checkAvailable(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Sale
	for _, s := range m.sales {
		if filter.Grade != "" && s.Grade != filter.Grade {
			continue
		}
		if filter.GradingCompanyID != "" && s.GradingCompanyID != filter.GradingCompanyID {
			continue
		}
		// Card identity lives on the sold listing.
		if filter.CardID != "" || filter.Name != "" || filter.SetName != "" {
			l, ok := m.listings[s.ListingID]
			if !ok {
				continue
			}
			identity := ItemFilter{CardID: filter.CardID, Name: filter.Name, SetName: filter.SetName}
			if !identity.Matches(l) {
				continue
			}
		}
		matched = append(matched, s)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CompletedAt.Equal(matched[j].CompletedAt) {
			return matched[i].CompletedAt.After(matched[j].CompletedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// FindItemByID returns the listing with the given id or ErrNotFound.
func (m *MemoryStore) FindItemByID(ctx context.Context, id string) (*Listing, error) {
	if err := m.checkAvailable(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *MemoryStore) checkAvailable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailQueries {
		return fmt.Errorf("memory store: simulated query failure")
	}
	return nil
}
