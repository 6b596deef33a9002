package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced item id does not exist. Unlike
// an empty query result, this signals a caller-side bug and is surfaced to
// the caller rather than degraded away.
var ErrNotFound = errors.New("item not found")

// Listing is the store's projection of an active listing. The analytics
// layer only ever reads these; nothing in this subsystem writes back.
type Listing struct {
	ID               string    `json:"id"`
	CardID           string    `json:"card_id,omitempty"`
	Name             string    `json:"name"`
	SetName          string    `json:"set_name,omitempty"`
	Grade            string    `json:"grade,omitempty"`
	GradingCompanyID string    `json:"grading_company_id,omitempty"`
	GradingCompany   string    `json:"grading_company,omitempty"`
	Price            float64   `json:"price"`
	CertNumber       string    `json:"cert_number,omitempty"`
	CertVerified     bool      `json:"cert_verified"`
	SellerName       string    `json:"seller_name,omitempty"`
	Images           []string  `json:"images,omitempty"`
	Views            int       `json:"views"`
	WatchlistCount   int       `json:"watchlist_count"`
	ListingType      string    `json:"listing_type,omitempty"`
	Status           string    `json:"status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Sale is a completed transaction record.
type Sale struct {
	ID               string    `json:"id"`
	ListingID        string    `json:"listing_id,omitempty"`
	Price            float64   `json:"price"`
	Grade            string    `json:"grade,omitempty"`
	GradingCompanyID string    `json:"grading_company_id,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// ItemFilter narrows store queries. Empty fields are wildcards. When CardID
// is set it takes precedence over the name/set pair.
type ItemFilter struct {
	CardID           string
	Name             string
	SetName          string
	Grade            string
	GradingCompanyID string
}

// Matches reports whether a listing satisfies every provided filter field.
func (f ItemFilter) Matches(l Listing) bool {
	if f.CardID != "" {
		if l.CardID != f.CardID {
			return false
		}
	} else {
		if f.Name != "" && l.Name != f.Name {
			return false
		}
		if f.SetName != "" && l.SetName != f.SetName {
			return false
		}
	}
	if f.Grade != "" && l.Grade != f.Grade {
		return false
	}
	if f.GradingCompanyID != "" && l.GradingCompanyID != f.GradingCompanyID {
		return false
	}
	return true
}

// MarketDataStore is the engine's only external collaborator: three read
// operations over persisted listings and sales. Implementations must honor
// context cancellation; the analytics layer bounds every call with a timeout.
type MarketDataStore interface {
	// FindActiveListings returns active listings matching the filter,
	// up to limit.
	FindActiveListings(ctx context.Context, filter ItemFilter, limit int) ([]Listing, error)

	// FindCompletedSales returns completed sales matching the filter,
	// most recent first, up to limit.
	FindCompletedSales(ctx context.Context, filter ItemFilter, limit int) ([]Sale, error)

	// FindItemByID returns the listing with the given id or ErrNotFound.
	FindItemByID(ctx context.Context, id string) (*Listing, error)
}
