// Package collector retrieves the raw price observations for an item
// identity from the Market Data Store. It is the degradation boundary:
// a failing or slow store query becomes an empty observation set, never
// an error, so a recommendation can always be produced.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Tomangit/slabmarket-sub001/internal/cache"
	"github.com/Tomangit/slabmarket-sub001/internal/comps"
	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

const (
	// MaxRecentSales bounds the completed-sale lookback per request.
	MaxRecentSales = 10

	// MaxActiveListings bounds the active-listing query per request.
	MaxActiveListings = 50

	defaultQueryTimeout = 5 * time.Second
	defaultCacheTTL     = 5 * time.Minute
)

// Collected holds one request's observations. Listings are asking-price
// signals; Sales are realized-value signals, most recent first.
type Collected struct {
	Listings []model.Observation `json:"listings"`
	Sales    []model.Observation `json:"sales"`
}

// Collector fetches listing and sale observations for an identity.
type Collector struct {
	store        store.MarketDataStore
	sales        comps.Source
	cache        *cache.Cache
	limiter      *rate.Limiter
	logger       *slog.Logger
	queryTimeout time.Duration
	cacheTTL     time.Duration
}

// Option configures a Collector.
type Option func(*Collector)

// WithCache enables caching of store query results.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(col *Collector) {
		col.cache = c
		if ttl > 0 {
			col.cacheTTL = ttl
		}
	}
}

// WithSalesSource replaces the default store-backed sale source, usually
// with a fallback chain.
func WithSalesSource(src comps.Source) Option {
	return func(col *Collector) {
		col.sales = src
	}
}

// WithQueryTimeout bounds each store query.
func WithQueryTimeout(d time.Duration) Option {
	return func(col *Collector) {
		if d > 0 {
			col.queryTimeout = d
		}
	}
}

// WithLogger sets the logger used when a query degrades to empty.
func WithLogger(l *slog.Logger) Option {
	return func(col *Collector) {
		col.logger = l
	}
}

// New creates a Collector over the given store.
func New(s store.MarketDataStore, opts ...Option) *Collector {
	col := &Collector{
		store:        s,
		limiter:      rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		logger:       slog.Default(),
		queryTimeout: defaultQueryTimeout,
		cacheTTL:     defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(col)
	}
	if col.sales == nil {
		col.sales = comps.NewStoreSource(s, MaxRecentSales)
	}
	return col
}

// Collect fetches active listings and recent sales matching identity.
// The two queries are independent and run concurrently; each leg degrades
// to an empty slice on failure or timeout. Non-positive prices are never
// returned. Cancellation of ctx abandons both legs.
func (c *Collector) Collect(ctx context.Context, identity model.ItemIdentity) Collected {
	var (
		wg       sync.WaitGroup
		listings []model.Observation
		sales    []model.Observation
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		listings = c.collectListings(ctx, identity)
	}()
	go func() {
		defer wg.Done()
		sales = c.collectSales(ctx, identity)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		// Abandoned request: partial results are discarded entirely.
		return Collected{Listings: []model.Observation{}, Sales: []model.Observation{}}
	}

	return Collected{Listings: listings, Sales: sales}
}

// CollectListingRecords fetches the full listing projections for identity,
// degrading to empty on store failure. Used by the comparison ranker,
// which needs more than the price point.
func (c *Collector) CollectListingRecords(ctx context.Context, filter store.ItemFilter, limit int) []store.Listing {
	if limit <= 0 || limit > MaxActiveListings {
		limit = MaxActiveListings
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	if err := c.limiter.Wait(queryCtx); err != nil {
		return nil
	}

	recs, err := c.store.FindActiveListings(queryCtx, filter, limit)
	if err != nil {
		c.logger.Warn("listing query degraded to empty", "error", err)
		return nil
	}
	return recs
}

func (c *Collector) collectListings(ctx context.Context, identity model.ItemIdentity) []model.Observation {
	key := cache.ListingsKey(identity.Name, identity.SetName, identity.Grade, identity.GradingCompanyID)
	if cached, ok := c.getCached(key); ok {
		return cached
	}

	recs := c.CollectListingRecords(ctx, filterFor(identity), MaxActiveListings)

	obs := make([]model.Observation, 0, len(recs))
	for _, l := range recs {
		if l.Price <= 0 {
			continue
		}
		obs = append(obs, model.Observation{
			Price:            l.Price,
			Source:           model.SourceListing,
			Grade:            l.Grade,
			GradingCompanyID: l.GradingCompanyID,
			RecordedAt:       l.CreatedAt,
		})
	}

	c.setCached(key, obs)
	return obs
}

func (c *Collector) collectSales(ctx context.Context, identity model.ItemIdentity) []model.Observation {
	key := cache.SalesKey(identity.Name, identity.SetName, identity.Grade, identity.GradingCompanyID)
	if cached, ok := c.getCached(key); ok {
		return cached
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	if err := c.limiter.Wait(queryCtx); err != nil {
		return nil
	}

	sales, err := c.sales.RecentSales(queryCtx, identity, MaxRecentSales)
	if err != nil {
		c.logger.Warn("sale query degraded to empty", "error", err)
		return nil
	}

	obs := make([]model.Observation, 0, len(sales))
	for _, s := range sales {
		if s.Price <= 0 {
			continue
		}
		obs = append(obs, s)
	}

	c.setCached(key, obs)
	return obs
}

func (c *Collector) getCached(key string) ([]model.Observation, bool) {
	if c.cache == nil {
		return nil, false
	}
	var obs []model.Observation
	if found, _ := c.cache.Get(key, &obs); found {
		return obs, true
	}
	return nil, false
}

// setCached skips empty sets: a degraded query must not pin an empty
// market for the TTL.
func (c *Collector) setCached(key string, obs []model.Observation) {
	if c.cache == nil || len(obs) == 0 {
		return
	}
	_ = c.cache.Put(key, obs, c.cacheTTL)
}

func filterFor(identity model.ItemIdentity) store.ItemFilter {
	return store.ItemFilter{
		Name:             identity.Name,
		SetName:          identity.SetName,
		Grade:            identity.Grade,
		GradingCompanyID: identity.GradingCompanyID,
	}
}
