package comps

import (
	"context"
	"log/slog"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
)

// Chain tries sources in order and returns the first non-empty result.
// A source error is logged and skipped, not propagated; with every source
// empty or failing the chain returns an empty set, which downstream
// consumers treat as sparse market data rather than a failure.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain creates a chain over the given sources, tried in order.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{sources: sources, logger: logger}
}

// Name implements Source.
func (c *Chain) Name() string {
	return "chain"
}

// RecentSales implements Source.
func (c *Chain) RecentSales(ctx context.Context, identity model.ItemIdentity, limit int) ([]model.Observation, error) {
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obs, err := src.RecentSales(ctx, identity, limit)
		if err != nil {
			c.logger.Warn("sale source failed, trying next",
				"source", src.Name(), "error", err)
			continue
		}
		if len(obs) > 0 {
			return obs, nil
		}
	}
	return nil, nil
}
