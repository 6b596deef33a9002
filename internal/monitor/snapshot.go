// Package monitor captures periodic market snapshots for a watchlist of
// card identities and reports significant movement between captures.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
)

// Snapshot is a point-in-time capture of market statistics for every
// watched identity.
type Snapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Items     map[string]*ItemMarket `json:"items"`
}

// ItemMarket holds one identity's statistics at capture time.
type ItemMarket struct {
	Identity model.ItemIdentity     `json:"identity"`
	Stats    model.MarketStatistics `json:"stats"`
}

// ItemKey builds the stable map key for a watched identity.
func ItemKey(id model.ItemIdentity) string {
	return strings.Join([]string{id.Name, id.SetName, id.Grade, id.GradingCompanyID}, "|")
}

// NewSnapshot creates an empty snapshot stamped with the current time.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Timestamp: time.Now(),
		Items:     make(map[string]*ItemMarket),
	}
}

// Add records one identity's statistics in the snapshot.
func (s *Snapshot) Add(id model.ItemIdentity, stats model.MarketStatistics) {
	s.Items[ItemKey(id)] = &ItemMarket{Identity: id, Stats: stats}
}

// LoadSnapshot loads a snapshot from a JSON file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to a JSON file.
func SaveSnapshot(path string, snapshot *Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// PriceDelta is a significant movement in one identity's median sale
// price between two snapshots.
type PriceDelta struct {
	Identity    model.ItemIdentity
	OldPrice    float64
	NewPrice    float64
	DeltaUSD    float64
	DeltaPct    float64
	OldSnapshot time.Time
	NewSnapshot time.Time
}

// CompareSnapshots returns median-price movements that exceed either
// threshold. Identities missing from the older snapshot are skipped.
func CompareSnapshots(old, latest *Snapshot, thresholdPct, thresholdUSD float64) []PriceDelta {
	var deltas []PriceDelta

	for key, item := range latest.Items {
		prev, ok := old.Items[key]
		if !ok {
			continue
		}

		oldPrice := prev.Stats.Median
		newPrice := item.Stats.Median
		if oldPrice <= 0 || newPrice <= 0 {
			continue
		}

		deltaUSD := newPrice - oldPrice
		deltaPct := (deltaUSD / oldPrice) * 100

		if abs(deltaPct) >= thresholdPct || abs(deltaUSD) >= thresholdUSD {
			deltas = append(deltas, PriceDelta{
				Identity:    item.Identity,
				OldPrice:    oldPrice,
				NewPrice:    newPrice,
				DeltaUSD:    deltaUSD,
				DeltaPct:    deltaPct,
				OldSnapshot: old.Timestamp,
				NewSnapshot: latest.Timestamp,
			})
		}
	}

	return deltas
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
