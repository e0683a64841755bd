// Package aggregator rolls trades up into positions. It is a one-shot batch
// job: every run recomputes rollups from the full visible trade set and
// upserts one position per grouping key.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// SourceAggregated marks position rows produced by this job.
const SourceAggregated = "Aggregated"

// Aggregator reads recent trades and upserts the resulting positions. No
// locking spans the read and write phases: trades inserted concurrently are
// picked up by the next run, and the result is "as of snapshot time".
type Aggregator struct {
	trades    contracts.TradeRepository
	positions contracts.PositionRepository
	pub       contracts.Publisher // optional; nil disables update notifications
	maxTrades int
	log       *logger.Logger

	now func() time.Time
}

// New creates an Aggregator bounded to the maxTrades most recently dated rows.
func New(
	trades contracts.TradeRepository,
	positions contracts.PositionRepository,
	pub contracts.Publisher,
	maxTrades int,
	log *logger.Logger,
) *Aggregator {
	return &Aggregator{
		trades:    trades,
		positions: positions,
		pub:       pub,
		maxTrades: maxTrades,
		log:       log,
		now:       time.Now,
	}
}

// Run performs one aggregation pass.
func (a *Aggregator) Run(ctx context.Context) error {
	a.log.Info("position aggregation starting")

	trades, err := a.trades.GetRecentTrades(ctx, a.maxTrades)
	if err != nil {
		return fmt.Errorf("fetch trades: %w", err)
	}
	a.log.Infof("fetched %d trades for aggregation", len(trades))

	positions := Aggregate(trades)
	a.log.Infof("aggregated into %d positions", len(positions))

	if err := a.positions.UpsertPositions(ctx, positions); err != nil {
		return fmt.Errorf("upsert positions: %w", err)
	}
	a.log.Infof("upserted %d positions", len(positions))

	if a.pub != nil {
		event := contracts.PositionsUpdatedEvent{
			EventType: contracts.EventTypePositionsUpdated,
			Count:     len(positions),
			UpdatedAt: a.now().UTC(),
		}
		if err := a.pub.Publish(ctx, contracts.SubjectPositionsUpdated, event); err != nil {
			a.log.WithError(err).Warn("failed to publish positions-updated event")
		}
	}

	return nil
}

// groupKey is the 8-attribute position identity. The trader id is keyed by
// its decimal string form; decimal.Decimal itself is not a comparable value.
type groupKey struct {
	contractID   int
	customerID   int
	bookID       int
	traderID     string
	departmentID int
	productType  string
	currency     string
	side         string
}

// Aggregate groups trades by the 8-tuple key and computes one position per
// group: volume is the exact decimal sum, time is the group maximum. Output
// order follows first appearance of each key in the input.
func Aggregate(trades []contracts.Trade) []contracts.Position {
	index := make(map[groupKey]int)
	var positions []contracts.Position

	for _, t := range trades {
		key := groupKey{
			contractID:   t.ContractID,
			customerID:   t.CustomerID,
			bookID:       t.BookID,
			traderID:     t.TraderID.String(),
			departmentID: t.DepartmentID,
			productType:  t.ProductType,
			currency:     t.Currency,
			side:         t.Side,
		}

		i, ok := index[key]
		if !ok {
			index[key] = len(positions)
			positions = append(positions, contracts.Position{
				ContractID:   t.ContractID,
				CustomerID:   t.CustomerID,
				BookID:       t.BookID,
				TraderID:     t.TraderID,
				DepartmentID: t.DepartmentID,
				TimeUpdated:  t.TimeUpdated,
				Volume:       t.Volume,
				ProductType:  t.ProductType,
				Currency:     t.Currency,
				Side:         t.Side,
				Source:       SourceAggregated,
			})
			continue
		}

		positions[i].Volume = positions[i].Volume.Add(t.Volume)
		if t.TimeUpdated.After(positions[i].TimeUpdated) {
			positions[i].TimeUpdated = t.TimeUpdated
		}
	}

	return positions
}
