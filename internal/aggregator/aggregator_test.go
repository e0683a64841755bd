package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/pkg/logger"
)

type fakeTradeRepo struct {
	trades     []contracts.Trade
	limitSeen  int
	fetchErr   error
	fetchCalls int
}

func (r *fakeTradeRepo) UpsertTrades(ctx context.Context, trades []contracts.Trade) error {
	return nil
}

func (r *fakeTradeRepo) GetRecentTrades(ctx context.Context, limit int) ([]contracts.Trade, error) {
	r.fetchCalls++
	r.limitSeen = limit
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.trades, nil
}

type fakePositionRepo struct {
	upserted  [][]contracts.Position
	upsertErr error
}

func (r *fakePositionRepo) UpsertPositions(ctx context.Context, positions []contracts.Position) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, positions)
	return nil
}

type fakePublisher struct {
	subjects []string
	events   []any
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, v any) error {
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, v)
	return nil
}

// tradeWithKey builds a trade carrying the full grouping tuple.
func tradeWithKey(traderID string, volume int64, side string, updated time.Time) contracts.Trade {
	return contracts.Trade{
		ContractID:   101,
		CustomerID:   201,
		BookID:       301,
		TraderID:     decimal.RequireFromString(traderID),
		DepartmentID: 401,
		TimeUpdated:  updated,
		Volume:       decimal.NewFromInt(volume),
		ProductType:  "Future",
		Currency:     "EUR",
		Side:         side,
	}
}

func TestAggregate_SumsVolumesPerKey(t *testing.T) {
	t1 := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Two trades on one key (5 and -2), one trade on a second key that
	// differs only in side.
	trades := []contracts.Trade{
		tradeWithKey("1.5", 5, contracts.SideBuy, t1),
		tradeWithKey("1.5", -2, contracts.SideBuy, t3),
		tradeWithKey("1.5", 3, contracts.SideSell, t2),
	}

	positions := Aggregate(trades)
	require.Len(t, positions, 2)

	assert.True(t, positions[0].Volume.Equal(decimal.NewFromInt(3)),
		"buy key: 5 + (-2) = 3, got %s", positions[0].Volume)
	assert.Equal(t, contracts.SideBuy, positions[0].Side)
	assert.Equal(t, t3, positions[0].TimeUpdated, "group maximum time_updated")

	assert.True(t, positions[1].Volume.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, contracts.SideSell, positions[1].Side)
	assert.Equal(t, t2, positions[1].TimeUpdated)
}

func TestAggregate_OutputOrderFollowsFirstAppearance(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	trades := []contracts.Trade{
		tradeWithKey("5.1", 1, contracts.SideBuy, now),
		tradeWithKey("1.5", 1, contracts.SideBuy, now),
		tradeWithKey("5.1", 1, contracts.SideBuy, now), // existing key, no new position
		tradeWithKey("2.3", 1, contracts.SideBuy, now),
	}

	positions := Aggregate(trades)
	require.Len(t, positions, 3)

	assert.Equal(t, "5.1", positions[0].TraderID.String())
	assert.Equal(t, "1.5", positions[1].TraderID.String())
	assert.Equal(t, "2.3", positions[2].TraderID.String())
}

func TestAggregate_KeyCoversAllEightAttributes(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	base := tradeWithKey("1.5", 1, contracts.SideBuy, now)

	variants := make([]contracts.Trade, 0, 9)
	variants = append(variants, base)

	v := base
	v.ContractID = 102
	variants = append(variants, v)
	v = base
	v.CustomerID = 202
	variants = append(variants, v)
	v = base
	v.BookID = 302
	variants = append(variants, v)
	v = base
	v.TraderID = decimal.RequireFromString("2.3")
	variants = append(variants, v)
	v = base
	v.DepartmentID = 402
	variants = append(variants, v)
	v = base
	v.ProductType = "Swap"
	variants = append(variants, v)
	v = base
	v.Currency = "USD"
	variants = append(variants, v)
	v = base
	v.Side = contracts.SideSell
	variants = append(variants, v)

	positions := Aggregate(variants)
	assert.Len(t, positions, 9, "every attribute change yields a distinct key")
}

func TestAggregate_DecimalExactness(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	a := tradeWithKey("1.5", 0, contracts.SideBuy, now)
	a.Volume = decimal.RequireFromString("0.1")
	b := a
	b.Volume = decimal.RequireFromString("0.2")

	positions := Aggregate([]contracts.Trade{a, b})
	require.Len(t, positions, 1)
	assert.Equal(t, "0.3", positions[0].Volume.String(), "no float drift")
}

func TestAggregate_SourceAndEmptyInput(t *testing.T) {
	assert.Empty(t, Aggregate(nil))

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	trade := tradeWithKey("1.5", 7, contracts.SideBuy, now)
	trade.Source = "MockedETRM"

	positions := Aggregate([]contracts.Trade{trade})
	require.Len(t, positions, 1)
	assert.Equal(t, SourceAggregated, positions[0].Source, "positions never inherit the trade source")
}

func TestRun_UpsertsAndAnnounces(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	trades := &fakeTradeRepo{trades: []contracts.Trade{
		tradeWithKey("1.5", 5, contracts.SideBuy, now),
		tradeWithKey("1.5", 2, contracts.SideBuy, now),
	}}
	positions := &fakePositionRepo{}
	pub := &fakePublisher{}

	agg := New(trades, positions, pub, 1000, logger.Discard())
	require.NoError(t, agg.Run(context.Background()))

	assert.Equal(t, 1000, trades.limitSeen, "configured cap passed to the repository")
	require.Len(t, positions.upserted, 1)
	require.Len(t, positions.upserted[0], 1)
	assert.True(t, positions.upserted[0][0].Volume.Equal(decimal.NewFromInt(7)))

	require.Equal(t, []string{contracts.SubjectPositionsUpdated}, pub.subjects)
	event, ok := pub.events[0].(contracts.PositionsUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, contracts.EventTypePositionsUpdated, event.EventType)
	assert.Equal(t, 1, event.Count)
}

func TestRun_NilPublisher(t *testing.T) {
	trades := &fakeTradeRepo{}
	positions := &fakePositionRepo{}

	agg := New(trades, positions, nil, 1000, logger.Discard())
	assert.NoError(t, agg.Run(context.Background()))
	assert.Len(t, positions.upserted, 1)
}

func TestRun_FetchFailure(t *testing.T) {
	trades := &fakeTradeRepo{fetchErr: errors.New("connection refused")}
	positions := &fakePositionRepo{}

	agg := New(trades, positions, nil, 1000, logger.Discard())
	err := agg.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch trades")
	assert.Empty(t, positions.upserted)
}

func TestRun_UpsertFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	trades := &fakeTradeRepo{trades: []contracts.Trade{
		tradeWithKey("1.5", 5, contracts.SideBuy, now),
	}}
	positions := &fakePositionRepo{upsertErr: errors.New("deadlock detected")}
	pub := &fakePublisher{}

	agg := New(trades, positions, pub, 1000, logger.Discard())
	err := agg.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert positions")
	assert.Empty(t, pub.subjects, "no announcement for a failed run")
}
