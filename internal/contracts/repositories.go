package contracts

import "context"

// TradeRepository persists and reads trades.
type TradeRepository interface {
	// UpsertTrades writes one row per trade, keyed by (trade_id, trade_date).
	// On conflict only time_updated, volume and price are overwritten.
	UpsertTrades(ctx context.Context, trades []Trade) error

	// GetRecentTrades returns at most limit trades, most recent trade_date first.
	GetRecentTrades(ctx context.Context, limit int) ([]Trade, error)
}

// EodPriceRepository persists settlement prices. Plain append, no conflict
// handling.
type EodPriceRepository interface {
	InsertPrices(ctx context.Context, prices []EndOfDaySettlementPrice) error
}

// PositionRepository persists aggregated positions.
type PositionRepository interface {
	// UpsertPositions writes one row per position, keyed by the 8-tuple
	// grouping key. On conflict only time_updated, volume and source are
	// overwritten.
	UpsertPositions(ctx context.Context, positions []Position) error
}

// ObjectStore stores and retrieves raw payloads by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Publisher publishes JSON-encoded events on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Subscriber delivers messages for a subject to a handler, one at a time.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) error
}
