// Package storage implements the relational repositories on PostgreSQL.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etrm-io/backoffice/internal/contracts"
)

// TradeRepository implements contracts.TradeRepository.
type TradeRepository struct {
	pool *pgxpool.Pool
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

// UpsertTrades writes one row per trade. The conflict target is the natural
// key (trade_id, trade_date); a conflicting row is a price/volume correction,
// so only time_updated, volume and price are overwritten.
func (r *TradeRepository) UpsertTrades(ctx context.Context, trades []contracts.Trade) error {
	const query = `
		INSERT INTO trades (
			trade_id, contract_id, customer_id, book_id, trader_id, department_id,
			trade_date, time_updated, volume, price, currency, side,
			counterparty_id, delivery_start, delivery_end, product_type, source
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		ON CONFLICT (trade_id, trade_date) DO UPDATE SET
			time_updated = EXCLUDED.time_updated,
			volume = EXCLUDED.volume,
			price = EXCLUDED.price
	`

	for _, t := range trades {
		_, err := r.pool.Exec(ctx, query,
			t.TradeID, t.ContractID, t.CustomerID, t.BookID, t.TraderID, t.DepartmentID,
			t.TradeDate, t.TimeUpdated, t.Volume, t.Price, t.Currency, t.Side,
			t.CounterpartyID, t.DeliveryStart, t.DeliveryEnd, t.ProductType, t.Source,
		)
		if err != nil {
			return fmt.Errorf("upsert trade %d: %w", t.TradeID, err)
		}
	}

	return nil
}

// GetRecentTrades returns at most limit trades ordered by trade_date
// descending. The bound keeps aggregation runs predictable; it is a
// scalability ceiling, not a correctness feature.
func (r *TradeRepository) GetRecentTrades(ctx context.Context, limit int) ([]contracts.Trade, error) {
	const query = `
		SELECT trade_id, contract_id, customer_id, book_id, trader_id, department_id,
		       trade_date, time_updated, volume, price, currency, side,
		       counterparty_id, delivery_start, delivery_end, product_type, source
		FROM trades
		ORDER BY trade_date DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []contracts.Trade
	for rows.Next() {
		var t contracts.Trade
		if err := rows.Scan(
			&t.TradeID, &t.ContractID, &t.CustomerID, &t.BookID, &t.TraderID, &t.DepartmentID,
			&t.TradeDate, &t.TimeUpdated, &t.Volume, &t.Price, &t.Currency, &t.Side,
			&t.CounterpartyID, &t.DeliveryStart, &t.DeliveryEnd, &t.ProductType, &t.Source,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}
