package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etrm-io/backoffice/internal/contracts"
)

// EodPriceRepository implements contracts.EodPriceRepository.
type EodPriceRepository struct {
	pool *pgxpool.Pool
}

// NewEodPriceRepository creates a new EOD price repository.
func NewEodPriceRepository(pool *pgxpool.Pool) *EodPriceRepository {
	return &EodPriceRepository{pool: pool}
}

// InsertPrices appends settlement prices. There is no conflict target:
// eod_prices has no natural key and is treated as append-only history.
func (r *EodPriceRepository) InsertPrices(ctx context.Context, prices []contracts.EndOfDaySettlementPrice) error {
	const query = `
		INSERT INTO eod_prices (
			contract_id, customer_id, trading_period, publication_time,
			price, currency, price_source, market_zone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, p := range prices {
		_, err := r.pool.Exec(ctx, query,
			p.ContractID, p.CustomerID, p.TradingPeriod, p.PublicationTime,
			p.Price, p.Currency, p.PriceSource, p.MarketZone,
		)
		if err != nil {
			return fmt.Errorf("insert eod price for contract %d: %w", p.ContractID, err)
		}
	}

	return nil
}
