package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etrm-io/backoffice/internal/contracts"
)

// PositionRepository implements contracts.PositionRepository.
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

// UpsertPositions writes one row per position. The conflict target is the
// 8-attribute grouping key; only time_updated, volume and source are
// overwritten on conflict, mirroring the trade upsert pattern.
func (r *PositionRepository) UpsertPositions(ctx context.Context, positions []contracts.Position) error {
	const query = `
		INSERT INTO positions (
			contract_id, customer_id, book_id, trader_id, department_id,
			time_updated, volume, product_type, currency, side, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (contract_id, customer_id, book_id, trader_id, department_id, product_type, currency, side)
		DO UPDATE SET
			time_updated = EXCLUDED.time_updated,
			volume = EXCLUDED.volume,
			source = EXCLUDED.source
	`

	for _, p := range positions {
		_, err := r.pool.Exec(ctx, query,
			p.ContractID, p.CustomerID, p.BookID, p.TraderID, p.DepartmentID,
			p.TimeUpdated, p.Volume, p.ProductType, p.Currency, p.Side, p.Source,
		)
		if err != nil {
			return fmt.Errorf("upsert position for contract %d: %w", p.ContractID, err)
		}
	}

	return nil
}
