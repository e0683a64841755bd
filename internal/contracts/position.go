package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a volume rollup over trades sharing the 8-attribute grouping key
// (contract, customer, book, trader, department, product type, currency, side).
// At most one row exists per key; re-aggregation replaces volume, time and
// source but never the identity attributes.
type Position struct {
	PositionID   *int64
	ContractID   int
	CustomerID   int
	BookID       int
	TraderID     decimal.Decimal
	DepartmentID int
	TimeUpdated  time.Time
	Volume       decimal.Decimal
	ProductType  string
	Currency     string
	Side         string
	Source       string
}
