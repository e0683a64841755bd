package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents one executed deal (future, swap, etc.) used to derive
// positions and P&L. The natural key is (TradeID, TradeDate): re-importing a
// trade with the same key is a price/volume correction, never a new identity.
type Trade struct {
	TradeID        int64
	ContractID     int
	CustomerID     int
	BookID         int
	TraderID       decimal.Decimal
	DepartmentID   int
	TradeDate      time.Time
	TimeUpdated    time.Time
	Volume         decimal.Decimal
	Price          decimal.Decimal
	Currency       string
	Side           string
	CounterpartyID *int
	DeliveryStart  *time.Time
	DeliveryEnd    *time.Time
	ProductType    string
	Source         string
}

// Side values as stored. Incoming data is normalized case-insensitively;
// unrecognized literals pass through unchanged (known data-quality gap).
const (
	SideBuy  = "Buy"
	SideSell = "Sell"
)
