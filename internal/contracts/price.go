package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// EndOfDaySettlementPrice is one settlement quote for a contract/customer at a
// given trading period. EOD prices are append-only: there is no natural key
// and no conflict handling in storage.
type EndOfDaySettlementPrice struct {
	ContractID      int
	CustomerID      int
	TradingPeriod   time.Time
	PublicationTime time.Time
	Price           decimal.Decimal
	Currency        string
	PriceSource     string
	MarketZone      string
}
