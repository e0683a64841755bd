// Package generator produces synthetic trade and end-of-day settlement price
// batches for the mock importer. Values are drawn uniformly from small fixed
// domains so that downstream aggregation produces meaningful rollups.
package generator

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etrm-io/backoffice/internal/contracts"
)

// SourceSystem tags every generated record and import announcement.
const SourceSystem = "MockedETRM"

// tradeIDSeed is the counter start; the first issued id is tradeIDSeed+1.
const tradeIDSeed = 2000

// Fixed value domains. Kept small on purpose: repeated keys are what make the
// position rollup interesting.
var (
	contractIDs     = []int{101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
	customerIDs     = []int{201, 202, 203, 204, 205, 206, 207, 208}
	bookIDs         = []int{301, 302, 303, 304, 305}
	traderIDs       = []string{"1.5", "2.3", "3.1", "4.2", "5.1"}
	departmentIDs   = []int{401, 402, 403, 404, 405}
	productTypes    = []string{"Future", "Swap", "Option", "Forward"}
	currencies      = []string{"EUR", "USD", "GBP"}
	sides           = []string{contracts.SideBuy, contracts.SideSell}
	counterpartyIDs = []int{501, 502, 503, 504, 505, 506}
	marketZones     = []string{"EU-CENTRAL", "EU-WEST", "EU-NORTH", "US-EAST", "US-WEST"}
)

// referenceCurrency gets the lower price base (70.0); everything else is 75.0.
const referenceCurrency = "USD"

// Generator produces constrained-random batches. The trade id counter is
// atomic, so concurrent callers never observe duplicate or skipped ids. All
// prices are rounded to 2 decimal places, half away from zero.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand

	nextTradeID atomic.Int64
	now         func() time.Time
}

// New creates a Generator with the given random source and clock. Passing a
// fixed seed and clock makes batches fully deterministic in tests.
func New(rng *rand.Rand, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	g := &Generator{rng: rng, now: now}
	g.nextTradeID.Store(tradeIDSeed)
	return g
}

// GenerateTrades generates a batch of exactly count random trades.
func (g *Generator) GenerateTrades(count int) []contracts.Trade {
	trades := make([]contracts.Trade, 0, count)
	now := g.now().UTC().Truncate(time.Second)

	for i := 0; i < count; i++ {
		currency := currencies[g.intn(len(currencies))]
		counterpartyID := counterpartyIDs[g.intn(len(counterpartyIDs))]

		volume := int64(g.intn(4900) + 100)
		price := g.randomPrice(currency, 10.0)

		deliveryStart := now.AddDate(0, g.intn(11)+1, 0)
		deliveryEnd := deliveryStart.AddDate(0, g.intn(5)+1, 0)

		traderID, _ := decimal.NewFromString(traderIDs[g.intn(len(traderIDs))])

		trades = append(trades, contracts.Trade{
			TradeID:        g.nextTradeID.Add(1),
			ContractID:     contractIDs[g.intn(len(contractIDs))],
			CustomerID:     customerIDs[g.intn(len(customerIDs))],
			BookID:         bookIDs[g.intn(len(bookIDs))],
			TraderID:       traderID,
			DepartmentID:   departmentIDs[g.intn(len(departmentIDs))],
			TradeDate:      now,
			TimeUpdated:    now,
			Volume:         decimal.NewFromInt(volume),
			Price:          price,
			Currency:       currency,
			Side:           sides[g.intn(len(sides))],
			CounterpartyID: &counterpartyID,
			DeliveryStart:  &deliveryStart,
			DeliveryEnd:    &deliveryEnd,
			ProductType:    productTypes[g.intn(len(productTypes))],
			Source:         SourceSystem,
		})
	}

	return trades
}

// GeneratePrices generates settlement prices for a random subset of
// contract/customer combinations on the given trading date. The batch size is
// uniform on [5, 15] inclusive. Publication time is 16:00 UTC of the trading
// period by market convention.
func (g *Generator) GeneratePrices(tradingDate time.Time) []contracts.EndOfDaySettlementPrice {
	y, m, d := tradingDate.UTC().Date()
	tradingPeriod := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	publicationTime := tradingPeriod.Add(16 * time.Hour)

	count := g.intn(11) + 5
	prices := make([]contracts.EndOfDaySettlementPrice, 0, count)

	for i := 0; i < count; i++ {
		currency := currencies[g.intn(len(currencies))]

		prices = append(prices, contracts.EndOfDaySettlementPrice{
			ContractID:      contractIDs[g.intn(len(contractIDs))],
			CustomerID:      customerIDs[g.intn(len(customerIDs))],
			TradingPeriod:   tradingPeriod,
			PublicationTime: publicationTime,
			Price:           g.randomPrice(currency, 7.5),
			Currency:        currency,
			PriceSource:     "Exchange",
			MarketZone:      marketZones[g.intn(len(marketZones))],
		})
	}

	return prices
}

// randomPrice returns base(currency) + U(-spread, spread), rounded to 2
// decimal places half away from zero.
func (g *Generator) randomPrice(currency string, spread float64) decimal.Decimal {
	base := 75.0
	if currency == referenceCurrency {
		base = 70.0
	}
	return decimal.NewFromFloat(base + g.float64()*2*spread - spread).Round(2)
}

// intn is rand.Intn behind the generator's mutex; the shared *rand.Rand is
// not safe for concurrent use on its own.
func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *Generator) float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}
