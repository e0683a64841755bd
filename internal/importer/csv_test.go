package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etrm-io/backoffice/internal/contracts"
)

func TestTradesToCSV_Layout(t *testing.T) {
	counterparty := 503
	start := time.Date(2026, 7, 1, 14, 30, 45, 0, time.UTC)
	end := time.Date(2026, 10, 1, 14, 30, 45, 0, time.UTC)

	trades := []contracts.Trade{
		{
			TradeID:        2001,
			ContractID:     101,
			CustomerID:     204,
			BookID:         302,
			TraderID:       decimal.RequireFromString("2.3"),
			DepartmentID:   405,
			TradeDate:      time.Date(2026, 3, 10, 14, 30, 45, 0, time.UTC),
			TimeUpdated:    time.Date(2026, 3, 10, 14, 30, 45, 0, time.UTC),
			Volume:         decimal.NewFromInt(1500),
			Price:          decimal.RequireFromString("71.5"),
			Currency:       "USD",
			Side:           contracts.SideBuy,
			CounterpartyID: &counterparty,
			DeliveryStart:  &start,
			DeliveryEnd:    &end,
			ProductType:    "Future",
			Source:         "MockedETRM",
		},
	}

	got := TradesToCSV(trades)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"trade_id,contract_id,customer_id,book_id,trader_id,department_id,trade_date,time_updated,volume,price,currency,side,counterparty_id,delivery_start,delivery_end,product_type,source",
		lines[0])
	assert.Equal(t,
		"2001,101,204,302,2.3,405,2026-03-10T14:30:45Z,2026-03-10T14:30:45Z,1500,71.50,USD,Buy,503,2026-07-01T14:30:45Z,2026-10-01T14:30:45Z,Future,MockedETRM",
		lines[1])
}

func TestTradesToCSV_OptionalFieldsEmpty(t *testing.T) {
	trades := []contracts.Trade{
		{
			TradeID:     3000,
			TraderID:    decimal.RequireFromString("1.5"),
			TradeDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			TimeUpdated: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Volume:      decimal.NewFromInt(100),
			Price:       decimal.NewFromInt(70),
			Currency:    "EUR",
			Side:        contracts.SideSell,
			ProductType: "Swap",
			Source:      "MockedETRM",
		},
	}

	got := TradesToCSV(trades)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[1], ",")
	require.Len(t, fields, 17)
	assert.Empty(t, fields[12], "counterparty_id")
	assert.Empty(t, fields[13], "delivery_start")
	assert.Empty(t, fields[14], "delivery_end")
	assert.Equal(t, "70.00", fields[9], "price always rendered with 2 decimals")
}

func TestTradesToCSV_EmptyBatch(t *testing.T) {
	got := TradesToCSV(nil)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	assert.Len(t, lines, 1, "header only")
}

func TestPricesToCSV_Layout(t *testing.T) {
	prices := []contracts.EndOfDaySettlementPrice{
		{
			ContractID:      107,
			CustomerID:      201,
			TradingPeriod:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			PublicationTime: time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
			Price:           decimal.RequireFromString("68.25"),
			Currency:        "USD",
			PriceSource:     "Exchange",
			MarketZone:      "EU-CENTRAL",
		},
	}

	got := PricesToCSV(prices)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"contract_id,customer_id,trading_period,publication_time,price,currency,price_source,market_zone",
		lines[0])
	assert.Equal(t,
		"107,201,2026-03-10T00:00:00Z,2026-03-10T16:00:00Z,68.25,USD,Exchange,EU-CENTRAL",
		lines[1])
}

func TestFormatInstant_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	local := time.Date(2026, 3, 10, 15, 30, 45, 0, loc)

	assert.Equal(t, "2026-03-10T14:30:45Z", formatInstant(local))
}
