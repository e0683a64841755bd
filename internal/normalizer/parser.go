// Package normalizer consumes import announcements, parses raw CSV payloads
// into typed records and persists them idempotently.
package normalizer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etrm-io/backoffice/internal/contracts"
)

var tradeColumns = []string{
	"trade_id", "contract_id", "customer_id", "book_id", "trader_id",
	"department_id", "trade_date", "time_updated", "volume", "price",
	"currency", "side", "counterparty_id", "delivery_start", "delivery_end",
	"product_type", "source",
}

var priceColumns = []string{
	"contract_id", "customer_id", "trading_period", "publication_time",
	"price", "currency", "price_source", "market_zone",
}

// ParseTrades parses a trades.csv payload. Column matching is header-driven
// and case-insensitive; every declared column must be present. Any malformed
// row fails the whole batch: the caller persists either all rows or none.
func ParseTrades(r io.Reader) ([]contracts.Trade, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := readHeader(cr, tradeColumns)
	if err != nil {
		return nil, err
	}

	var trades []contracts.Trade
	for row := 2; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		trade, err := parseTradeRow(record, head)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		trades = append(trades, trade)
	}

	return trades, nil
}

// ParsePrices parses an eod-prices.csv payload with the same whole-batch
// failure semantics as ParseTrades.
func ParsePrices(r io.Reader) ([]contracts.EndOfDaySettlementPrice, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := readHeader(cr, priceColumns)
	if err != nil {
		return nil, err
	}

	var prices []contracts.EndOfDaySettlementPrice
	for row := 2; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		price, err := parsePriceRow(record, head)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		prices = append(prices, price)
	}

	return prices, nil
}

// NormalizeSide maps side literals case-insensitively onto their canonical
// capitalization. Unrecognized literals pass through unchanged; storage
// accepts them as-is. Known data-quality gap, kept deliberately.
func NormalizeSide(side string) string {
	switch strings.ToLower(side) {
	case "buy":
		return contracts.SideBuy
	case "sell":
		return contracts.SideSell
	default:
		return side
	}
}

// header maps lowercased column names to field positions.
type header map[string]int

func readHeader(cr *csv.Reader, required []string) (header, error) {
	record, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	head := make(header, len(record))
	for i, name := range record {
		head[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := head[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return head, nil
}

func parseTradeRow(record []string, head header) (contracts.Trade, error) {
	var t contracts.Trade
	var err error

	if t.TradeID, err = parseInt64(record[head["trade_id"]]); err != nil {
		return t, fmt.Errorf("trade_id: %w", err)
	}
	if t.ContractID, err = parseInt(record[head["contract_id"]]); err != nil {
		return t, fmt.Errorf("contract_id: %w", err)
	}
	if t.CustomerID, err = parseInt(record[head["customer_id"]]); err != nil {
		return t, fmt.Errorf("customer_id: %w", err)
	}
	if t.BookID, err = parseInt(record[head["book_id"]]); err != nil {
		return t, fmt.Errorf("book_id: %w", err)
	}
	if t.TraderID, err = decimal.NewFromString(record[head["trader_id"]]); err != nil {
		return t, fmt.Errorf("trader_id: %w", err)
	}
	if t.DepartmentID, err = parseInt(record[head["department_id"]]); err != nil {
		return t, fmt.Errorf("department_id: %w", err)
	}
	if t.TradeDate, err = parseInstant(record[head["trade_date"]]); err != nil {
		return t, fmt.Errorf("trade_date: %w", err)
	}
	if t.TimeUpdated, err = parseInstant(record[head["time_updated"]]); err != nil {
		return t, fmt.Errorf("time_updated: %w", err)
	}
	if t.Volume, err = decimal.NewFromString(record[head["volume"]]); err != nil {
		return t, fmt.Errorf("volume: %w", err)
	}
	if t.Price, err = decimal.NewFromString(record[head["price"]]); err != nil {
		return t, fmt.Errorf("price: %w", err)
	}
	t.Currency = strings.ToUpper(record[head["currency"]])
	t.Side = NormalizeSide(record[head["side"]])
	if t.CounterpartyID, err = parseOptionalInt(record[head["counterparty_id"]]); err != nil {
		return t, fmt.Errorf("counterparty_id: %w", err)
	}
	if t.DeliveryStart, err = parseOptionalInstant(record[head["delivery_start"]]); err != nil {
		return t, fmt.Errorf("delivery_start: %w", err)
	}
	if t.DeliveryEnd, err = parseOptionalInstant(record[head["delivery_end"]]); err != nil {
		return t, fmt.Errorf("delivery_end: %w", err)
	}
	t.ProductType = record[head["product_type"]]
	t.Source = record[head["source"]]

	return t, nil
}

func parsePriceRow(record []string, head header) (contracts.EndOfDaySettlementPrice, error) {
	var p contracts.EndOfDaySettlementPrice
	var err error

	if p.ContractID, err = parseInt(record[head["contract_id"]]); err != nil {
		return p, fmt.Errorf("contract_id: %w", err)
	}
	if p.CustomerID, err = parseInt(record[head["customer_id"]]); err != nil {
		return p, fmt.Errorf("customer_id: %w", err)
	}
	if p.TradingPeriod, err = parseInstant(record[head["trading_period"]]); err != nil {
		return p, fmt.Errorf("trading_period: %w", err)
	}
	if p.PublicationTime, err = parseInstant(record[head["publication_time"]]); err != nil {
		return p, fmt.Errorf("publication_time: %w", err)
	}
	if p.Price, err = decimal.NewFromString(record[head["price"]]); err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	p.Currency = strings.ToUpper(record[head["currency"]])
	p.PriceSource = record[head["price_source"]]
	p.MarketZone = record[head["market_zone"]]

	return p, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	return int(v), err
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// parseInstant parses an ISO-8601 instant and converts it to UTC.
func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Empty strings mean "absent" for all optional fields.

func parseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseInt(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalInstant(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseInstant(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
