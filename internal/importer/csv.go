package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/etrm-io/backoffice/internal/contracts"
)

// Column layouts are fixed; the normalizer matches them case-insensitively by
// header name, so order here is a convention, not a contract.
const (
	tradesHeader = "trade_id,contract_id,customer_id,book_id,trader_id,department_id,trade_date,time_updated,volume,price,currency,side,counterparty_id,delivery_start,delivery_end,product_type,source"
	pricesHeader = "contract_id,customer_id,trading_period,publication_time,price,currency,price_source,market_zone"
)

// TradesToCSV serializes a trade batch to the raw import format.
func TradesToCSV(trades []contracts.Trade) string {
	var sb strings.Builder
	sb.WriteString(tradesHeader)
	sb.WriteByte('\n')

	for _, t := range trades {
		fields := []string{
			strconv.FormatInt(t.TradeID, 10),
			strconv.Itoa(t.ContractID),
			strconv.Itoa(t.CustomerID),
			strconv.Itoa(t.BookID),
			t.TraderID.String(),
			strconv.Itoa(t.DepartmentID),
			formatInstant(t.TradeDate),
			formatInstant(t.TimeUpdated),
			t.Volume.String(),
			t.Price.StringFixed(2),
			t.Currency,
			t.Side,
			formatOptionalInt(t.CounterpartyID),
			formatOptionalInstant(t.DeliveryStart),
			formatOptionalInstant(t.DeliveryEnd),
			t.ProductType,
			t.Source,
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// PricesToCSV serializes an EOD price batch to the raw import format.
func PricesToCSV(prices []contracts.EndOfDaySettlementPrice) string {
	var sb strings.Builder
	sb.WriteString(pricesHeader)
	sb.WriteByte('\n')

	for _, p := range prices {
		fields := []string{
			strconv.Itoa(p.ContractID),
			strconv.Itoa(p.CustomerID),
			formatInstant(p.TradingPeriod),
			formatInstant(p.PublicationTime),
			p.Price.StringFixed(2),
			p.Currency,
			p.PriceSource,
			p.MarketZone,
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// formatInstant renders a timestamp as ISO-8601 UTC with second precision.
func formatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func formatOptionalInstant(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatInstant(*t)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
