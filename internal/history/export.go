package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ExportHeader is the fixed column order of an export.
var ExportHeader = []string{"Timestamp", "Market", "Side", "Outcome", "Size", "Price", "P&L"}

// TimestampLayout is RFC 3339 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Export writes records as CSV in their current order.
// Fields containing commas, quotes or newlines are quoted.
func Export(w io.Writer, records []TradeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		if err := cw.Write(exportRow(r)); err != nil {
			return fmt.Errorf("write trade %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func exportRow(r TradeRecord) []string {
	return []string{
		r.Timestamp.UTC().Format(TimestampLayout),
		r.Market(),
		r.Side,
		r.Outcome,
		decimal.NewFromFloat(r.Size).StringFixed(2),
		decimal.NewFromFloat(r.Price).StringFixed(4),
		decimal.NewFromFloat(r.PnL()).StringFixed(2),
	}
}

// ExportFileName names an export by its UTC date, e.g. trades-2024-01-31.csv.
func ExportFileName(now time.Time) string {
	return "trades-" + now.UTC().Format("2006-01-02") + ".csv"
}
