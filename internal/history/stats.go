package history

import "github.com/shopspring/decimal"

// Stats are aggregate figures over a pipeline result.
type Stats struct {
	Total       int
	Wins        int
	Losses      int
	WinRate     float64 // percent, 0 when Total is 0
	TotalPnL    decimal.Decimal
	TotalVolume decimal.Decimal // sum of size * price
}

// ComputeStats aggregates records. Absent P&L counts as zero.
func ComputeStats(records []TradeRecord) Stats {
	s := Stats{
		Total:       len(records),
		TotalPnL:    decimal.Zero,
		TotalVolume: decimal.Zero,
	}

	for _, r := range records {
		pnl := r.PnL()
		switch {
		case pnl > 0:
			s.Wins++
		case pnl < 0:
			s.Losses++
		}

		s.TotalPnL = s.TotalPnL.Add(decimal.NewFromFloat(pnl))
		s.TotalVolume = s.TotalVolume.Add(
			decimal.NewFromFloat(r.Size).Mul(decimal.NewFromFloat(r.Price)),
		)
	}

	if s.Total > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Total) * 100
	}

	return s
}
