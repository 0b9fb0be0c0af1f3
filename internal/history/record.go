package history

import "time"

// TradeRecord is a read-only projection of an executed trade.
type TradeRecord struct {
	ID          string
	Timestamp   time.Time
	MarketID    string
	MarketName  string
	Side        string
	Outcome     string
	Size        float64
	Price       float64
	RealizedPnL *float64 // nil while the position is still open
}

// Market returns the display name, falling back to the market id.
func (r TradeRecord) Market() string {
	if r.MarketName != "" {
		return r.MarketName
	}
	return r.MarketID
}

// PnL returns the realized P&L, treating an absent value as zero.
func (r TradeRecord) PnL() float64 {
	if r.RealizedPnL == nil {
		return 0
	}
	return *r.RealizedPnL
}
