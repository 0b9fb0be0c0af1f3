package dashboard

import (
	"fmt"
	"math"

	"github.com/probablyprofit/dashsync/internal/api"
)

// Arbitrage summarizes the arbitrage cache.
type Arbitrage struct {
	Count         int     `json:"count"`
	BestProfitPct float64 `json:"best_profit_pct"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ArbitrageSummary returns the opportunity count, the best net profit and the
// mean confidence. Both figures are 0 when there are no opportunities.
func ArbitrageSummary(resp api.ArbitrageResponse) Arbitrage {
	opps := resp.Opportunities
	if len(opps) == 0 {
		return Arbitrage{}
	}

	best := math.Inf(-1)
	var conf float64
	for _, o := range opps {
		best = max(best, o.NetProfitPct)
		conf += o.Confidence
	}

	return Arbitrage{
		Count:         len(opps),
		BestProfitPct: best,
		AvgConfidence: conf / float64(len(opps)),
	}
}

// PositionPnLPct returns the price move of a position relative to its average
// entry price, in percent. It is 0 when the entry price is not positive.
func PositionPnLPct(p api.Position) float64 {
	if p.AvgPrice <= 0 {
		return 0
	}
	return (p.CurrentPrice - p.AvgPrice) / p.AvgPrice * 100
}

// FormatUptime renders seconds as "Xh Ym".
func FormatUptime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
}
