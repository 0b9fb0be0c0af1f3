package session

import (
	"github.com/probablyprofit/dashsync/internal/action"
	"github.com/probablyprofit/dashsync/internal/api"
	"github.com/probablyprofit/dashsync/internal/dashboard"
	"github.com/probablyprofit/dashsync/internal/live"
	"github.com/probablyprofit/dashsync/internal/poller"
)

// View is a point-in-time copy of every read model.
type View struct {
	Status      poller.Snapshot[api.StatusResponse]      `json:"status"`
	Performance poller.Snapshot[api.PerformanceResponse] `json:"performance"`
	Exposure    poller.Snapshot[api.ExposureResponse]    `json:"exposure"`
	Positions   poller.Snapshot[[]api.Position]          `json:"positions"`
	Trades      poller.Snapshot[[]api.Trade]             `json:"trades"`
	Arbitrage   poller.Snapshot[api.ArbitrageResponse]   `json:"arbitrage"`
	Live        live.Status                              `json:"live"`
	Capital     []dashboard.CapitalPoint                 `json:"capital"`
	CapitalRing dashboard.RingStats                      `json:"capital_ring"`
	Summary     Summary                                  `json:"summary"`
	Busy        map[string]bool                          `json:"busy"`
}

// Summary holds the figures derived from the snapshots.
type Summary struct {
	Uptime    string              `json:"uptime"`
	Capital   float64             `json:"capital"` // newest charted value, 0 before the first sample
	Arbitrage dashboard.Arbitrage `json:"arbitrage"`
	PnLPct    map[string]float64  `json:"position_pnl_pct"` // keyed by market_id/outcome
}

// View returns copies of every snapshot and the derived figures.
func (s *Session) View() View {
	v := View{
		Status:      s.Status.Snapshot(),
		Performance: s.Performance.Snapshot(),
		Exposure:    s.Exposure.Snapshot(),
		Positions:   s.Positions.Snapshot(),
		Trades:      s.TradeLog.Snapshot(),
		Arbitrage:   s.Arbitrage.Snapshot(),
		Live:        s.LiveStatus(),
		Capital:     s.capital.Points(),
		CapitalRing: s.capital.Stats(),
		Busy:        make(map[string]bool),
	}

	for _, name := range action.Names {
		v.Busy[name] = s.invoker.Busy(name)
	}

	v.Summary.Uptime = dashboard.FormatUptime(v.Status.Value.UptimeSeconds)
	if p, ok := s.capital.Latest(); ok {
		v.Summary.Capital = p.Value
	}
	v.Summary.Arbitrage = dashboard.ArbitrageSummary(v.Arbitrage.Value)
	v.Summary.PnLPct = make(map[string]float64, len(v.Positions.Value))
	for _, p := range v.Positions.Value {
		v.Summary.PnLPct[p.MarketID+"/"+p.Outcome] = dashboard.PositionPnLPct(p)
	}

	return v
}
