package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Endpoint paths relative to the base path.
const (
	PathStatus        = "/status"
	PathPerformance   = "/performance"
	PathExposure      = "/exposure"
	PathPositions     = "/positions"
	PathTrades        = "/trades"
	PathArbitrage     = "/arbitrage"
	PathArbitrageScan = "/arbitrage/scan"
	PathControlStart  = "/control/start"
	PathControlStop   = "/control/stop"
	PathControlDryRun = "/control/dry-run/"
)

// TradesEndpoint returns the trades path with a limit query.
func TradesEndpoint(limit int) string {
	if limit <= 0 {
		return PathTrades
	}
	return PathTrades + "?limit=" + strconv.Itoa(limit)
}

// StatusResponse from GET /status
type StatusResponse struct {
	Running         bool    `json:"running"`
	AgentType       string  `json:"agent_type"`
	AgentName       string  `json:"agent_name"`
	Strategy        string  `json:"strategy"`
	DryRun          bool    `json:"dry_run"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	PositionsCount  int     `json:"positions_count"`
	LoopCount       int     `json:"loop_count"`
	LastObservation *string `json:"last_observation"`
}

// PerformanceResponse from GET /performance
type PerformanceResponse struct {
	CurrentCapital float64 `json:"current_capital"`
	InitialCapital float64 `json:"initial_capital"`
	DailyPnL       float64 `json:"daily_pnl"`
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	WinRate        float64 `json:"win_rate"`
	TotalTrades    int     `json:"total_trades"`
}

// RiskMetrics is the risk block of /exposure.
type RiskMetrics struct {
	ExposurePct        float64 `json:"exposure_pct"`
	DailyLossLimitUsed float64 `json:"daily_loss_limit_used"`
}

// CorrelationGroup is a set of correlated positions.
type CorrelationGroup struct {
	GroupName      string  `json:"group_name"`
	RiskLevel      string  `json:"risk_level"`
	TotalExposure  float64 `json:"total_exposure"`
	PositionsCount int     `json:"positions_count"`
}

// ExposureResponse from GET /exposure
type ExposureResponse struct {
	RiskMetrics        RiskMetrics        `json:"risk_metrics"`
	Warnings           []string           `json:"warnings"`
	CorrelationGroups  []CorrelationGroup `json:"correlation_groups"`
	ExposureByCategory map[string]float64 `json:"exposure_by_category"`
	CashBalance        float64            `json:"cash_balance"`
	TotalExposure      float64            `json:"total_exposure"`
}

// Position from GET /positions
type Position struct {
	MarketID     string  `json:"market_id"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentPrice float64 `json:"current_price"`
	PnL          float64 `json:"pnl"`
}

// Trade from GET /trades
type Trade struct {
	ID          TradeID  `json:"id"`
	Timestamp   string   `json:"timestamp"` // ISO 8601
	MarketID    string   `json:"market_id"`
	MarketName  string   `json:"market_name"`
	Side        string   `json:"side"`
	Outcome     string   `json:"outcome"`
	Size        float64  `json:"size"`
	Price       float64  `json:"price"`
	RealizedPnL *float64 `json:"realized_pnl"`
}

// TradeID accepts both JSON strings and numbers.
type TradeID string

func (id *TradeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TradeID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("trade id: %w", err)
	}
	*id = TradeID(n.String())
	return nil
}

// ArbitrageOpportunity is one matched cross-platform opportunity.
type ArbitrageOpportunity struct {
	NetProfitPct       float64 `json:"net_profit_pct"`
	Confidence         float64 `json:"confidence"`
	PolymarketQuestion string  `json:"polymarket_question"`
	BuySide            string  `json:"buy_side"`
	BuyPlatform        string  `json:"buy_platform"`
	BuyPrice           float64 `json:"buy_price"`
	SellSide           string  `json:"sell_side"`
	SellPlatform       string  `json:"sell_platform"`
	SellPrice          float64 `json:"sell_price"`
	CombinedCost       float64 `json:"combined_cost"`
}

// ArbitrageResponse from GET /arbitrage and POST /arbitrage/scan
type ArbitrageResponse struct {
	Opportunities     []ArbitrageOpportunity `json:"opportunities"`
	MatchedPairsCount int                    `json:"matched_pairs_count"`
	LastScan          *string                `json:"last_scan"`
}

// Ack is the acknowledgement body of a control call.
type Ack map[string]any
