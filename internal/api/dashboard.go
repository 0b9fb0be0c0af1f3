package api

import (
	"context"
	"fmt"
)

// GetStatus fetches the agent status.
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	resp, err := get[StatusResponse](ctx, c, PathStatus)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return resp, nil
}

// GetPerformance fetches capital and return figures.
func (c *Client) GetPerformance(ctx context.Context) (*PerformanceResponse, error) {
	resp, err := get[PerformanceResponse](ctx, c, PathPerformance)
	if err != nil {
		return nil, fmt.Errorf("get performance: %w", err)
	}
	return resp, nil
}

// GetExposure fetches the risk exposure report.
func (c *Client) GetExposure(ctx context.Context) (*ExposureResponse, error) {
	resp, err := get[ExposureResponse](ctx, c, PathExposure)
	if err != nil {
		return nil, fmt.Errorf("get exposure: %w", err)
	}
	return resp, nil
}

// GetPositions fetches open positions.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	resp, err := get[[]Position](ctx, c, PathPositions)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return *resp, nil
}

// GetTrades fetches the most recent trades. limit <= 0 uses the server default.
func (c *Client) GetTrades(ctx context.Context, limit int) ([]Trade, error) {
	resp, err := get[[]Trade](ctx, c, TradesEndpoint(limit))
	if err != nil {
		return nil, fmt.Errorf("get trades: %w", err)
	}
	return *resp, nil
}

// GetArbitrage fetches the cached arbitrage scan.
func (c *Client) GetArbitrage(ctx context.Context) (*ArbitrageResponse, error) {
	resp, err := get[ArbitrageResponse](ctx, c, PathArbitrage)
	if err != nil {
		return nil, fmt.Errorf("get arbitrage: %w", err)
	}
	return resp, nil
}
