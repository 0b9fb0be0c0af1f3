package api

import (
	"context"
	"fmt"
	"strconv"
)

// Start asks the agent to start trading.
func (c *Client) Start(ctx context.Context) (Ack, error) {
	resp, err := post[Ack](ctx, c, PathControlStart)
	if err != nil {
		return nil, fmt.Errorf("start agent: %w", err)
	}
	return *resp, nil
}

// Stop asks the agent to stop trading.
func (c *Client) Stop(ctx context.Context) (Ack, error) {
	resp, err := post[Ack](ctx, c, PathControlStop)
	if err != nil {
		return nil, fmt.Errorf("stop agent: %w", err)
	}
	return *resp, nil
}

// SetDryRun switches the agent between dry-run and live trading.
func (c *Client) SetDryRun(ctx context.Context, enabled bool) (Ack, error) {
	resp, err := post[Ack](ctx, c, PathControlDryRun+strconv.FormatBool(enabled))
	if err != nil {
		return nil, fmt.Errorf("set dry run %t: %w", enabled, err)
	}
	return *resp, nil
}

// ScanArbitrage runs a fresh scan and returns its result.
func (c *Client) ScanArbitrage(ctx context.Context) (*ArbitrageResponse, error) {
	resp, err := post[ArbitrageResponse](ctx, c, PathArbitrageScan)
	if err != nil {
		return nil, fmt.Errorf("scan arbitrage: %w", err)
	}
	return resp, nil
}
