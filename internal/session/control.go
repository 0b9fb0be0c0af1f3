package session

import (
	"context"

	"github.com/probablyprofit/dashsync/internal/api"
	"github.com/probablyprofit/dashsync/internal/poller"
)

// StartAgent starts the agent and then refreshes the status snapshot.
func (s *Session) StartAgent(ctx context.Context) error {
	return s.control(ctx, s.invoker.StartAgent)
}

// StopAgent stops the agent and then refreshes the status snapshot.
func (s *Session) StopAgent(ctx context.Context) error {
	return s.control(ctx, s.invoker.StopAgent)
}

// SetDryRun switches dry-run mode and then refreshes the status snapshot.
func (s *Session) SetDryRun(ctx context.Context, enabled bool) error {
	return s.control(ctx, func(ctx context.Context) error {
		return s.invoker.SetDryRun(ctx, enabled)
	})
}

// Scan runs an arbitrage scan. The result lands in the arbitrage snapshot,
// which is returned.
func (s *Session) Scan(ctx context.Context) (poller.Snapshot[api.ArbitrageResponse], error) {
	return s.invoker.Scan(ctx)
}

// control runs an action and refreshes status on success. A failed action
// leaves every snapshot untouched.
func (s *Session) control(ctx context.Context, invoke func(context.Context) error) error {
	if err := invoke(ctx); err != nil {
		return err
	}
	if err := s.Status.Refresh(ctx); err != nil {
		s.logger.Debug("status refresh skipped", "err", err)
	}
	return nil
}
