package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/probablyprofit/dashsync/internal/action"
	"github.com/probablyprofit/dashsync/internal/api"
	"github.com/probablyprofit/dashsync/internal/dashboard"
)

func runControl(ctx context.Context, e *env, args []string) error {
	return control(ctx, newClient(e), e, args, e.stdout)
}

func newClient(e *env) *api.Client {
	return api.NewClient(e.cfg.API.BaseURL,
		api.WithTimeout(e.cfg.API.Timeout),
		api.WithLogger(e.logger),
		api.WithAPIKey(e.cfg.API.APIKey),
		api.WithBasePath(e.cfg.API.BasePath),
	)
}

func control(ctx context.Context, client *api.Client, e *env, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("control: missing action (start, stop, dry-run <bool>, scan)")
	}

	inv := action.NewInvoker(client, client, nil, action.WithLogger(e.logger))

	switch args[0] {
	case "start":
		if err := inv.StartAgent(ctx); err != nil {
			return err
		}
	case "stop":
		if err := inv.StopAgent(ctx); err != nil {
			return err
		}
	case "dry-run":
		if len(args) < 2 {
			return errors.New("control: dry-run needs true or false")
		}
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("control: dry-run value: %w", err)
		}
		if err := inv.SetDryRun(ctx, enabled); err != nil {
			return err
		}
	case "scan":
		snap, err := inv.Scan(ctx)
		if err != nil {
			return err
		}
		sum := dashboard.ArbitrageSummary(snap.Value)
		fmt.Fprintf(out, "opportunities=%d matched_pairs=%d best_profit=%.1f%% avg_confidence=%.0f%%\n",
			sum.Count, snap.Value.MatchedPairsCount, sum.BestProfitPct*100, sum.AvgConfidence*100)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Value.Opportunities)
	default:
		return fmt.Errorf("control: %w %q", action.ErrUnknownAction, args[0])
	}

	status, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "running=%t dry_run=%t uptime=%s\n",
		status.Running, status.DryRun, dashboard.FormatUptime(status.UptimeSeconds))
	return nil
}
