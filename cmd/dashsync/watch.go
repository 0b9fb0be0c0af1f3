package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/probablyprofit/dashsync/internal/live"
	"github.com/probablyprofit/dashsync/internal/metrics"
	"github.com/probablyprofit/dashsync/internal/session"
	"github.com/probablyprofit/dashsync/internal/version"
)

func runWatch(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	addr := fs.String("addr", fmt.Sprintf(":%d", e.cfg.Metrics.Port), "listen address for health and metrics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sess, err := session.New(e.cfg, session.WithLogger(e.logger), session.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	logger := e.logger
	logger.Info("starting dashsync",
		"version", version.Version,
		"commit", version.Commit,
		"api_url", e.cfg.API.BaseURL,
	)

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	mux := newHandler(sess, reg, e.cfg.Metrics.Path)
	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting health server", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logChanges(gctx, sess, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		logger.Info("shutting down...")
		server.Shutdown(shutdownCtx)
		return sess.Stop(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("dashsync stopped")
	return err
}

// logChanges logs a line whenever a snapshot or the push channel changes.
func logChanges(ctx context.Context, sess *session.Session, logger *slog.Logger) {
	var liveChanges <-chan struct{}
	if ch := sess.Live(); ch != nil {
		liveChanges = ch.Changes()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Status.Changes():
			s := sess.Status.Snapshot()
			logger.Info("status updated",
				"running", s.Value.Running,
				"dry_run", s.Value.DryRun,
				"loop_count", s.Value.LoopCount,
				"error", s.Err,
			)
		case <-sess.Performance.Changes():
			s := sess.Performance.Snapshot()
			logger.Info("performance updated",
				"capital", s.Value.CurrentCapital,
				"daily_pnl", s.Value.DailyPnL,
				"error", s.Err,
			)
		case <-sess.Exposure.Changes():
			s := sess.Exposure.Snapshot()
			logger.Debug("exposure updated", "total", s.Value.TotalExposure, "warnings", len(s.Value.Warnings), "error", s.Err)
		case <-sess.Positions.Changes():
			s := sess.Positions.Snapshot()
			logger.Debug("positions updated", "count", len(s.Value), "error", s.Err)
		case <-sess.TradeLog.Changes():
			s := sess.TradeLog.Snapshot()
			logger.Debug("trades updated", "count", len(s.Value), "error", s.Err)
		case <-sess.Arbitrage.Changes():
			s := sess.Arbitrage.Snapshot()
			logger.Debug("arbitrage updated", "opportunities", len(s.Value.Opportunities), "error", s.Err)
		case <-liveChanges:
			s := sess.LiveStatus()
			if s.State == live.StateOpen && s.LastMessage != nil {
				logger.Debug("push frame", "bytes", len(s.LastMessage))
				continue
			}
			logger.Info("push channel", "state", s.State, "error", s.Err)
		}
	}
}

// newHandler creates the HTTP handler for health checks, snapshots and metrics.
func newHandler(sess *session.Session, reg *prometheus.Registry, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		v := sess.View()

		health := struct {
			Status     string         `json:"status"`
			Version    version.Info   `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Components: make(map[string]any),
		}

		// The agent API is reachable when status polls succeed.
		switch {
		case !v.Status.HasValue && v.Status.Err != "":
			health.Status = "unhealthy"
			health.Components["api"] = map[string]string{"status": "unreachable", "error": v.Status.Err}
		case v.Status.Stale():
			health.Status = "degraded"
			health.Components["api"] = map[string]string{"status": "stale", "error": v.Status.Err}
		default:
			health.Components["api"] = "ok"
		}

		health.Components["push_channel"] = map[string]any{
			"state":     v.Live.State,
			"connected": v.Live.Connected,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/snapshots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sess.View())
	})

	if reg != nil {
		mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	return mux
}
