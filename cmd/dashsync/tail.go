package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/probablyprofit/dashsync/internal/live"
)

func runTail(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	reconnect := fs.Bool("reconnect", e.cfg.Live.Reconnect.Enabled, "reconnect with backoff when the channel drops")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wsURL, err := newClient(e).WebSocketURL(e.cfg.API.WSPath)
	if err != nil {
		return err
	}

	cfg := live.DefaultConfig()
	cfg.URL = wsURL
	cfg.APIKey = e.cfg.API.APIKey
	cfg.HandshakeTimeout = e.cfg.Live.HandshakeTimeout
	cfg.PingInterval = e.cfg.Live.PingInterval
	cfg.PongTimeout = e.cfg.Live.PongTimeout
	cfg.Reconnect = live.Reconnect{
		Enabled:     *reconnect,
		BaseDelay:   e.cfg.Live.Reconnect.BaseDelay,
		MaxDelay:    e.cfg.Live.Reconnect.MaxDelay,
		MaxAttempts: e.cfg.Live.Reconnect.MaxAttempts,
	}

	ch := live.New(cfg, live.WithLogger(e.logger))
	defer ch.Close()

	e.logger.Info("connecting to push channel", "url", wsURL)
	if err := ch.Connect(ctx); err != nil && !*reconnect {
		return err
	}

	e.logger.Info("streaming started - press Ctrl+C to stop")
	return tail(ctx, ch, *reconnect, e.stdout)
}

// tail prints each new frame until ctx is done or the channel closes for
// good.
func tail(ctx context.Context, ch *live.Channel, reconnect bool, out io.Writer) error {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch.Changes():
			s := ch.Snapshot()
			if s.LastMessageAt.After(last) {
				last = s.LastMessageAt
				fmt.Fprintf(out, "[FRAME] %s %s\n", s.LastMessageAt.Format(time.RFC3339), s.LastMessage)
			}
			if s.State == live.StateClosed && !reconnect {
				return fmt.Errorf("push channel closed: %s", s.Err)
			}
		}
	}
}
