package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/probablyprofit/dashsync/internal/api"
	"github.com/probablyprofit/dashsync/internal/metrics"
	"github.com/probablyprofit/dashsync/internal/poller"
)

// Action names.
const (
	Start   = "start"
	Stop    = "stop"
	SetMode = "set-mode"
	Scan    = "scan"
)

// Names lists every action in a stable order.
var Names = []string{Start, Stop, SetMode, Scan}

var (
	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("action already in flight")

	ErrUnknownAction = errors.New("unknown action")
)

// Controller performs the agent control calls.
type Controller interface {
	Start(ctx context.Context) (api.Ack, error)
	Stop(ctx context.Context) (api.Ack, error)
	SetDryRun(ctx context.Context, enabled bool) (api.Ack, error)
}

// Scanner triggers an arbitrage scan.
type Scanner interface {
	ScanArbitrage(ctx context.Context) (*api.ArbitrageResponse, error)
}

// ArbitrageCache is the poller that owns the arbitrage snapshot.
type ArbitrageCache interface {
	Exec(ctx context.Context, produce func(context.Context) (api.ArbitrageResponse, error)) (poller.Snapshot[api.ArbitrageResponse], error)
}

// guard is a busy flag held for the duration of one call.
type guard struct {
	sem  *semaphore.Weighted
	busy atomic.Bool
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) {
		if logger != nil {
			inv.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(inv *Invoker) {
		inv.metrics = m
	}
}

// Invoker fires one-shot control calls.
type Invoker struct {
	ctl     Controller
	scanner Scanner
	cache   ArbitrageCache

	guards  map[string]*guard
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewInvoker creates an Invoker. cache may be nil, in which case Scan
// returns the scan result without caching it.
func NewInvoker(ctl Controller, scanner Scanner, cache ArbitrageCache, opts ...Option) *Invoker {
	inv := &Invoker{
		ctl:     ctl,
		scanner: scanner,
		cache:   cache,
		guards:  make(map[string]*guard, len(Names)),
		logger:  slog.Default(),
	}
	for _, name := range Names {
		inv.guards[name] = &guard{sem: semaphore.NewWeighted(1)}
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Busy reports whether the named action is in flight.
func (inv *Invoker) Busy(name string) bool {
	g, ok := inv.guards[name]
	return ok && g.busy.Load()
}

// Invoke runs call while holding the named action's guard. If the action is
// already in flight, call is not run and ErrBusy is returned. The guard is
// released on every exit path, including a panic in call.
func (inv *Invoker) Invoke(ctx context.Context, name string, call func(ctx context.Context) error) error {
	g, ok := inv.guards[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	if !g.sem.TryAcquire(1) {
		inv.metrics.ObserveAction(name, metrics.ResultBusy)
		inv.logger.Debug("action skipped, already in flight", "action", name)
		return ErrBusy
	}
	g.busy.Store(true)
	defer func() {
		g.busy.Store(false)
		g.sem.Release(1)
	}()

	requestID := uuid.NewString()
	ctx = api.WithRequestID(ctx, requestID)

	start := time.Now()
	err := call(ctx)

	if err != nil {
		inv.metrics.ObserveAction(name, metrics.ResultError)
		inv.logger.Warn("action failed",
			"action", name,
			"request_id", requestID,
			"duration", time.Since(start),
			"status_code", api.StatusCode(err), // 0 when no response arrived
			"err", err,
		)
		return err
	}

	inv.metrics.ObserveAction(name, metrics.ResultOK)
	inv.logger.Info("action completed",
		"action", name,
		"request_id", requestID,
		"duration", time.Since(start),
	)
	return nil
}

// StartAgent asks the agent to start trading.
func (inv *Invoker) StartAgent(ctx context.Context) error {
	return inv.Invoke(ctx, Start, func(ctx context.Context) error {
		_, err := inv.ctl.Start(ctx)
		return err
	})
}

// StopAgent asks the agent to stop trading.
func (inv *Invoker) StopAgent(ctx context.Context) error {
	return inv.Invoke(ctx, Stop, func(ctx context.Context) error {
		_, err := inv.ctl.Stop(ctx)
		return err
	})
}

// SetDryRun switches the agent's trading mode.
func (inv *Invoker) SetDryRun(ctx context.Context, enabled bool) error {
	return inv.Invoke(ctx, SetMode, func(ctx context.Context) error {
		_, err := inv.ctl.SetDryRun(ctx, enabled)
		return err
	})
}

// Scan runs an arbitrage scan and stores the result in the arbitrage cache.
// The returned snapshot is the cache state afterwards.
func (inv *Invoker) Scan(ctx context.Context) (poller.Snapshot[api.ArbitrageResponse], error) {
	var snap poller.Snapshot[api.ArbitrageResponse]

	scan := func(ctx context.Context) (api.ArbitrageResponse, error) {
		resp, err := inv.scanner.ScanArbitrage(ctx)
		if err != nil {
			return api.ArbitrageResponse{}, err
		}
		return *resp, nil
	}

	err := inv.Invoke(ctx, Scan, func(ctx context.Context) error {
		if inv.cache == nil {
			v, err := scan(ctx)
			if err != nil {
				return err
			}
			snap = poller.Snapshot[api.ArbitrageResponse]{Value: v, HasValue: true, FetchedAt: time.Now()}
			return nil
		}

		var err error
		snap, err = inv.cache.Exec(ctx, scan)
		return err
	})

	return snap, err
}
