package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/probablyprofit/dashsync/internal/metrics"
)

var (
	ErrAlreadyStarted = errors.New("poller already started")
	ErrNotStarted     = errors.New("poller not started")
	ErrStopped        = errors.New("poller stopped")

	// ErrStaleWrite marks a response that was not applied because a newer
	// one had been applied or the poller was stopped. It is only logged.
	ErrStaleWrite = errors.New("stale write prevented")
)

// Fetcher performs a GET against an endpoint and returns the raw body.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]byte, error)
}

// FetcherFunc is a function adapter for Fetcher.
type FetcherFunc func(ctx context.Context, endpoint string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	return f(ctx, endpoint)
}

// Config holds poller configuration. It is not modified after New.
type Config[T any] struct {
	Name     string                  // resource name used in logs and metrics
	Endpoint string                  // passed to Fetcher.Fetch
	Interval time.Duration           // 0 fetches once on Start and never re-polls
	Timeout  time.Duration           // per-fetch timeout, 0 for none
	Decode   func([]byte) (T, error) // nil decodes the body as JSON
}

// Option configures a Poller.
type Option func(*options)

type options struct {
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithClock sets the clock driving the ticker.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Poller keeps a Snapshot of one resource up to date.
type Poller[T any] struct {
	cfg     Config[T]
	fetcher Fetcher
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	snap       Snapshot[T]
	dispatched uint64
	applied    uint64
	started    bool
	stopped    bool
	changes    chan struct{}

	ticker clockwork.Ticker
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New[T any](cfg Config[T], fetcher Fetcher, opts ...Option) *Poller[T] {
	o := options{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if cfg.Decode == nil {
		cfg.Decode = decodeJSON[T]
	}

	return &Poller[T]{
		cfg:     cfg,
		fetcher: fetcher,
		clock:   o.clock,
		logger:  o.logger.With("resource", cfg.Name),
		metrics: o.metrics,
		changes: make(chan struct{}, 1),
	}
}

func decodeJSON[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}

// Name returns the resource name.
func (p *Poller[T]) Name() string {
	return p.cfg.Name
}

// Start begins the polling loop. The first fetch is issued immediately.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.snap.Loading = true
	p.ctx, p.cancel = context.WithCancel(ctx)

	// Created before the first fetch so ticks keep the phase of Start.
	if p.cfg.Interval > 0 {
		p.ticker = p.clock.NewTicker(p.cfg.Interval)
	}
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started",
		"endpoint", p.cfg.Endpoint,
		"interval", p.cfg.Interval,
	)

	return nil
}

// Stop shuts down the poller. Once Stop has begun, no response is applied,
// whether it comes from the loop, Refresh or Exec.
func (p *Poller[T]) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller[T]) run() {
	defer p.wg.Done()

	if p.ticker == nil {
		p.fetch(p.ctx)
		return
	}
	defer p.ticker.Stop()

	// Poll immediately on start.
	p.fetch(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.ticker.Chan():
			p.fetch(p.ctx)
		}
	}
}

// Refresh fetches immediately on the caller's goroutine without touching the
// ticker. The outcome is written to the snapshot like a scheduled fetch.
// Only lifecycle errors are returned.
func (p *Poller[T]) Refresh(ctx context.Context) error {
	pctx, err := p.lifetime()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(pctx, cancel)
	defer stop()

	p.fetch(ctx)
	return nil
}

// Exec runs produce through the same sequencing as a fetch and applies its
// value on success. An error from produce is returned unchanged and is not
// written to the snapshot. The returned snapshot is the state after Exec,
// which may hold a newer value if one was applied meanwhile.
func (p *Poller[T]) Exec(ctx context.Context, produce func(context.Context) (T, error)) (Snapshot[T], error) {
	pctx, err := p.lifetime()
	if err != nil {
		return Snapshot[T]{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(pctx, cancel)
	defer stop()

	seq, ok := p.dispatch()
	if !ok {
		return Snapshot[T]{}, ErrStopped
	}

	v, err := produce(ctx)
	if err != nil {
		return p.Snapshot(), err
	}

	if !p.apply(seq, v, nil) && p.isStopped() {
		return Snapshot[T]{}, ErrStopped
	}
	return p.Snapshot(), nil
}

// Snapshot returns a copy of the current snapshot. Reference-typed values
// inside Value are shared and must be treated as read-only.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Changes signals after every applied update. Signals coalesce: a reader
// that falls behind sees one pending signal, not one per update.
func (p *Poller[T]) Changes() <-chan struct{} {
	return p.changes
}

func (p *Poller[T]) lifetime() (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil, ErrStopped
	}
	if !p.started {
		return nil, ErrNotStarted
	}
	return p.ctx, nil
}

func (p *Poller[T]) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// fetch performs one request and applies its outcome.
func (p *Poller[T]) fetch(ctx context.Context) {
	seq, ok := p.dispatch()
	if !ok {
		return
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := p.clock.Now()
	var v T
	body, err := p.fetcher.Fetch(ctx, p.cfg.Endpoint)
	if err == nil {
		v, err = p.cfg.Decode(body)
	}
	p.metrics.ObserveFetch(p.cfg.Name, err, p.clock.Since(start))

	if err != nil && !p.isStopped() {
		p.logger.Warn("failed to poll resource",
			"seq", seq,
			"err", err,
		)
	}

	p.apply(seq, v, err)
}

// dispatch reserves the next sequence number.
func (p *Poller[T]) dispatch() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return 0, false
	}
	p.dispatched++
	return p.dispatched, true
}

// apply writes a completed request's outcome if it is still current.
// Reports whether the snapshot changed.
func (p *Poller[T]) apply(seq uint64, v T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || seq <= p.applied {
		p.metrics.StaleDiscarded(p.cfg.Name)
		p.logger.Debug("discarded response",
			"seq", seq,
			"applied", p.applied,
			"stopped", p.stopped,
			"err", ErrStaleWrite,
		)
		return false
	}

	p.applied = seq
	p.snap.Seq = seq
	p.snap.Loading = false
	if err != nil {
		p.snap.Err = err.Error()
	} else {
		p.snap.Value = v
		p.snap.HasValue = true
		p.snap.Err = ""
		p.snap.FetchedAt = p.clock.Now()
	}

	select {
	case p.changes <- struct{}{}:
	default:
	}
	return true
}
