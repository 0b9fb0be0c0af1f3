package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/probablyprofit/dashsync/internal/action"
	"github.com/probablyprofit/dashsync/internal/api"
	"github.com/probablyprofit/dashsync/internal/config"
	"github.com/probablyprofit/dashsync/internal/dashboard"
	"github.com/probablyprofit/dashsync/internal/history"
	"github.com/probablyprofit/dashsync/internal/live"
	"github.com/probablyprofit/dashsync/internal/metrics"
	"github.com/probablyprofit/dashsync/internal/poller"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrStopped        = errors.New("session stopped")
)

// Resource names used for pollers, logs and metrics.
const (
	ResourceStatus      = "status"
	ResourcePerformance = "performance"
	ResourceExposure    = "exposure"
	ResourcePositions   = "positions"
	ResourceTrades      = "trades"
	ResourceArbitrage   = "arbitrage"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	clock         clockwork.Clock
	httpClient    *http.Client
	capitalPoints int
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink shared by every component.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock sets the clock driving the pollers.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithCapitalPoints sets how many portfolio values are kept.
func WithCapitalPoints(n int) Option {
	return func(o *options) {
		o.capitalPoints = n
	}
}

// Session is the explicit context object shared by every consumer view.
type Session struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	client  *api.Client
	invoker *action.Invoker
	live    *live.Channel // nil when disabled
	capital *dashboard.CapitalHistory

	Status      *poller.Poller[api.StatusResponse]
	Performance *poller.Poller[api.PerformanceResponse]
	Exposure    *poller.Poller[api.ExposureResponse]
	Positions   *poller.Poller[[]api.Position]
	TradeLog    *poller.Poller[[]api.Trade]
	Arbitrage   *poller.Poller[api.ArbitrageResponse]

	mu      sync.Mutex
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a stopped Session from cfg. cfg must have defaults applied.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	o := options{
		logger: slog.Default(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	clientOpts := []api.ClientOption{
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(o.logger),
		api.WithAPIKey(cfg.API.APIKey),
		api.WithBasePath(cfg.API.BasePath),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	client := api.NewClient(cfg.API.BaseURL, clientOpts...)

	s := &Session{
		cfg:     cfg,
		logger:  o.logger,
		metrics: o.metrics,
		client:  client,
		capital: dashboard.NewCapitalHistory(o.capitalPoints),
	}

	popts := []poller.Option{
		poller.WithClock(o.clock),
		poller.WithLogger(o.logger),
		poller.WithMetrics(o.metrics),
	}
	timeout := cfg.API.Timeout

	s.Status = poller.New(poller.Config[api.StatusResponse]{
		Name:     ResourceStatus,
		Endpoint: api.PathStatus,
		Interval: config.Interval(cfg.Poll.Status),
		Timeout:  timeout,
		Decode:   api.DecodeStatus,
	}, client, popts...)
	s.Performance = poller.New(poller.Config[api.PerformanceResponse]{
		Name:     ResourcePerformance,
		Endpoint: api.PathPerformance,
		Interval: config.Interval(cfg.Poll.Performance),
		Timeout:  timeout,
		Decode:   api.DecodePerformance,
	}, client, popts...)
	s.Exposure = poller.New(poller.Config[api.ExposureResponse]{
		Name:     ResourceExposure,
		Endpoint: api.PathExposure,
		Interval: config.Interval(cfg.Poll.Exposure),
		Timeout:  timeout,
		Decode:   api.DecodeExposure,
	}, client, popts...)
	s.Positions = poller.New(poller.Config[[]api.Position]{
		Name:     ResourcePositions,
		Endpoint: api.PathPositions,
		Interval: config.Interval(cfg.Poll.Positions),
		Timeout:  timeout,
		Decode:   api.DecodePositions,
	}, client, popts...)
	s.TradeLog = poller.New(poller.Config[[]api.Trade]{
		Name:     ResourceTrades,
		Endpoint: api.TradesEndpoint(cfg.Poll.TradesLimit),
		Interval: config.Interval(cfg.Poll.Trades),
		Timeout:  timeout,
		Decode:   api.DecodeTrades,
	}, client, popts...)
	s.Arbitrage = poller.New(poller.Config[api.ArbitrageResponse]{
		Name:     ResourceArbitrage,
		Endpoint: api.PathArbitrage,
		Interval: config.Interval(cfg.Poll.Arbitrage),
		Timeout:  timeout,
		Decode:   api.DecodeArbitrage,
	}, client, popts...)

	s.invoker = action.NewInvoker(client, client, s.Arbitrage,
		action.WithLogger(o.logger),
		action.WithMetrics(o.metrics),
	)

	if !cfg.Live.Disabled {
		wsURL, err := client.WebSocketURL(cfg.API.WSPath)
		if err != nil {
			return nil, fmt.Errorf("push channel url: %w", err)
		}
		s.live = live.New(liveConfig(cfg, wsURL),
			live.WithLogger(o.logger.With("component", "live")),
			live.WithMetrics(o.metrics),
		)
	}

	return s, nil
}

func liveConfig(cfg *config.Config, url string) live.Config {
	lc := live.DefaultConfig()
	lc.URL = url
	lc.APIKey = cfg.API.APIKey
	lc.HandshakeTimeout = cfg.Live.HandshakeTimeout
	lc.PingInterval = cfg.Live.PingInterval
	lc.PongTimeout = cfg.Live.PongTimeout
	lc.Reconnect = live.Reconnect{
		Enabled:     cfg.Live.Reconnect.Enabled,
		BaseDelay:   cfg.Live.Reconnect.BaseDelay,
		MaxDelay:    cfg.Live.Reconnect.MaxDelay,
		MaxAttempts: cfg.Live.Reconnect.MaxAttempts,
	}
	return lc
}

// pollers returns every poller as a lifecycle handle.
func (s *Session) pollers() []lifecycle {
	return []lifecycle{s.Status, s.Performance, s.Exposure, s.Positions, s.TradeLog, s.Arbitrage}
}

type lifecycle interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Start begins polling every resource and connects the push channel in the
// background.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	for _, p := range s.pollers() {
		if err := p.Start(s.ctx); err != nil {
			return fmt.Errorf("start %s poller: %w", p.Name(), err)
		}
	}

	s.wg.Add(1)
	go s.watchCapital()

	if s.live != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			// A failure is reflected in the channel status only.
			if err := s.live.Connect(s.ctx); err != nil {
				s.logger.Warn("push channel unavailable", "err", err)
			}
		}()
	}

	s.logger.Info("session started", "base_url", s.client.BaseURL())
	return nil
}

// Stop closes the push channel and stops every poller. It is safe to call
// more than once.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	var errs []error
	if s.live != nil {
		if err := s.live.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close push channel: %w", err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range s.pollers() {
		g.Go(func() error {
			if err := p.Stop(gctx); err != nil {
				return fmt.Errorf("stop %s poller: %w", p.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.logger.Info("session stopped")
	return errors.Join(errs...)
}

// watchCapital appends every new performance value to the capital history.
func (s *Session) watchCapital() {
	defer s.wg.Done()

	var last uint64
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.Performance.Changes():
			snap := s.Performance.Snapshot()
			if snap.Seq <= last || snap.Err != "" || !snap.HasValue {
				continue
			}
			last = snap.Seq
			s.capital.Record(snap.FetchedAt, snap.Value)
		}
	}
}

// Client returns the API client.
func (s *Session) Client() *api.Client {
	return s.client
}

// Invoker returns the action invoker.
func (s *Session) Invoker() *action.Invoker {
	return s.invoker
}

// Live returns the push channel, or nil when it is disabled.
func (s *Session) Live() *live.Channel {
	return s.live
}

// LiveStatus returns the push channel status. A disabled channel reports
// closed.
func (s *Session) LiveStatus() live.Status {
	if s.live == nil {
		return live.Status{State: live.StateClosed}
	}
	return s.live.Snapshot()
}

// Capital returns the portfolio value history, oldest first.
func (s *Session) Capital() []dashboard.CapitalPoint {
	return s.capital.Points()
}

// Trades converts the trades snapshot to history records.
func (s *Session) Trades() []history.TradeRecord {
	return api.ToRecords(s.TradeLog.Snapshot().Value)
}
