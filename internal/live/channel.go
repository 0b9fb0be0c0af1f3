package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/probablyprofit/dashsync/internal/metrics"
)

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// session is one established connection and the goroutines serving it.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
}

// Channel maintains the push connection.
type Channel struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	status   Status
	sess     *session
	lastSeen time.Time
	started  bool
	closed   bool
	changes  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Channel in the connecting state.
func New(cfg Config, opts ...Option) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		cfg:     cfg,
		logger:  slog.Default(),
		status:  Status{State: StateConnecting},
		changes: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the push endpoint once. A failure leaves the channel closed
// and is returned as a *ChannelError; with reconnect enabled, further
// attempts continue in the background.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	// Abort the dial if Close runs meanwhile.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	conn, err := c.dial(ctx)
	if err != nil {
		c.fail(nil, err)
		return &ChannelError{Err: err}
	}

	if err := c.attach(conn); err != nil {
		return err
	}
	return nil
}

// Close closes the connection and stops any reconnect attempts.
// It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sess := c.sess
	c.sess = nil
	c.status.State = StateClosed
	c.status.Connected = false
	c.notify()
	c.mu.Unlock()

	c.cancel()

	var err error
	if sess != nil {
		close(sess.done)
		sess.writeMu.Lock()
		sess.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		sess.writeMu.Unlock()
		err = sess.conn.Close()
	}

	c.wg.Wait()
	c.metrics.SetConnected(false)
	c.logger.Debug("push channel closed")

	return err
}

// Snapshot returns a copy of the current status.
func (c *Channel) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Changes signals after every status change. Signals coalesce.
func (c *Channel) Changes() <-chan struct{} {
	return c.changes
}

// notify must be called with mu held.
func (c *Channel) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	return conn, err
}

// attach makes conn the current session and starts its goroutines.
func (c *Channel) attach(conn *websocket.Conn) error {
	sess := &session{conn: conn, done: make(chan struct{})}

	// Server pings and our pongs both count as liveness.
	conn.SetPingHandler(func(data string) error {
		c.touch(sess)
		sess.writeMu.Lock()
		defer sess.writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		c.touch(sess)
		return nil
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.sess = sess
	c.lastSeen = time.Now()
	c.status.State = StateOpen
	c.status.Connected = true
	c.status.Err = ""
	c.notify()

	// Registered under mu so Close cannot reach wg.Wait before these Adds.
	c.wg.Add(1)
	go c.readLoop(sess)
	if c.cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.heartbeatLoop(sess)
	}
	c.mu.Unlock()

	c.metrics.SetConnected(true)
	c.logger.Info("push channel connected", "url", c.cfg.URL)

	return nil
}

// fail records a connection failure. sess is nil for a failed first dial;
// dial failures inside reconnectLoop are handled by the loop itself.
// It is a no-op once the channel is closed or sess has been replaced.
func (c *Channel) fail(sess *session, err error) {
	c.mu.Lock()
	if c.closed || (sess != nil && c.sess != sess) {
		c.mu.Unlock()
		return
	}
	if sess != nil {
		c.sess = nil
		close(sess.done)
	}
	c.status.State = StateClosed
	c.status.Connected = false
	c.status.Err = (&ChannelError{Err: err}).Error()
	c.notify()

	reconnect := c.cfg.Reconnect.Enabled
	if reconnect {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if sess != nil {
		sess.conn.Close()
	}

	c.metrics.SetConnected(false)
	c.logger.Warn("push channel disconnected", "err", err)

	if reconnect {
		go c.reconnectLoop()
	}
}

func (c *Channel) touch(sess *session) {
	c.mu.Lock()
	if c.sess == sess {
		c.lastSeen = time.Now()
	}
	c.mu.Unlock()
}

// readLoop reads frames until the connection fails or is closed.
func (c *Channel) readLoop(sess *session) {
	defer c.wg.Done()

	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			select {
			case <-sess.done:
				// Ignore errors after Close() or a detected stale connection.
			default:
				c.fail(sess, err)
			}
			return
		}

		c.touch(sess)

		if msgType != websocket.TextMessage || !json.Valid(data) {
			c.metrics.ObserveFrame(metrics.ResultDropped)
			c.logger.Debug("dropped malformed frame", "bytes", len(data))
			continue
		}

		c.metrics.ObserveFrame(metrics.ResultOK)

		c.mu.Lock()
		if c.sess != sess {
			c.mu.Unlock()
			return
		}
		c.status.LastMessage = json.RawMessage(data)
		c.status.LastMessageAt = time.Now()
		c.notify()
		c.mu.Unlock()
	}
}

// heartbeatLoop sends pings and detects stale connections.
func (c *Channel) heartbeatLoop(sess *session) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			sess.writeMu.Lock()
			err := sess.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(c.writeTimeout()))
			sess.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("failed to send ping", "err", err)
			}

			c.mu.Lock()
			lastSeen := c.lastSeen
			c.mu.Unlock()

			if c.cfg.PongTimeout > 0 && time.Since(lastSeen) > c.cfg.PongTimeout {
				c.logger.Warn("no pong received, connection stale",
					"last_seen", lastSeen,
					"timeout", c.cfg.PongTimeout,
				)
				c.fail(sess, ErrStaleConnection)
				return
			}
		}
	}
}

// reconnectLoop redials with exponential backoff until it succeeds, the
// attempt budget runs out or the channel is closed.
func (c *Channel) reconnectLoop() {
	defer c.wg.Done()

	rc := c.cfg.Reconnect
	for attempt := 1; rc.MaxAttempts == 0 || attempt <= rc.MaxAttempts; attempt++ {
		wait := Backoff(rc, attempt)
		c.logger.Debug("reconnecting", "attempt", attempt, "backoff", wait)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(wait):
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.status.State = StateConnecting
		c.notify()
		c.mu.Unlock()

		conn, err := c.dial(c.ctx)
		if err != nil {
			c.logger.Warn("reconnection failed", "attempt", attempt, "err", err)
			c.mu.Lock()
			if !c.closed {
				c.status.State = StateClosed
				c.status.Err = (&ChannelError{Err: err}).Error()
				c.notify()
			}
			c.mu.Unlock()
			continue
		}

		if err := c.attach(conn); err != nil {
			return
		}
		c.logger.Info("reconnected", "attempt", attempt)
		return
	}

	c.logger.Warn("giving up on push channel", "attempts", rc.MaxAttempts)
}

func (c *Channel) writeTimeout() time.Duration {
	if c.cfg.WriteTimeout > 0 {
		return c.cfg.WriteTimeout
	}
	return 5 * time.Second
}

// Backoff returns the wait before the given reconnect attempt (1-based):
// BaseDelay doubled per attempt and capped at MaxDelay, then jittered to
// between 0.5x and 1.5x. Non-positive delays fall back to 1s and 30s.
func Backoff(rc Reconnect, attempt int) time.Duration {
	base := rc.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	maxDelay := rc.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	// 1.5x of the cap must still fit in a Duration.
	maxDelay = min(maxDelay, time.Duration(math.MaxInt64/2))

	d := min(base, maxDelay)
	for i := 1; i < attempt && d < maxDelay; i++ {
		if d > maxDelay/2 {
			d = maxDelay
			break
		}
		d *= 2
	}

	// Add jitter: backoff * (0.5 to 1.5)
	return d/2 + time.Duration(rand.Int64N(int64(d)))
}
