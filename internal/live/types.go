package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrAlreadyStarted  = errors.New("channel already started")
	ErrAlreadyClosed   = errors.New("channel already closed")
	ErrStaleConnection = errors.New("connection stale (no pong)")
)

// ChannelError wraps a push connection failure. It only changes state.
type ChannelError struct {
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("push channel: %v", e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// State is the connection lifecycle state.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// Status is a point-in-time copy of the channel state.
type Status struct {
	State         State           `json:"state"`
	Connected     bool            `json:"connected"`
	LastMessage   json.RawMessage `json:"last_message,omitempty"`
	LastMessageAt time.Time       `json:"last_message_at"`
	Err           string          `json:"error,omitempty"`
}

const (
	defaultBaseDelay = time.Second
	defaultMaxDelay  = 30 * time.Second
)

// Reconnect configures the opt-in reconnect loop.
type Reconnect struct {
	Enabled     bool
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int // 0 retries until Close
}

// Config configures a Channel.
type Config struct {
	URL              string // ws:// or wss:// URL of the push endpoint
	APIKey           string // sent as a bearer token when set
	HandshakeTimeout time.Duration
	PingInterval     time.Duration // 0 disables keepalive pings
	PongTimeout      time.Duration // max time without a pong, ping or frame
	WriteTimeout     time.Duration
	Reconnect        Reconnect
}

// DefaultConfig returns sensible defaults. Reconnect stays disabled.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PongTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		Reconnect: Reconnect{
			BaseDelay: defaultBaseDelay,
			MaxDelay:  defaultMaxDelay,
		},
	}
}
