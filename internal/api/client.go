package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Default client settings.
const (
	DefaultBasePath = "/api"
	DefaultWSPath   = "/ws"
	DefaultTimeout  = 30 * time.Second
)

// Client provides access to the dashboard REST API.
type Client struct {
	baseURL    string
	basePath   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client for the service at baseURL
// (scheme and host, e.g. http://localhost:8000).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		basePath: DefaultBasePath,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithBasePath overrides the /api prefix. An empty path mounts endpoints at the root.
func WithBasePath(p string) ClientOption {
	return func(c *Client) {
		c.basePath = strings.TrimRight(p, "/")
	}
}

// BaseURL returns the service root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIKey returns the configured bearer token, if any.
func (c *Client) APIKey() string {
	return c.apiKey
}
