package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL           = "http://localhost:8000"
	DefaultBasePath          = "/api"
	DefaultWSPath            = "/ws"
	DefaultAPITimeout        = 30 * time.Second
	DefaultStatusInterval    = 5 * time.Second
	DefaultPerfInterval      = 10 * time.Second
	DefaultExposureInterval  = 30 * time.Second
	DefaultPositionsInterval = 10 * time.Second
	DefaultTradesLimit       = 200
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultPongTimeout       = 60 * time.Second
	DefaultReconnectBase     = 1 * time.Second
	DefaultReconnectMax      = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 50
	DefaultLogMaxBackups     = 3
	DefaultLogMaxAgeDays     = 14
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultArchiveBatchSize  = 500
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.BasePath == "" {
		c.API.BasePath = DefaultBasePath
	}
	if c.API.WSPath == "" {
		c.API.WSPath = DefaultWSPath
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	// Poll defaults. Trades and arbitrage are fetched once unless set.
	if c.Poll.Status == 0 {
		c.Poll.Status = DefaultStatusInterval
	}
	if c.Poll.Performance == 0 {
		c.Poll.Performance = DefaultPerfInterval
	}
	if c.Poll.Exposure == 0 {
		c.Poll.Exposure = DefaultExposureInterval
	}
	if c.Poll.Positions == 0 {
		c.Poll.Positions = DefaultPositionsInterval
	}
	if c.Poll.TradesLimit == 0 {
		c.Poll.TradesLimit = DefaultTradesLimit
	}

	// Live defaults
	if c.Live.HandshakeTimeout == 0 {
		c.Live.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Live.PingInterval == 0 {
		c.Live.PingInterval = DefaultPingInterval
	}
	if c.Live.PongTimeout == 0 {
		c.Live.PongTimeout = DefaultPongTimeout
	}
	if c.Live.Reconnect.BaseDelay == 0 {
		c.Live.Reconnect.BaseDelay = DefaultReconnectBase
	}
	if c.Live.Reconnect.MaxDelay == 0 {
		c.Live.Reconnect.MaxDelay = DefaultReconnectMax
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Archive defaults
	applyDBDefaults(&c.Archive.Database)
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultArchiveBatchSize
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
