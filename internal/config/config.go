package config

import "time"

// Config is the root configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Poll    PollConfig    `yaml:"poll"`
	Live    LiveConfig    `yaml:"live"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Archive ArchiveConfig `yaml:"archive"`
}

// APIConfig holds agent API settings.
type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	BasePath string        `yaml:"base_path"`
	WSPath   string        `yaml:"ws_path"`
	APIKey   string        `yaml:"api_key"` // sent as a bearer token
	Timeout  time.Duration `yaml:"timeout"`
}

// PollConfig holds per-resource poll intervals. A negative interval means
// fetch once on start.
type PollConfig struct {
	Status      time.Duration `yaml:"status"`
	Performance time.Duration `yaml:"performance"`
	Exposure    time.Duration `yaml:"exposure"`
	Positions   time.Duration `yaml:"positions"`
	Trades      time.Duration `yaml:"trades"`
	Arbitrage   time.Duration `yaml:"arbitrage"`
	TradesLimit int           `yaml:"trades_limit"`
}

// LiveConfig holds push channel settings.
type LiveConfig struct {
	Disabled         bool            `yaml:"disabled"`
	HandshakeTimeout time.Duration   `yaml:"handshake_timeout"`
	PingInterval     time.Duration   `yaml:"ping_interval"`
	PongTimeout      time.Duration   `yaml:"pong_timeout"`
	Reconnect        ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig holds the opt-in reconnect settings.
type ReconnectConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // rotated log file, stderr when empty
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// ArchiveConfig holds the optional trade archive.
type ArchiveConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Database  DBConfig `yaml:"database"`
	BatchSize int      `yaml:"batch_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Interval maps a configured poll interval to a poller interval: negative
// values mean fetch once and become 0.
func Interval(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
