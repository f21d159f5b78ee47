// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds configuration shared by the orderflow-lab binaries.
type Config struct {
	// HTTP
	ListenAddr        string `env:"LISTEN_ADDR" envDefault:":8080"`
	RequestTimeoutSec int    `env:"REQUEST_TIMEOUT_SEC" envDefault:"15"`

	// Storage
	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`
	// UseMemory swaps both persistent stores for in-memory ones.
	UseMemory bool `env:"USE_MEMORY" envDefault:"false"`

	// Cache (optional; empty disables caching)
	RedisURL    string `env:"REDIS_URL"`
	CacheTTLSec int    `env:"CACHE_TTL_SEC" envDefault:"3"`

	// Upstream feed
	BinanceBaseURL    string `env:"BINANCE_BASE_URL" envDefault:"https://api.binance.com"`
	BinanceWSEndpoint string `env:"BINANCE_WS_ENDPOINT" envDefault:"wss://stream.binance.com:9443"`
	UpstreamTimeout   int    `env:"UPSTREAM_TIMEOUT_SEC" envDefault:"10"`

	// Recorder (cmd/record)
	Symbols             []string `env:"SYMBOLS" envSeparator:"," envDefault:"BTCUSDT"`
	SnapshotIntervalSec int      `env:"SNAPSHOT_INTERVAL_SEC" envDefault:"60"`
	SnapshotWindowSec   int      `env:"SNAPSHOT_WINDOW_SEC" envDefault:"60"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	for i := range cfg.Symbols {
		cfg.Symbols[i] = strings.ToUpper(strings.TrimSpace(cfg.Symbols[i]))
	}

	return cfg, nil
}

// Validate checks invariants common to all binaries.
func (c *Config) Validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (or set USE_MEMORY=true)")
	}
	if c.RequestTimeoutSec < 1 {
		return fmt.Errorf("request timeout must be at least 1 second")
	}
	if c.UpstreamTimeout < 1 {
		return fmt.Errorf("upstream timeout must be at least 1 second")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	if c.SnapshotIntervalSec < 1 || c.SnapshotWindowSec < 1 {
		return fmt.Errorf("snapshot interval and window must be at least 1 second")
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// CacheTTL returns the summary cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// SnapshotInterval returns the archive cadence as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalSec) * time.Second
}
