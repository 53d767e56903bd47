// Package config defines the runtime configuration for the quantdash
// server and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by QUANTDASH_* environment
// variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Backtest BacktestConfig `toml:"backtest"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DataConfig holds market data source parameters.
type DataConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// BacktestConfig holds the defaults applied when a request leaves a
// field unset.
type BacktestConfig struct {
	InitialCash  int64   `toml:"initial_cash"`
	RiskFreeRate float64 `toml:"risk_free_rate"`
}

// PostgresConfig holds connection strings for the two stores. Either may
// be left empty to run without that store.
type PostgresConfig struct {
	CandleDSN string `toml:"candle_dsn"`
	ResultDSN string `toml:"result_dsn"`
}

// RedisConfig holds Redis connection parameters for the candle cache.
type RedisConfig struct {
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      duration `toml:"ttl"`
}

// duration wraps time.Duration so the TOML decoder can parse strings
// like "15m" or "1h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":4000",
		},
		Data: DataConfig{
			BaseURL: "https://query1.finance.yahoo.com",
			Timeout: duration{15 * time.Second},
		},
		Backtest: BacktestConfig{
			InitialCash:  10000,
			RiskFreeRate: 0,
		},
		Redis: RedisConfig{
			Addr: "",
			DB:   0,
			TTL:  duration{15 * time.Minute},
		},
	}
}

// Validate checks Config for obviously invalid values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty")
	}

	if c.Data.BaseURL == "" {
		errs = append(errs, "data: base_url must not be empty")
	}
	if c.Data.Timeout.Duration <= 0 {
		errs = append(errs, "data: timeout must be positive")
	}

	if c.Backtest.InitialCash <= 0 {
		errs = append(errs, "backtest: initial_cash must be > 0")
	}
	if c.Backtest.RiskFreeRate < 0 || c.Backtest.RiskFreeRate >= 1 {
		errs = append(errs, fmt.Sprintf("backtest: risk_free_rate must be in [0, 1), got %g", c.Backtest.RiskFreeRate))
	}

	if c.Redis.Addr != "" && c.Redis.TTL.Duration <= 0 {
		errs = append(errs, "redis: ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
