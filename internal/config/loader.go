package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies QUANTDASH_* environment variable overrides,
// and returns the final Config. A missing file is not an error; the
// defaults then apply. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known QUANTDASH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject connection strings at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Addr, "QUANTDASH_SERVER_ADDR")

	setStr(&cfg.Data.BaseURL, "QUANTDASH_DATA_BASE_URL")
	setDuration(&cfg.Data.Timeout, "QUANTDASH_DATA_TIMEOUT")

	setInt64(&cfg.Backtest.InitialCash, "QUANTDASH_BACKTEST_INITIAL_CASH")
	setFloat64(&cfg.Backtest.RiskFreeRate, "QUANTDASH_BACKTEST_RISK_FREE_RATE")

	setStr(&cfg.Postgres.CandleDSN, "QUANTDASH_POSTGRES_CANDLE_DSN")
	setStr(&cfg.Postgres.ResultDSN, "QUANTDASH_POSTGRES_RESULT_DSN")

	setStr(&cfg.Redis.Addr, "QUANTDASH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "QUANTDASH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "QUANTDASH_REDIS_DB")
	setDuration(&cfg.Redis.TTL, "QUANTDASH_REDIS_TTL")
}

// Typed env-var helpers. Each only mutates the target when the
// environment variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
