package main

import (
	"flag"

	"github.com/AkioHamamura/QuantDash/api"
	"github.com/AkioHamamura/QuantDash/internal/cache"
	"github.com/AkioHamamura/QuantDash/internal/config"
	"github.com/AkioHamamura/QuantDash/internal/logger"
	"github.com/AkioHamamura/QuantDash/internal/storage"
)

func main() {
	addr := flag.String("addr", "", "HTTP network address (overrides config)")
	cfgPath := flag.String("config", "config.toml", "path to TOML configuration file")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error.Fatalf("loading config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		logger.Error.Fatalf("%v", err)
	}

	fetcher := api.NewYahooClient(cfg.Data.BaseURL, cfg.Data.Timeout.Duration)

	// Each tier is optional; a missing DSN or address degrades to fetch-only.
	var candles storage.CandleStorage
	if cfg.Postgres.CandleDSN != "" {
		ts, err := storage.NewTimescaleDB(cfg.Postgres.CandleDSN)
		if err != nil {
			logger.Error.Fatalf("connecting to candle store: %v", err)
		}
		if err := ts.Init(); err != nil {
			logger.Error.Fatalf("initializing candle store: %v", err)
		}
		defer ts.Close()
		candles = ts
	} else {
		logger.Warning.Println("no candle store configured, running without durable candles")
	}

	var results storage.ResultStorage
	if cfg.Postgres.ResultDSN != "" {
		pg, err := storage.NewPostgresDB(cfg.Postgres.ResultDSN)
		if err != nil {
			logger.Error.Fatalf("connecting to result store: %v", err)
		}
		if err := pg.Init(); err != nil {
			logger.Error.Fatalf("initializing result store: %v", err)
		}
		defer pg.Close()
		results = pg
	} else {
		logger.Warning.Println("no result store configured, runs will not be persisted")
	}

	var candleCache *cache.CandleCache
	if cfg.Redis.Addr != "" {
		candleCache, err = cache.NewCandleCache(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.TTL.Duration,
		)
		if err != nil {
			logger.Error.Fatalf("connecting to redis: %v", err)
		}
		defer candleCache.Close()
	}

	server := api.NewServer(
		cfg.Server.Addr,
		fetcher,
		candles,
		results,
		candleCache,
		float64(cfg.Backtest.InitialCash),
		cfg.Backtest.RiskFreeRate,
	)
	server.Run()
}
