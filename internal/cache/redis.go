package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/redis/go-redis/v9"
)

// CandleCache is the hot tier in front of the candle store: whole series
// keyed by symbol and period, expiring after a TTL so stale history gets
// refetched.
type CandleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCandleCache(addr, password string, db int, ttl time.Duration) (*CandleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &CandleCache{client: client, ttl: ttl}, nil
}

func (c *CandleCache) Close() {
	c.client.Close()
}

func key(symbol, period string) string {
	return fmt.Sprintf("candles:%s:%s", models.NormalizeSymbol(symbol), period)
}

// Get returns the cached series, or (nil, nil) on a miss.
func (c *CandleCache) Get(ctx context.Context, symbol, period string) ([]models.Candle, error) {
	payload, err := c.client.Get(ctx, key(symbol, period)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var candles []models.Candle
	if err := json.Unmarshal(payload, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func (c *CandleCache) Set(ctx context.Context, symbol, period string, candles []models.Candle) error {
	payload, err := json.Marshal(candles)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(symbol, period), payload, c.ttl).Err()
}
