package storage

import (
	"context"
	"errors"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("storage: not found")

// CandleStorage is the durable cache for fetched daily price history.
type CandleStorage interface {
	Init() error
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	FetchCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
	Close()
}

// ResultStorage persists finished backtest runs for later retrieval.
type ResultStorage interface {
	Init() error
	SaveResult(ctx context.Context, symbol string, res *models.Result) (string, error)
	GetResult(ctx context.Context, id string) (*models.Result, error)
	Close()
}
