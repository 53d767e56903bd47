package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*MACrossover)(nil)

// MACrossover buys on the golden cross (fast SMA crossing above slow SMA)
// and sells on the death cross.
type MACrossover struct {
	fastPeriod int
	slowPeriod int
}

func NewMACrossover(fastPeriod, slowPeriod int) (*MACrossover, error) {
	if fastPeriod < 1 {
		return nil, &models.ConfigError{Param: "fast_period", Reason: "must be at least 1"}
	}
	if slowPeriod <= fastPeriod {
		return nil, &models.ConfigError{Param: "slow_period", Reason: "must be greater than fast_period"}
	}
	return &MACrossover{fastPeriod: fastPeriod, slowPeriod: slowPeriod}, nil
}

func (s *MACrossover) Name() string {
	return "moving_average_crossover"
}

func (s *MACrossover) Params() map[string]float64 {
	return map[string]float64{
		"fast_period": float64(s.fastPeriod),
		"slow_period": float64(s.slowPeriod),
	}
}

func (s *MACrossover) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	if len(series) < s.slowPeriod {
		return unsignaled(series), nil
	}

	closes := closePrices(series)
	fast := talib.Sma(closes, s.fastPeriod)
	slow := talib.Sma(closes, s.slowPeriod)

	// Tracker goes long while fast > slow; the transitions are exactly the
	// golden/death crosses.
	return generate(series, s.slowPeriod-1, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		row.Indicators = map[string]float64{
			"ma_fast": fast[i],
			"ma_slow": slow[i],
		}
		if fast[i] > slow[i] {
			return models.Long
		}
		return models.Flat
	}), nil
}
