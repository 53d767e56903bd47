package strategy

import (
	"math"

	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*DualMomentum)(nil)

// DualMomentum holds a long only while both momentum gauges agree: absolute
// momentum (lookback cumulative return beating the risk-free return) and
// relative momentum (short SMA above long SMA).
type DualMomentum struct {
	lookbackPeriod int
	riskFreeRate   float64
}

func NewDualMomentum(lookbackPeriod int, riskFreeRate float64) (*DualMomentum, error) {
	if lookbackPeriod < 2 {
		return nil, &models.ConfigError{Param: "lookback_period", Reason: "must be at least 2"}
	}
	if riskFreeRate < 0 {
		return nil, &models.ConfigError{Param: "risk_free_rate", Reason: "must not be negative"}
	}
	return &DualMomentum{lookbackPeriod: lookbackPeriod, riskFreeRate: riskFreeRate}, nil
}

func (s *DualMomentum) Name() string {
	return "dual_momentum"
}

func (s *DualMomentum) Params() map[string]float64 {
	return map[string]float64{
		"lookback_period": float64(s.lookbackPeriod),
		"risk_free_rate":  s.riskFreeRate,
	}
}

func (s *DualMomentum) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	if len(series) <= s.lookbackPeriod {
		return unsignaled(series), nil
	}

	closes := closePrices(series)
	smaLong := talib.Sma(closes, s.lookbackPeriod)
	smaShort := talib.Sma(closes, s.lookbackPeriod/2)

	// The compounded risk-free return over one lookback window, from the
	// annual rate.
	dailyRF := math.Pow(1+s.riskFreeRate, 1.0/252) - 1
	rfWindow := dailyRF * float64(s.lookbackPeriod)

	return generate(series, s.lookbackPeriod, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		// Cumulative return over the lookback window is just the price
		// ratio.
		momentum := closes[i]/closes[i-s.lookbackPeriod] - 1
		absoluteMom := momentum - rfWindow
		relativeMom := (smaShort[i] - smaLong[i]) / smaLong[i]

		row.Indicators = map[string]float64{
			"momentum":          momentum,
			"absolute_momentum": absoluteMom,
			"relative_momentum": relativeMom,
		}

		switch pos {
		case models.Flat:
			if absoluteMom > 0 && relativeMom > 0 {
				return models.Long
			}
		case models.Long:
			if absoluteMom <= 0 || relativeMom <= 0 {
				return models.Flat
			}
		}
		return pos
	}), nil
}
