package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*BollingerBreakout)(nil)

// BollingerBreakout trades band breakouts: enter long when the close breaks
// above the upper band, exit when it falls back through the middle band (or
// the lower band). The symmetric short side lives only in the tracker.
type BollingerBreakout struct {
	period int
	stdDev float64
}

func NewBollingerBreakout(period int, stdDev float64) (*BollingerBreakout, error) {
	if period < 2 {
		return nil, &models.ConfigError{Param: "period", Reason: "must be at least 2"}
	}
	if stdDev <= 0 {
		return nil, &models.ConfigError{Param: "std_dev", Reason: "must be positive"}
	}
	return &BollingerBreakout{period: period, stdDev: stdDev}, nil
}

func (s *BollingerBreakout) Name() string {
	return "bollinger_breakout"
}

func (s *BollingerBreakout) Params() map[string]float64 {
	return map[string]float64{
		"period":  float64(s.period),
		"std_dev": s.stdDev,
	}
}

func (s *BollingerBreakout) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	if len(series) <= s.period {
		return unsignaled(series), nil
	}

	closes := closePrices(series)
	upper, middle, lower := talib.BBands(closes, s.period, s.stdDev, s.stdDev, talib.SMA)

	// Entries need the previous bar's band too, so warm-up extends one row
	// past the rolling window.
	return generate(series, s.period, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		row.Indicators = map[string]float64{
			"upper_band":  upper[i],
			"middle_band": middle[i],
			"lower_band":  lower[i],
		}

		switch pos {
		case models.Flat:
			if closes[i-1] <= upper[i-1] && closes[i] > upper[i] {
				return models.Long
			}
			if closes[i-1] >= lower[i-1] && closes[i] < lower[i] {
				return models.Short
			}
		case models.Long:
			if closes[i] < middle[i] || closes[i] < lower[i] {
				return models.Flat
			}
		case models.Short:
			if closes[i] > middle[i] || closes[i] > upper[i] {
				return models.Flat
			}
		}
		return pos
	}), nil
}
