package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*ZScore)(nil)

// ZScore is the single-asset pair-trading proxy: mean reversion on the
// z-score of the close against its rolling mean. Enter long when the
// z-score drops below -entryThreshold, exit once it reverts back up to
// exitThreshold. Overbought entries are tracker-side shorts.
type ZScore struct {
	lookbackPeriod int
	entryThreshold float64
	exitThreshold  float64
}

func NewZScore(lookbackPeriod int, entryThreshold, exitThreshold float64) (*ZScore, error) {
	if lookbackPeriod < 2 {
		return nil, &models.ConfigError{Param: "lookback_period", Reason: "must be at least 2"}
	}
	if entryThreshold <= 0 {
		return nil, &models.ConfigError{Param: "entry_threshold", Reason: "must be positive"}
	}
	if exitThreshold < 0 || exitThreshold >= entryThreshold {
		return nil, &models.ConfigError{Param: "exit_threshold", Reason: "must be between 0 and entry_threshold"}
	}
	return &ZScore{
		lookbackPeriod: lookbackPeriod,
		entryThreshold: entryThreshold,
		exitThreshold:  exitThreshold,
	}, nil
}

func (s *ZScore) Name() string {
	return "zscore"
}

func (s *ZScore) Params() map[string]float64 {
	return map[string]float64{
		"lookback_period": float64(s.lookbackPeriod),
		"entry_threshold": s.entryThreshold,
		"exit_threshold":  s.exitThreshold,
	}
}

func (s *ZScore) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	if len(series) <= s.lookbackPeriod {
		return unsignaled(series), nil
	}

	closes := closePrices(series)
	sma := talib.Sma(closes, s.lookbackPeriod)
	std := talib.StdDev(closes, s.lookbackPeriod, 1.0)

	return generate(series, s.lookbackPeriod, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		if std[i] == 0 {
			// Flat window, z-score undefined: hold.
			return pos
		}
		z := (closes[i] - sma[i]) / std[i]

		row.Indicators = map[string]float64{
			"z_score": z,
			"sma":     sma[i],
		}

		switch pos {
		case models.Flat:
			if z <= -s.entryThreshold {
				return models.Long
			}
			if z >= s.entryThreshold {
				return models.Short
			}
		case models.Long:
			if z >= s.exitThreshold {
				return models.Flat
			}
		case models.Short:
			if z <= -s.exitThreshold {
				return models.Flat
			}
		}
		return pos
	}), nil
}
