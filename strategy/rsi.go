package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*RSIPullback)(nil)

// RSIPullback buys oversold pullbacks while the close sits above its trend
// moving average, and exits when RSI reaches overbought or the trend flips.
// The mirrored overbought-rally short exists in the tracker only.
type RSIPullback struct {
	rsiPeriod  int
	maPeriod   int
	oversold   float64
	overbought float64
}

func NewRSIPullback(rsiPeriod, maPeriod int, oversold, overbought float64) (*RSIPullback, error) {
	if rsiPeriod < 2 {
		return nil, &models.ConfigError{Param: "rsi_period", Reason: "must be at least 2"}
	}
	if maPeriod < 1 {
		return nil, &models.ConfigError{Param: "ma_period", Reason: "must be at least 1"}
	}
	if oversold <= 0 || oversold >= 100 {
		return nil, &models.ConfigError{Param: "oversold", Reason: "must be between 0 and 100"}
	}
	if overbought <= oversold || overbought >= 100 {
		return nil, &models.ConfigError{Param: "overbought", Reason: "must be between oversold and 100"}
	}
	return &RSIPullback{
		rsiPeriod:  rsiPeriod,
		maPeriod:   maPeriod,
		oversold:   oversold,
		overbought: overbought,
	}, nil
}

func (s *RSIPullback) Name() string {
	return "rsi_pullback"
}

func (s *RSIPullback) Params() map[string]float64 {
	return map[string]float64{
		"rsi_period": float64(s.rsiPeriod),
		"ma_period":  float64(s.maPeriod),
		"oversold":   s.oversold,
		"overbought": s.overbought,
	}
}

func (s *RSIPullback) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	warmup := maxInt(s.rsiPeriod, s.maPeriod)
	if len(series) <= warmup {
		return unsignaled(series), nil
	}

	closes := closePrices(series)
	rsi := talib.Rsi(closes, s.rsiPeriod)
	ma := talib.Sma(closes, s.maPeriod)

	return generate(series, warmup, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		trendUp := closes[i] > ma[i]

		row.Indicators = map[string]float64{
			"rsi": rsi[i],
			"ma":  ma[i],
		}

		switch pos {
		case models.Flat:
			if trendUp && rsi[i] <= s.oversold {
				return models.Long
			}
			if !trendUp && rsi[i] >= s.overbought {
				return models.Short
			}
		case models.Long:
			if rsi[i] >= s.overbought || !trendUp {
				return models.Flat
			}
		case models.Short:
			if rsi[i] <= s.oversold || trendUp {
				return models.Flat
			}
		}
		return pos
	}), nil
}
