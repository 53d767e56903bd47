package strategy

import (
	"math"

	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*GapFade)(nil)

const gapFadeATRPeriod = 14

// GapFade fades overnight gaps at least gapThreshold wide, betting on the
// gap filling back to the previous close. Positions exit at the gap-fill
// target or at a fixed percentage stop loss. Gap-ups are shorted in the
// tracker only.
type GapFade struct {
	gapThreshold float64
	stopLoss     float64
}

func NewGapFade(gapThreshold, stopLoss float64) (*GapFade, error) {
	if gapThreshold <= 0 {
		return nil, &models.ConfigError{Param: "gap_threshold", Reason: "must be positive"}
	}
	if stopLoss <= 0 {
		return nil, &models.ConfigError{Param: "stop_loss", Reason: "must be positive"}
	}
	return &GapFade{gapThreshold: gapThreshold, stopLoss: stopLoss}, nil
}

func (s *GapFade) Name() string {
	return "gap_fade"
}

func (s *GapFade) Params() map[string]float64 {
	return map[string]float64{
		"gap_threshold": s.gapThreshold,
		"stop_loss":     s.stopLoss,
	}
}

func (s *GapFade) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	if len(series) < 2 {
		return unsignaled(series), nil
	}

	// ATR is volatility context only; it never gates a signal.
	var atr []float64
	if len(series) > gapFadeATRPeriod {
		atr = talib.Atr(highPrices(series), lowPrices(series), closePrices(series), gapFadeATRPeriod)
	}

	var stopPrice, targetPrice float64

	return generate(series, 1, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		prevClose := series[i-1].Close
		gap := (row.Open - prevClose) / prevClose

		row.Indicators = map[string]float64{"gap_size": gap}
		if atr != nil {
			row.Indicators["atr"] = atr[i]
		}

		switch pos {
		case models.Flat:
			if math.Abs(gap) < s.gapThreshold {
				return pos
			}
			if gap > 0 {
				// Gap up: fade it short, target the fill at yesterday's
				// close.
				stopPrice = row.Open * (1 + s.stopLoss)
				targetPrice = prevClose
				return models.Short
			}
			stopPrice = row.Open * (1 - s.stopLoss)
			targetPrice = prevClose
			return models.Long
		case models.Long:
			if row.Low <= stopPrice || row.High >= targetPrice {
				return models.Flat
			}
		case models.Short:
			if row.High >= stopPrice || row.Low <= targetPrice {
				return models.Flat
			}
		}
		return pos
	}), nil
}
