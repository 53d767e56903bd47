package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/markcheno/go-talib"
)

var _ backtest.Strategy = (*TurtleBreakout)(nil)

// TurtleBreakout enters on Donchian-channel breakouts of the previous bar's
// entry channel and exits on the opposite exit channel or a 2xATR stop.
// Downside breakouts are tracked as shorts without reaching the simulator.
type TurtleBreakout struct {
	entryPeriod int
	exitPeriod  int
	atrPeriod   int
	riskPercent float64
}

func NewTurtleBreakout(entryPeriod, exitPeriod, atrPeriod int, riskPercent float64) (*TurtleBreakout, error) {
	if entryPeriod < 1 {
		return nil, &models.ConfigError{Param: "entry_period", Reason: "must be at least 1"}
	}
	if exitPeriod < 1 {
		return nil, &models.ConfigError{Param: "exit_period", Reason: "must be at least 1"}
	}
	if atrPeriod < 1 {
		return nil, &models.ConfigError{Param: "atr_period", Reason: "must be at least 1"}
	}
	if riskPercent <= 0 || riskPercent >= 1 {
		return nil, &models.ConfigError{Param: "risk_percent", Reason: "must be between 0 and 1"}
	}
	return &TurtleBreakout{
		entryPeriod: entryPeriod,
		exitPeriod:  exitPeriod,
		atrPeriod:   atrPeriod,
		riskPercent: riskPercent,
	}, nil
}

func (s *TurtleBreakout) Name() string {
	return "turtle_breakout"
}

func (s *TurtleBreakout) Params() map[string]float64 {
	return map[string]float64{
		"entry_period": float64(s.entryPeriod),
		"exit_period":  float64(s.exitPeriod),
		"atr_period":   float64(s.atrPeriod),
		"risk_percent": s.riskPercent,
	}
}

func (s *TurtleBreakout) GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error) {
	warmup := maxInt(s.entryPeriod, s.exitPeriod, s.atrPeriod)
	if len(series) <= warmup {
		return unsignaled(series), nil
	}

	highs := highPrices(series)
	lows := lowPrices(series)
	entryHigh := talib.Max(highs, s.entryPeriod)
	entryLow := talib.Min(lows, s.entryPeriod)
	exitHigh := talib.Max(highs, s.exitPeriod)
	exitLow := talib.Min(lows, s.exitPeriod)
	atr := talib.Atr(highs, lows, closePrices(series), s.atrPeriod)

	var stopPrice float64

	return generate(series, warmup, func(i int, row *models.SignaledCandle, pos models.Position) models.Position {
		row.Indicators = map[string]float64{
			"entry_high": entryHigh[i-1],
			"entry_low":  entryLow[i-1],
			"atr":        atr[i],
		}

		switch pos {
		case models.Flat:
			// Breakout of the previous bar's channel, 2N stop from the
			// fill.
			if row.High > entryHigh[i-1] {
				stopPrice = row.Close - 2*atr[i]
				return models.Long
			}
			if row.Low < entryLow[i-1] {
				stopPrice = row.Close + 2*atr[i]
				return models.Short
			}
		case models.Long:
			if row.Low < exitLow[i-1] || row.Low <= stopPrice {
				return models.Flat
			}
		case models.Short:
			if row.High > exitHigh[i-1] || row.High >= stopPrice {
				return models.Flat
			}
		}
		return pos
	}), nil
}
