package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/backtest"
)

// ParamSpec describes one tunable parameter for the strategy catalogue the
// API exposes.
type ParamSpec struct {
	Type        string  `json:"type"`
	Default     float64 `json:"default"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Step        float64 `json:"step,omitempty"`
	Description string  `json:"description"`
}

// Info is one catalogue entry.
type Info struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]ParamSpec `json:"parameters"`
}

// Catalog lists every available strategy keyed by algorithm id, with
// defaults and valid ranges for the frontend's parameter forms.
func Catalog() map[string]Info {
	return map[string]Info{
		"moving_average_crossover": {
			Name:        "Moving Average Crossover",
			Description: "Buy when fast MA crosses above slow MA, sell when it crosses below",
			Parameters: map[string]ParamSpec{
				"fast_period": {Type: "number", Default: 12, Min: 5, Max: 50, Description: "Fast moving average period"},
				"slow_period": {Type: "number", Default: 26, Min: 10, Max: 100, Description: "Slow moving average period"},
			},
		},
		"bollinger_breakout": {
			Name:        "Bollinger Band Breakout",
			Description: "Buy when price breaks above upper band, sell when it breaks below lower band",
			Parameters: map[string]ParamSpec{
				"period":  {Type: "number", Default: 20, Min: 10, Max: 50, Description: "Bollinger Band period"},
				"std_dev": {Type: "number", Default: 2.0, Min: 1.0, Max: 3.0, Step: 0.1, Description: "Standard deviation multiplier"},
			},
		},
		"dual_momentum": {
			Name:        "Dual Momentum",
			Description: "Trade based on relative and absolute momentum signals",
			Parameters: map[string]ParamSpec{
				"lookback_period": {Type: "number", Default: 60, Min: 20, Max: 120, Description: "Momentum calculation period"},
				"risk_free_rate":  {Type: "number", Default: 0.02, Min: 0, Max: 0.1, Step: 0.01, Description: "Annual risk-free rate"},
			},
		},
		"gap_fade": {
			Name:        "Gap Fade",
			Description: "Fade significant price gaps expecting mean reversion",
			Parameters: map[string]ParamSpec{
				"gap_threshold": {Type: "number", Default: 0.02, Min: 0.01, Max: 0.05, Step: 0.01, Description: "Minimum gap size (%)"},
				"stop_loss":     {Type: "number", Default: 0.05, Min: 0.02, Max: 0.1, Step: 0.01, Description: "Stop loss percentage"},
			},
		},
		"rsi_pullback": {
			Name:        "RSI Pullback",
			Description: "Buy oversold pullbacks in uptrends, sell overbought rallies in downtrends",
			Parameters: map[string]ParamSpec{
				"rsi_period": {Type: "number", Default: 14, Min: 5, Max: 30, Description: "RSI calculation period"},
				"ma_period":  {Type: "number", Default: 50, Min: 20, Max: 200, Description: "Trend moving average period"},
				"oversold":   {Type: "number", Default: 30, Min: 10, Max: 40, Description: "Oversold RSI level"},
				"overbought": {Type: "number", Default: 70, Min: 60, Max: 90, Description: "Overbought RSI level"},
			},
		},
		"turtle_breakout": {
			Name:        "Turtle Breakout",
			Description: "Donchian channel breakouts with ATR-based stops",
			Parameters: map[string]ParamSpec{
				"entry_period": {Type: "number", Default: 20, Min: 10, Max: 55, Description: "Entry channel period"},
				"exit_period":  {Type: "number", Default: 10, Min: 5, Max: 20, Description: "Exit channel period"},
				"atr_period":   {Type: "number", Default: 20, Min: 10, Max: 30, Description: "ATR calculation period"},
				"risk_percent": {Type: "number", Default: 0.02, Min: 0.005, Max: 0.05, Step: 0.005, Description: "Risk per trade"},
			},
		},
		"zscore": {
			Name:        "Z-Score Mean Reversion",
			Description: "Pair-trading style reversion on the rolling z-score of price",
			Parameters: map[string]ParamSpec{
				"lookback_period": {Type: "number", Default: 20, Min: 10, Max: 60, Description: "Z-score lookback period"},
				"entry_threshold": {Type: "number", Default: 2.0, Min: 1.0, Max: 3.0, Step: 0.1, Description: "Entry z-score threshold"},
				"exit_threshold":  {Type: "number", Default: 0.5, Min: 0, Max: 1.5, Step: 0.1, Description: "Exit z-score threshold"},
			},
		},
	}
}

// New builds a strategy from its algorithm id, filling any parameter the
// caller left out with the catalogue default. Unknown algorithm ids fall
// back to the moving average crossover. A parameter outside its domain
// yields a models.ConfigError before any run starts.
func New(algorithm string, params map[string]float64) (backtest.Strategy, error) {
	switch algorithm {
	case "bollinger_breakout":
		return NewBollingerBreakout(
			int(param(params, "period", 20)),
			param(params, "std_dev", 2.0),
		)
	case "dual_momentum":
		return NewDualMomentum(
			int(param(params, "lookback_period", 60)),
			param(params, "risk_free_rate", 0.02),
		)
	case "gap_fade":
		return NewGapFade(
			param(params, "gap_threshold", 0.02),
			param(params, "stop_loss", 0.05),
		)
	case "rsi_pullback":
		return NewRSIPullback(
			int(param(params, "rsi_period", 14)),
			int(param(params, "ma_period", 50)),
			param(params, "oversold", 30),
			param(params, "overbought", 70),
		)
	case "turtle_breakout":
		return NewTurtleBreakout(
			int(param(params, "entry_period", 20)),
			int(param(params, "exit_period", 10)),
			int(param(params, "atr_period", 20)),
			param(params, "risk_percent", 0.02),
		)
	case "zscore":
		return NewZScore(
			int(param(params, "lookback_period", 20)),
			param(params, "entry_threshold", 2.0),
			param(params, "exit_threshold", 0.5),
		)
	default:
		return NewMACrossover(
			int(param(params, "fast_period", 12)),
			int(param(params, "slow_period", 26)),
		)
	}
}

func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
