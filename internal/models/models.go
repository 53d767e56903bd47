package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Candle is a single daily OHLCV bar. Series handed to the backtester must be
// sorted ascending by Date with no duplicate timestamps.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SignaledCandle is a Candle annotated by a strategy. Indicators is nil for
// warm-up rows where the strategy's rolling windows are not filled yet; such
// rows never carry a Buy or Sell flag.
type SignaledCandle struct {
	Candle
	Indicators map[string]float64 `json:"indicators,omitempty"`
	Buy        bool               `json:"buy"`
	Sell       bool               `json:"sell"`
}

// Position is the portfolio (or strategy tracker) position state.
type Position int

const (
	Flat Position = iota
	Long
	Short
)

func (p Position) String() string {
	switch p {
	case Flat:
		return "FLAT"
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// Trade records one entry and, once closed, its matching exit. A Trade opens
// at a buy fill and transitions to closed exactly once at the matching sell.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	Shares     int64     `json:"shares"`
	ExitDate   time.Time `json:"exit_date,omitempty"`
	ExitPrice  float64   `json:"exit_price,omitempty"`
	ProfitLoss float64   `json:"profit_loss"`
}

// Closed reports whether the trade has an exit recorded.
func (t *Trade) Closed() bool {
	return !t.ExitDate.IsZero()
}

// EquityPoint is the portfolio value at one bar, computed after that bar's
// signal has been acted on.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result is the immutable bundle a backtest run produces. Ratio fields use
// the fixed 252 trading-day annualization; SortinoRatio is +Inf when the run
// had no downside returns. In JSON the sentinel travels as a null
// sortino_ratio, since encoding/json rejects non-finite numbers.
type Result struct {
	Strategy            string             `json:"strategy"`
	Parameters          map[string]float64 `json:"parameters"`
	InitialCash         float64            `json:"initial_cash"`
	FinalValue          float64            `json:"final_value"`
	TotalReturnPct      float64            `json:"total_return_pct"`
	SharpeRatio         float64            `json:"sharpe_ratio"`
	SortinoRatio        float64            `json:"sortino_ratio"`
	MaxDrawdownPct      float64            `json:"max_drawdown_pct"`
	MaxDrawdownDuration int                `json:"max_drawdown_duration"`
	VolatilityPct       float64            `json:"volatility_pct"`
	WinRatePct          float64            `json:"win_rate_pct"`
	TotalTrades         int                `json:"total_trades"`
	EquityCurve         []EquityPoint      `json:"equity_curve"`
	Trades              []Trade            `json:"trades"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		SharpeRatio  *float64 `json:"sharpe_ratio"`
		SortinoRatio *float64 `json:"sortino_ratio"`
	}{
		alias:        alias(r),
		SharpeRatio:  finite(r.SharpeRatio),
		SortinoRatio: finite(r.SortinoRatio),
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	type alias Result
	aux := struct {
		*alias
		SharpeRatio  *float64 `json:"sharpe_ratio"`
		SortinoRatio *float64 `json:"sortino_ratio"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.SharpeRatio != nil {
		r.SharpeRatio = *aux.SharpeRatio
	}
	// A null sortino ratio is the no-downside sentinel.
	if aux.SortinoRatio != nil {
		r.SortinoRatio = *aux.SortinoRatio
	} else {
		r.SortinoRatio = math.Inf(1)
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Visualization is the presentation payload assembled alongside a Result.
// Rendering it is the frontend's job; the engine only carries it through.
type Visualization struct {
	Candles     []SignaledCandle `json:"candles"`
	EquityCurve []EquityPoint    `json:"equity_curve"`
	Drawdown    []float64        `json:"drawdown"`
	DrawdownPct []float64        `json:"drawdown_pct"`
}

// BacktestRequest is the API request body for a single run. RiskFreeRate is
// a pointer so an explicit 0 is distinct from an omitted field; nil means
// "use the server default".
type BacktestRequest struct {
	Symbol       string             `json:"symbol"`
	Period       string             `json:"period"`
	Algorithm    string             `json:"algorithm"`
	InitialCash  float64            `json:"initial_cash"`
	RiskFreeRate *float64           `json:"risk_free_rate,omitempty"`
	Params       map[string]float64 `json:"algorithm_specific_params"`
}

// SchemaError signals that an input series violates the price-data contract:
// missing fields, non-positive prices, broken high/low bounds, or rows out of
// chronological order. It is fatal; no partial run is attempted.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return "schema: " + e.Msg
}

// ConfigError signals a strategy parameter outside its valid domain. It is
// raised at construction time, before any run starts.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Param, e.Reason)
}

// RequestError carries upstream HTTP failure details from the data fetcher.
type RequestError struct {
	Err    error
	Status int
	Timer  time.Duration
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

// ValidateSeries checks the Price Series invariants before a run: at least
// one row, finite positive prices, high/low bracketing and strictly
// increasing timestamps.
func ValidateSeries(series []Candle) error {
	if len(series) == 0 {
		return &SchemaError{Msg: "empty price series"}
	}
	for i, c := range series {
		for name, v := range map[string]float64{
			"open": c.Open, "high": c.High, "low": c.Low, "close": c.Close,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return &SchemaError{
					Msg: fmt.Sprintf("row %d: %s price %v is not a positive finite number", i, name, v),
				}
			}
		}
		if c.Volume < 0 {
			return &SchemaError{Msg: fmt.Sprintf("row %d: negative volume %d", i, c.Volume)}
		}
		if c.High < c.Open || c.High < c.Close || c.High < c.Low {
			return &SchemaError{Msg: fmt.Sprintf("row %d: high %v below open/close/low", i, c.High)}
		}
		if c.Low > c.Open || c.Low > c.Close {
			return &SchemaError{Msg: fmt.Sprintf("row %d: low %v above open/close", i, c.Low)}
		}
		if i > 0 && !series[i-1].Date.Before(c.Date) {
			return &SchemaError{
				Msg: fmt.Sprintf("row %d: timestamp %s not after %s", i,
					c.Date.Format(time.RFC3339), series[i-1].Date.Format(time.RFC3339)),
			}
		}
	}
	return nil
}

// ValidateSignals checks the SignaledCandle contract the simulator relies on.
func ValidateSignals(series []SignaledCandle) error {
	for i, row := range series {
		if row.Buy && row.Sell {
			return &SchemaError{Msg: fmt.Sprintf("row %d: buy and sell both set", i)}
		}
		if row.Close <= 0 || math.IsNaN(row.Close) {
			return &SchemaError{Msg: fmt.Sprintf("row %d: missing close price", i)}
		}
	}
	return nil
}

// NormalizeSymbol uppercases and trims a ticker for cache/storage keys.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
