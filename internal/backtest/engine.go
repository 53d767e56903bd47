package backtest

import (
	"github.com/AkioHamamura/QuantDash/internal/models"
)

// Strategy is the contract a signal generator must satisfy. A Strategy value
// is run-scoped: its internal position tracker must not be shared between
// concurrent runs, so construct one per run.
type Strategy interface {
	Name() string

	// Params reports the configuration the strategy was built with, for
	// reproducibility in the result bundle.
	Params() map[string]float64

	// GenerateSignals annotates the validated price series with indicator
	// values and mutually exclusive buy/sell flags, one output row per input
	// row, in the same order.
	GenerateSignals(series []models.Candle) ([]models.SignaledCandle, error)
}

// Engine runs one strategy against one price series: generate signals,
// simulate the portfolio, summarize the equity curve. Stage failures
// propagate to the caller unchanged; there is no retry and no partial
// result.
type Engine struct {
	strategy     Strategy
	initialCash  float64
	riskFreeRate float64
}

// NewEngine creates an engine for a single run. riskFreeRate is the annual
// rate fed to the Sharpe/Sortino calculations; pass 0 when unsure.
func NewEngine(strategy Strategy, initialCash, riskFreeRate float64) *Engine {
	return &Engine{
		strategy:     strategy,
		initialCash:  initialCash,
		riskFreeRate: riskFreeRate,
	}
}

// Run executes the full pipeline over an already-sorted daily series and
// returns the metrics bundle plus the visualization payload for the
// presentation layer.
func (e *Engine) Run(series []models.Candle) (*models.Result, *models.Visualization, error) {
	if err := models.ValidateSeries(series); err != nil {
		return nil, nil, err
	}

	signaled, err := e.strategy.GenerateSignals(series)
	if err != nil {
		return nil, nil, err
	}

	portfolio := NewPortfolio(e.initialCash)
	if err := portfolio.Simulate(signaled); err != nil {
		return nil, nil, err
	}

	equity := portfolio.EquityCurve()
	result := Comprehensive(
		e.strategy.Name(),
		e.strategy.Params(),
		e.initialCash,
		equity,
		portfolio.ClosedTrades(),
		e.riskFreeRate,
	)

	dd, ddPct := Drawdown(equity)
	viz := &models.Visualization{
		Candles:     signaled,
		EquityCurve: equity,
		Drawdown:    dd,
		DrawdownPct: ddPct,
	}
	return result, viz, nil
}
