package backtest

import (
	"github.com/AkioHamamura/QuantDash/internal/logger"
	"github.com/AkioHamamura/QuantDash/internal/models"
)

// Portfolio is the single-position state machine a run owns. It walks a
// signaled series in time order, fills market orders at the same bar's close
// and records one equity point per row. shares > 0 exactly when the position
// is LONG, and cash never goes negative: a buy is sized to what cash affords.
type Portfolio struct {
	initialCash float64
	cash        float64
	shares      int64
	position    models.Position
	trades      []models.Trade
	equity      []models.EquityPoint
}

func NewPortfolio(initialCash float64) *Portfolio {
	p := &Portfolio{initialCash: initialCash}
	p.Reset()
	return p
}

// Reset restores the pre-run state so the same Portfolio value never leaks
// between runs.
func (p *Portfolio) Reset() {
	p.cash = p.initialCash
	p.shares = 0
	p.position = models.Flat
	p.trades = nil
	p.equity = nil
}

// Simulate processes the whole series row by row. It fails fast on a
// SignaledRow contract violation and never fails on insufficient funds.
func (p *Portfolio) Simulate(series []models.SignaledCandle) error {
	if err := models.ValidateSignals(series); err != nil {
		return err
	}

	p.Reset()
	for i := range series {
		p.processRow(&series[i])
	}
	return nil
}

// processRow applies one bar: execute the signal if the state machine allows
// it, then mark portfolio value at the bar's close.
func (p *Portfolio) processRow(row *models.SignaledCandle) {
	price := row.Close

	switch {
	case row.Buy:
		p.executeBuy(row, price)
	case row.Sell:
		p.executeSell(row, price)
	}

	p.equity = append(p.equity, models.EquityPoint{
		Date:  row.Date,
		Value: p.cash + float64(p.shares)*price,
	})
}

func (p *Portfolio) executeBuy(row *models.SignaledCandle, price float64) {
	if p.position != models.Flat {
		return // already long, duplicate buys are ignored
	}

	shares := int64(p.cash / price)
	if shares == 0 {
		// Insufficient funds is a legitimate no-op, not an error.
		logger.Debug.Printf("buy skipped: cash %.2f cannot afford one share at %.2f", p.cash, price)
		return
	}

	cost := float64(shares) * price
	p.cash -= cost
	p.shares = shares
	p.position = models.Long
	p.trades = append(p.trades, models.Trade{
		EntryDate:  row.Date,
		EntryPrice: price,
		Shares:     shares,
	})

	logger.Debug.Printf("%s: BUY %d shares at %.2f for %.2f",
		row.Date.Format("2006-01-02"), shares, price, cost)
}

func (p *Portfolio) executeSell(row *models.SignaledCandle, price float64) {
	if p.position != models.Long {
		return // nothing to sell
	}

	p.cash = float64(p.shares) * price

	// Close the open trade; single-position discipline guarantees it is the
	// most recent entry in the ledger.
	t := &p.trades[len(p.trades)-1]
	t.ExitDate = row.Date
	t.ExitPrice = price
	t.ProfitLoss = (price - t.EntryPrice) * float64(t.Shares)

	p.shares = 0
	p.position = models.Flat

	logger.Debug.Printf("%s: SELL at %.2f for %.2f (P/L %.2f)",
		row.Date.Format("2006-01-02"), price, p.cash, t.ProfitLoss)
}

func (p *Portfolio) Cash() float64 {
	return p.cash
}

func (p *Portfolio) Shares() int64 {
	return p.shares
}

func (p *Portfolio) Position() models.Position {
	return p.position
}

// EquityCurve returns the per-row portfolio values in series order.
func (p *Portfolio) EquityCurve() []models.EquityPoint {
	return p.equity
}

// Trades returns the full ledger, open trades included.
func (p *Portfolio) Trades() []models.Trade {
	return p.trades
}

// ClosedTrades returns only completed round trips; an open position at the
// end of the series is excluded from every trade statistic.
func (p *Portfolio) ClosedTrades() []models.Trade {
	closed := make([]models.Trade, 0, len(p.trades))
	for _, t := range p.trades {
		if t.Closed() {
			closed = append(closed, t)
		}
	}
	return closed
}

// Drawdown derives the decline-from-running-peak series of an equity curve:
// absolute drawdown (value minus expanding maximum, always <= 0) and the same
// as a percentage of the peak.
func Drawdown(equity []models.EquityPoint) (dd []float64, ddPct []float64) {
	dd = make([]float64, len(equity))
	ddPct = make([]float64, len(equity))

	peak := 0.0
	for i, pt := range equity {
		if pt.Value > peak {
			peak = pt.Value
		}
		dd[i] = pt.Value - peak
		if peak > 0 {
			ddPct[i] = dd[i] / peak * 100
		}
	}
	return dd, ddPct
}
