// Package strategy holds the signal generators that plug into the backtest
// engine. Every strategy shares one row-iteration utility: a strategy only
// decides what position it wants to hold after each bar, and the shared loop
// turns those desired-position transitions into buy/sell flags.
package strategy

import (
	"github.com/AkioHamamura/QuantDash/internal/models"
)

// decideFunc reports the position a strategy wants to hold after row i. It
// may record indicator values on the row. pos is the strategy's own tracker
// state, which is distinct from the simulator's portfolio state: the
// generator decides when a transition is desired, the simulator decides
// whether it is possible.
type decideFunc func(i int, row *models.SignaledCandle, pos models.Position) models.Position

// generate walks the series once in time order. The first warmup rows are
// emitted unsignaled with undefined indicators (rolling windows not filled).
// Transition mapping, with exit taking precedence over entry so a flip never
// double-executes on one bar:
//
//	FLAT  -> LONG   buy
//	FLAT  -> SHORT  sell (a flat simulator ignores it; tracker bookkeeping)
//	LONG  -> other  sell, tracker goes FLAT
//	SHORT -> other  buy (the cover), tracker goes FLAT
func generate(series []models.Candle, warmup int, decide decideFunc) []models.SignaledCandle {
	signaled := make([]models.SignaledCandle, len(series))
	pos := models.Flat

	for i, c := range series {
		row := &signaled[i]
		row.Candle = c
		if i < warmup {
			continue
		}

		next := decide(i, row, pos)
		if next == pos {
			continue
		}

		switch pos {
		case models.Flat:
			if next == models.Long {
				row.Buy = true
			} else {
				row.Sell = true
			}
			pos = next
		case models.Long:
			row.Sell = true
			pos = models.Flat
		case models.Short:
			row.Buy = true
			pos = models.Flat
		}
	}
	return signaled
}

// unsignaled is the degenerate output for series shorter than a strategy's
// warm-up window: every row passes through untouched.
func unsignaled(series []models.Candle) []models.SignaledCandle {
	return generate(series, len(series), nil)
}

func closePrices(series []models.Candle) []float64 {
	closes := make([]float64, len(series))
	for i, c := range series {
		closes[i] = c.Close
	}
	return closes
}

func highPrices(series []models.Candle) []float64 {
	highs := make([]float64, len(series))
	for i, c := range series {
		highs[i] = c.High
	}
	return highs
}

func lowPrices(series []models.Candle) []float64 {
	lows := make([]float64, len(series))
	for i, c := range series {
		lows[i] = c.Low
	}
	return lows
}

func maxInt(xs ...int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
