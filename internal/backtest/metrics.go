package backtest

import (
	"math"

	"github.com/AkioHamamura/QuantDash/internal/models"
)

// tradingDays is the annualization factor for daily bars. Fixed by
// convention, not configurable; the ratio tests depend on it.
const tradingDays = 252

// FinalValue is the last portfolio value, or the starting cash when the
// equity curve is empty.
func FinalValue(initialCash float64, equity []models.EquityPoint) float64 {
	if len(equity) == 0 {
		return initialCash
	}
	return equity[len(equity)-1].Value
}

// WinRate is the percentage of closed trades with a positive profit, 0 when
// there are none.
func WinRate(closed []models.Trade) float64 {
	if len(closed) == 0 {
		return 0
	}
	wins := 0
	for _, t := range closed {
		if t.ProfitLoss > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(closed)) * 100
}

// dailyReturns is the percentage change between consecutive portfolio
// values; the first row has no defined return and is dropped.
func dailyReturns(equity []models.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	return returns
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation (n-1 denominator, matching the
// pandas default the metric definitions came with). Undefined below two
// observations.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// SharpeRatio is the annualized excess return over total volatility.
// riskFreeRate is annual; 0 when there are fewer than two return
// observations or the returns have no variance.
func SharpeRatio(equity []models.EquityPoint, riskFreeRate float64) float64 {
	returns := dailyReturns(equity)
	if len(returns) < 2 {
		return 0
	}
	sd := stdev(returns)
	if sd == 0 {
		return 0
	}

	dailyRF := riskFreeRate / tradingDays
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}
	return mean(excess) / sd * math.Sqrt(tradingDays)
}

// SortinoRatio is the annualized excess return over downside volatility
// only. +Inf when no excess return was negative (no downside observed);
// 0 when the downside deviation is undefined or zero.
func SortinoRatio(equity []models.EquityPoint, riskFreeRate float64) float64 {
	returns := dailyReturns(equity)
	if len(returns) < 2 {
		return 0
	}

	dailyRF := riskFreeRate / tradingDays
	excess := make([]float64, len(returns))
	var downside []float64
	for i, r := range returns {
		excess[i] = r - dailyRF
		if excess[i] < 0 {
			downside = append(downside, excess[i])
		}
	}

	if len(downside) == 0 {
		return math.Inf(1)
	}
	sd := stdev(downside)
	if sd == 0 {
		return 0
	}
	return mean(excess) / sd * math.Sqrt(tradingDays)
}

// MaxDrawdown returns the worst peak-to-trough decline in percent (most
// negative value of the drawdown series) and the longest contiguous run of
// rows spent below a peak. A drawdown still open at the end of the series
// counts as closed at the last row.
func MaxDrawdown(equity []models.EquityPoint) (pct float64, duration int) {
	if len(equity) < 2 {
		return 0, 0
	}

	_, ddPct := Drawdown(equity)

	runStart := -1
	for i, dd := range ddPct {
		if dd < pct {
			pct = dd
		}
		switch {
		case dd < 0 && runStart == -1:
			runStart = i
		case dd == 0 && runStart != -1:
			if i-runStart > duration {
				duration = i - runStart
			}
			runStart = -1
		}
	}
	if runStart != -1 && len(ddPct)-runStart > duration {
		duration = len(ddPct) - runStart
	}
	return pct, duration
}

// Volatility is the annualized standard deviation of daily returns, in
// percent.
func Volatility(equity []models.EquityPoint) float64 {
	returns := dailyReturns(equity)
	if len(returns) < 2 {
		return 0
	}
	return stdev(returns) * math.Sqrt(tradingDays) * 100
}

// Comprehensive assembles the full Result bundle from a finished run. Every
// statistic is a pure function of its inputs; calling this twice on the same
// run yields identical results.
func Comprehensive(
	strategyName string,
	parameters map[string]float64,
	initialCash float64,
	equity []models.EquityPoint,
	closedTrades []models.Trade,
	riskFreeRate float64,
) *models.Result {
	finalValue := FinalValue(initialCash, equity)
	maxDD, maxDDDuration := MaxDrawdown(equity)

	return &models.Result{
		Strategy:            strategyName,
		Parameters:          parameters,
		InitialCash:         initialCash,
		FinalValue:          finalValue,
		TotalReturnPct:      (finalValue - initialCash) / initialCash * 100,
		SharpeRatio:         SharpeRatio(equity, riskFreeRate),
		SortinoRatio:        SortinoRatio(equity, riskFreeRate),
		MaxDrawdownPct:      maxDD,
		MaxDrawdownDuration: maxDDDuration,
		VolatilityPct:       Volatility(equity),
		WinRatePct:          WinRate(closedTrades),
		TotalTrades:         len(closedTrades),
		EquityCurve:         equity,
		Trades:              closedTrades,
	}
}
