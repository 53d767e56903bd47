package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/models"
)

func equityOf(values ...float64) []models.EquityPoint {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	equity := make([]models.EquityPoint, len(values))
	for i, v := range values {
		equity[i] = models.EquityPoint{Date: base.AddDate(0, 0, i), Value: v}
	}
	return equity
}

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name   string
		equity []models.EquityPoint
		rf     float64
		want   float64
	}{
		{
			name:   "1. Constant Equity Has No Variance",
			equity: equityOf(1000, 1000, 1000, 1000),
			want:   0,
		},
		{
			name:   "2. Too Few Points",
			equity: equityOf(1000, 1100),
			want:   0,
		},
		{
			name:   "3. Empty Curve",
			equity: nil,
			want:   0,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SharpeRatio(tt.equity, tt.rf); got != tt.want {
				t.Errorf("SharpeRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSharpeRatio_Sign(t *testing.T) {
	t.Parallel()
	up := SharpeRatio(equityOf(1000, 1010, 1025, 1030, 1050), 0)
	if up <= 0 {
		t.Errorf("rising curve SharpeRatio() = %v, want > 0", up)
	}
	down := SharpeRatio(equityOf(1000, 990, 975, 970, 950), 0)
	if down >= 0 {
		t.Errorf("falling curve SharpeRatio() = %v, want < 0", down)
	}
}

func TestSortinoRatio(t *testing.T) {
	t.Parallel()

	// Strictly rising curve has no downside at all.
	if got := SortinoRatio(equityOf(1000, 1010, 1020, 1030), 0); !math.IsInf(got, 1) {
		t.Errorf("SortinoRatio() = %v, want +Inf", got)
	}

	// One losing day makes the ratio finite again.
	got := SortinoRatio(equityOf(1000, 1010, 1005, 1030), 0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("SortinoRatio() = %v, want a finite value", got)
	}

	if got := SortinoRatio(equityOf(1000, 1000), 0); got != 0 {
		t.Errorf("SortinoRatio() with one return = %v, want 0", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name         string
		equity       []models.EquityPoint
		wantPct      float64
		wantDuration int
	}{
		{
			name:         "1. Monotonic Rise Has No Drawdown",
			equity:       equityOf(1000, 1100, 1200),
			wantPct:      0,
			wantDuration: 0,
		},
		{
			name:         "2. Single Dip Recovered",
			equity:       equityOf(1000, 900, 1000, 1100),
			wantPct:      -10,
			wantDuration: 1,
		},
		{
			name:         "3. Longest Run Wins",
			equity:       equityOf(1000, 950, 1000, 990, 980, 970, 1000),
			wantPct:      -5,
			wantDuration: 3,
		},
		{
			name:         "4. Open Drawdown At Series End Counts",
			equity:       equityOf(1000, 1100, 1000, 990, 980),
			wantPct:      -1200.0 / 11,
			wantDuration: 3,
		},
		{
			name:         "5. Too Few Points",
			equity:       equityOf(1000),
			wantPct:      0,
			wantDuration: 0,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pct, duration := MaxDrawdown(tt.equity)
			if math.Abs(pct-tt.wantPct) > 1e-9 {
				t.Errorf("MaxDrawdown() pct = %v, want %v", pct, tt.wantPct)
			}
			if duration != tt.wantDuration {
				t.Errorf("MaxDrawdown() duration = %v, want %v", duration, tt.wantDuration)
			}
		})
	}
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		name   string
		closed []models.Trade
		want   float64
	}{
		{
			name:   "1. No Closed Trades",
			closed: nil,
			want:   0,
		},
		{
			name: "2. All Winners",
			closed: []models.Trade{
				{ProfitLoss: 100},
				{ProfitLoss: 1},
			},
			want: 100,
		},
		{
			name: "3. Mixed, Breakeven Is Not A Win",
			closed: []models.Trade{
				{ProfitLoss: 50},
				{ProfitLoss: 0},
				{ProfitLoss: -20},
				{ProfitLoss: 10},
			},
			want: 50,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WinRate(tt.closed); got != tt.want {
				t.Errorf("WinRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolatility(t *testing.T) {
	t.Parallel()
	if got := Volatility(equityOf(1000, 1000, 1000)); got != 0 {
		t.Errorf("constant curve Volatility() = %v, want 0", got)
	}
	if got := Volatility(equityOf(1000, 1100, 1000, 1100)); got <= 0 {
		t.Errorf("oscillating curve Volatility() = %v, want > 0", got)
	}
}

func TestComprehensive(t *testing.T) {
	t.Parallel()
	equity := equityOf(1000, 1050, 1020, 1100)
	closed := []models.Trade{{ProfitLoss: 100}}

	res := Comprehensive("moving_average_crossover", map[string]float64{"fast_period": 12}, 1000, equity, closed, 0)

	if res.FinalValue != 1100 {
		t.Errorf("FinalValue = %v, want 1100", res.FinalValue)
	}
	if math.Abs(res.TotalReturnPct-10) > 1e-9 {
		t.Errorf("TotalReturnPct = %v, want 10", res.TotalReturnPct)
	}
	if res.TotalTrades != 1 || res.WinRatePct != 100 {
		t.Errorf("TotalTrades/WinRatePct = %v/%v, want 1/100", res.TotalTrades, res.WinRatePct)
	}
}

func TestComprehensive_Deterministic(t *testing.T) {
	t.Parallel()
	equity := equityOf(1000, 1050, 1020, 1100)
	closed := []models.Trade{{ProfitLoss: 100}}

	a := Comprehensive("zscore", nil, 1000, equity, closed, 0.02)
	b := Comprehensive("zscore", nil, 1000, equity, closed, 0.02)

	if a.SharpeRatio != b.SharpeRatio || a.SortinoRatio != b.SortinoRatio ||
		a.MaxDrawdownPct != b.MaxDrawdownPct || a.VolatilityPct != b.VolatilityPct {
		t.Error("Comprehensive() is not deterministic for identical inputs")
	}
}

func TestFinalValue(t *testing.T) {
	t.Parallel()
	if got := FinalValue(1000, nil); got != 1000 {
		t.Errorf("FinalValue(empty) = %v, want 1000", got)
	}
	if got := FinalValue(1000, equityOf(900, 1200)); got != 1200 {
		t.Errorf("FinalValue() = %v, want 1200", got)
	}
}
