package strategy

import (
	"math"
	"testing"

	"github.com/AkioHamamura/QuantDash/internal/models"
)

// wavySeries is long enough to fill every strategy's warm-up window and
// oscillates so crossings actually happen.
func wavySeries(n int) []models.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 15*math.Sin(float64(i)/9) + 0.05*float64(i)
	}
	series := candles(closes)
	// Introduce a couple of gaps for the gap fade path.
	for i := 30; i < n; i += 50 {
		series[i].Open = series[i-1].Close * 0.97
		if series[i].Open < series[i].Low {
			series[i].Low = series[i].Open
		}
	}
	return series
}

func TestNew_DispatchAndDefaults(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		wantName  string
	}{
		{name: "1. MA Crossover", algorithm: "moving_average_crossover", wantName: "moving_average_crossover"},
		{name: "2. Bollinger", algorithm: "bollinger_breakout", wantName: "bollinger_breakout"},
		{name: "3. Dual Momentum", algorithm: "dual_momentum", wantName: "dual_momentum"},
		{name: "4. Gap Fade", algorithm: "gap_fade", wantName: "gap_fade"},
		{name: "5. RSI Pullback", algorithm: "rsi_pullback", wantName: "rsi_pullback"},
		{name: "6. Turtle", algorithm: "turtle_breakout", wantName: "turtle_breakout"},
		{name: "7. ZScore", algorithm: "zscore", wantName: "zscore"},
		{name: "8. Unknown Falls Back To MA Crossover", algorithm: "does_not_exist", wantName: "moving_average_crossover"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := New(tt.algorithm, nil)
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.algorithm, err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}

func TestNew_ParamOverridesAndValidation(t *testing.T) {
	t.Parallel()

	s, err := New("moving_average_crossover", map[string]float64{"fast_period": 5, "slow_period": 20})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	params := s.Params()
	if params["fast_period"] != 5 || params["slow_period"] != 20 {
		t.Errorf("Params() = %v, want overrides applied", params)
	}

	_, err = New("moving_average_crossover", map[string]float64{"fast_period": 30, "slow_period": 10})
	if err == nil {
		t.Fatal("New() with inverted periods should fail")
	}
	if _, ok := err.(*models.ConfigError); !ok {
		t.Errorf("New() error = %T, want *models.ConfigError", err)
	}

	if _, err := New("zscore", map[string]float64{"entry_threshold": -1}); err == nil {
		t.Error("New(zscore) with negative entry threshold should fail")
	}
	if _, err := New("gap_fade", map[string]float64{"gap_threshold": 0}); err == nil {
		t.Error("New(gap_fade) with zero gap threshold should fail")
	}
}

func TestCatalog_MatchesFactory(t *testing.T) {
	t.Parallel()
	for algorithm, info := range Catalog() {
		s, err := New(algorithm, nil)
		if err != nil {
			t.Errorf("New(%q) with defaults failed: %v", algorithm, err)
			continue
		}
		if s.Name() != algorithm {
			t.Errorf("Name() = %q, want %q", s.Name(), algorithm)
		}
		params := s.Params()
		for name, spec := range info.Parameters {
			got, ok := params[name]
			if !ok {
				t.Errorf("%s: parameter %q not reported by Params()", algorithm, name)
				continue
			}
			if got != spec.Default {
				t.Errorf("%s: parameter %q = %v, want default %v", algorithm, name, got, spec.Default)
			}
		}
	}
}

func TestAllStrategies_SignalContract(t *testing.T) {
	series := wavySeries(300)

	for algorithm := range Catalog() {
		algorithm := algorithm
		t.Run(algorithm, func(t *testing.T) {
			t.Parallel()
			s, err := New(algorithm, nil)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			signaled, err := s.GenerateSignals(series)
			if err != nil {
				t.Fatalf("GenerateSignals() error = %v", err)
			}
			if len(signaled) != len(series) {
				t.Fatalf("len(signaled) = %d, want %d", len(signaled), len(series))
			}
			if err := models.ValidateSignals(signaled); err != nil {
				t.Errorf("signal contract violated: %v", err)
			}
			for i := range signaled {
				if !signaled[i].Date.Equal(series[i].Date) {
					t.Fatalf("row %d reordered", i)
				}
			}
		})
	}
}

func TestAllStrategies_ShortSeriesIsUnsignaled(t *testing.T) {
	series := candles([]float64{100, 101, 102})

	for algorithm := range Catalog() {
		algorithm := algorithm
		t.Run(algorithm, func(t *testing.T) {
			t.Parallel()
			s, err := New(algorithm, nil)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			signaled, err := s.GenerateSignals(series)
			if err != nil {
				t.Fatalf("GenerateSignals() error = %v", err)
			}
			for i, row := range signaled {
				if row.Buy || row.Sell {
					t.Errorf("row %d signaled inside the warm-up window", i)
				}
			}
		})
	}
}
