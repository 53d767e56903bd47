package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func validCandle(n int, close float64) Candle {
	return Candle{
		Date:   day(n),
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name    string
		series  []Candle
		wantErr bool
	}{
		{
			name:    "1. Empty Series",
			series:  nil,
			wantErr: true,
		},
		{
			name:    "2. Valid Series",
			series:  []Candle{validCandle(0, 100), validCandle(1, 101)},
			wantErr: false,
		},
		{
			name: "3. NaN Close",
			series: func() []Candle {
				c := validCandle(0, 100)
				c.Close = math.NaN()
				return []Candle{c}
			}(),
			wantErr: true,
		},
		{
			name: "4. Non-Positive Price",
			series: func() []Candle {
				c := validCandle(0, 100)
				c.Low = 0
				return []Candle{c}
			}(),
			wantErr: true,
		},
		{
			name: "5. High Below Close",
			series: func() []Candle {
				c := validCandle(0, 100)
				c.High = 98
				return []Candle{c}
			}(),
			wantErr: true,
		},
		{
			name: "6. Low Above Open",
			series: func() []Candle {
				c := validCandle(0, 100)
				c.Low = 101
				c.High = 103
				return []Candle{c}
			}(),
			wantErr: true,
		},
		{
			name: "7. Negative Volume",
			series: func() []Candle {
				c := validCandle(0, 100)
				c.Volume = -1
				return []Candle{c}
			}(),
			wantErr: true,
		},
		{
			name:    "8. Duplicate Timestamp",
			series:  []Candle{validCandle(0, 100), validCandle(0, 101)},
			wantErr: true,
		},
		{
			name:    "9. Out Of Order",
			series:  []Candle{validCandle(1, 100), validCandle(0, 101)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSeries(tt.series)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSeries() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil {
				if _, ok := err.(*SchemaError); !ok {
					t.Errorf("ValidateSeries() error = %T, want *SchemaError", err)
				}
			}
		})
	}
}

func TestValidateSignals(t *testing.T) {
	t.Parallel()

	ok := []SignaledCandle{
		{Candle: validCandle(0, 100), Buy: true},
		{Candle: validCandle(1, 101)},
		{Candle: validCandle(2, 102), Sell: true},
	}
	if err := ValidateSignals(ok); err != nil {
		t.Errorf("ValidateSignals() error = %v, want nil", err)
	}

	both := []SignaledCandle{{Candle: validCandle(0, 100), Buy: true, Sell: true}}
	if err := ValidateSignals(both); err == nil {
		t.Error("ValidateSignals() should reject buy and sell on one row")
	}

	missing := []SignaledCandle{{Candle: Candle{Date: day(0)}}}
	if err := ValidateSignals(missing); err == nil {
		t.Error("ValidateSignals() should reject a zero close")
	}
}

func TestResult_JSONRoundTripInfiniteSortino(t *testing.T) {
	t.Parallel()
	res := &Result{
		Strategy:     "moving_average_crossover",
		InitialCash:  1000,
		FinalValue:   1300,
		SharpeRatio:  2.5,
		SortinoRatio: math.Inf(1),
	}

	payload, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["sortino_ratio"] != nil {
		t.Errorf("sortino_ratio = %v, want null", fields["sortino_ratio"])
	}
	if fields["sharpe_ratio"] != 2.5 {
		t.Errorf("sharpe_ratio = %v, want 2.5", fields["sharpe_ratio"])
	}

	got := &Result{}
	if err := json.Unmarshal(payload, got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !math.IsInf(got.SortinoRatio, 1) {
		t.Errorf("round-tripped SortinoRatio = %v, want +Inf", got.SortinoRatio)
	}
	if got.SharpeRatio != 2.5 || got.FinalValue != 1300 {
		t.Errorf("round-tripped Sharpe/FinalValue = %v/%v, want 2.5/1300", got.SharpeRatio, got.FinalValue)
	}
}

func TestResult_JSONFiniteRatiosUnchanged(t *testing.T) {
	t.Parallel()
	res := &Result{SharpeRatio: -0.8, SortinoRatio: 1.2}

	payload, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	got := &Result{}
	if err := json.Unmarshal(payload, got); err != nil {
		t.Fatal(err)
	}
	if got.SharpeRatio != -0.8 || got.SortinoRatio != 1.2 {
		t.Errorf("ratios = %v/%v, want -0.8/1.2", got.SharpeRatio, got.SortinoRatio)
	}
}

func TestTrade_Closed(t *testing.T) {
	t.Parallel()
	open := Trade{EntryDate: day(0), EntryPrice: 100, Shares: 10}
	if open.Closed() {
		t.Error("trade without exit should be open")
	}
	open.ExitDate = day(5)
	if !open.Closed() {
		t.Error("trade with exit date should be closed")
	}
}

func TestPosition_String(t *testing.T) {
	t.Parallel()
	for pos, want := range map[Position]string{
		Flat:        "FLAT",
		Long:        "LONG",
		Short:       "SHORT",
		Position(9): "Position(9)",
	} {
		if got := pos.String(); got != want {
			t.Errorf("Position.String() = %q, want %q", got, want)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		" aapl ":  "AAPL",
		"msft":    "MSFT",
		"BRK-B":   "BRK-B",
		"\tnvda ": "NVDA",
	} {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
