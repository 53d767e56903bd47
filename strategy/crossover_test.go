package strategy

import (
	"testing"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/models"
)

func candles(closes []float64) []models.Candle {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make([]models.Candle, len(closes))
	for i, c := range closes {
		series[i] = models.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func TestNewMACrossover_Validation(t *testing.T) {
	tests := []struct {
		name    string
		fast    int
		slow    int
		wantErr bool
	}{
		{name: "1. Valid Defaults", fast: 12, slow: 26, wantErr: false},
		{name: "2. Fast Below One", fast: 0, slow: 26, wantErr: true},
		{name: "3. Slow Not Greater Than Fast", fast: 26, slow: 26, wantErr: true},
		{name: "4. Inverted Periods", fast: 26, slow: 12, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewMACrossover(tt.fast, tt.slow)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMACrossover() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if _, ok := err.(*models.ConfigError); !ok {
					t.Errorf("NewMACrossover() error = %T, want *models.ConfigError", err)
				}
			}
		})
	}
}

func TestMACrossover_GoldenAndDeathCross(t *testing.T) {
	t.Parallel()
	s, err := NewMACrossover(2, 3)
	if err != nil {
		t.Fatal(err)
	}

	// Fast SMA crosses above slow at index 5 and back under at index 7.
	series := candles([]float64{10, 10, 10, 9, 8, 12, 14, 10, 9})
	signaled, err := s.GenerateSignals(series)
	if err != nil {
		t.Fatalf("GenerateSignals() error = %v", err)
	}
	if len(signaled) != len(series) {
		t.Fatalf("len(signaled) = %d, want %d", len(signaled), len(series))
	}

	for i, row := range signaled {
		wantBuy := i == 5
		wantSell := i == 7
		if row.Buy != wantBuy {
			t.Errorf("row %d Buy = %v, want %v", i, row.Buy, wantBuy)
		}
		if row.Sell != wantSell {
			t.Errorf("row %d Sell = %v, want %v", i, row.Sell, wantSell)
		}
	}

	if signaled[5].Indicators["ma_fast"] <= signaled[5].Indicators["ma_slow"] {
		t.Error("buy row should have ma_fast above ma_slow")
	}
}

func TestMACrossover_WarmupRowsUnsignaled(t *testing.T) {
	t.Parallel()
	s, err := NewMACrossover(12, 26)
	if err != nil {
		t.Fatal(err)
	}

	signaled, err := s.GenerateSignals(candles([]float64{100, 101, 102, 103, 104}))
	if err != nil {
		t.Fatalf("GenerateSignals() error = %v", err)
	}
	for i, row := range signaled {
		if row.Buy || row.Sell {
			t.Errorf("row %d signaled on a series shorter than the slow period", i)
		}
		if row.Indicators != nil {
			t.Errorf("row %d has indicators during warm-up", i)
		}
	}
}
