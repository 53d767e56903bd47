package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/models"
)

/*
GET /v8/finance/chart/{symbol}

	Daily candlestick bars for a ticker over a trailing range.

	range     STRING  YES  1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max
	interval  STRING  YES  fixed to 1d here

	Rows with null OHLC entries (halted sessions) are skipped.
*/

var validPeriods = map[string]bool{
	"1mo": true,
	"3mo": true,
	"6mo": true,
	"1y":  true,
	"2y":  true,
	"5y":  true,
	"10y": true,
	"ytd": true,
	"max": true,
}

// ValidatePeriod rejects range strings the chart endpoint does not accept.
func ValidatePeriod(period string) error {
	if !validPeriods[period] {
		return fmt.Errorf("invalid period %q", period)
	}
	return nil
}

// chartResponse mirrors the slice of the chart payload we care about.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooClient fetches daily price history from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL string
	client  *http.Client
}

func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCandles downloads the daily series for symbol over the trailing
// period. Upstream failures come back as *models.RequestError with the
// response status and the elapsed request time.
func (y *YahooClient) FetchCandles(ctx context.Context, symbol, period string) ([]models.Candle, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(y.baseURL)
	sb.WriteString("/v8/finance/chart/")
	sb.WriteString(models.NormalizeSymbol(symbol))
	sb.WriteString(fmt.Sprintf("?range=%s", period))
	sb.WriteString("&interval=1d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sb.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "quantdash/1.0")

	start := time.Now()
	resp, err := y.client.Do(req)
	if err != nil {
		return nil, &models.RequestError{Err: err, Timer: time.Since(start)}
	}
	defer resp.Body.Close()

	// Check the HTTP status code
	if resp.StatusCode != http.StatusOK {
		return nil, &models.RequestError{
			Err:    fmt.Errorf("chart request for %s failed with status code %d", symbol, resp.StatusCode),
			Status: resp.StatusCode,
			Timer:  time.Since(start),
		}
	}

	// Parse the JSON response
	var cr chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}

	if cr.Chart.Error != nil {
		return nil, &models.RequestError{
			Err:    fmt.Errorf("chart error for %s: %s", symbol, cr.Chart.Error.Description),
			Status: resp.StatusCode,
			Timer:  time.Since(start),
		}
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &models.RequestError{
			Err:    fmt.Errorf("no data found for %s", symbol),
			Status: resp.StatusCode,
			Timer:  time.Since(start),
		}
	}

	res := cr.Chart.Result[0]
	quote := res.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		// Quote arrays may come back shorter than the timestamps; rows
		// without a full OHLC set are skipped, never indexed.
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		candles = append(candles, models.Candle{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}
	return candles, nil
}
