package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/backtest"
	"github.com/AkioHamamura/QuantDash/internal/cache"
	"github.com/AkioHamamura/QuantDash/internal/logger"
	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/AkioHamamura/QuantDash/internal/storage"
	"github.com/AkioHamamura/QuantDash/strategy"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// batchLimit caps how many backtests of one batch request run at once.
const batchLimit = 4

type Server struct {
	listenAddress string
	fetcher       *YahooClient
	candles       storage.CandleStorage
	results       storage.ResultStorage
	cache         *cache.CandleCache
	initialCash   float64
	riskFreeRate  float64
	router        *http.ServeMux
	infoLog       *log.Logger
	errorLog      *log.Logger
}

// NewServer wires the handlers. candles, results and cache may each be nil;
// the server then runs fetch-only without the corresponding tier.
func NewServer(
	addr string,
	fetcher *YahooClient,
	candles storage.CandleStorage,
	results storage.ResultStorage,
	candleCache *cache.CandleCache,
	initialCash float64,
	riskFreeRate float64,
) *Server {
	return &Server{
		listenAddress: addr,
		fetcher:       fetcher,
		candles:       candles,
		results:       results,
		cache:         candleCache,
		initialCash:   initialCash,
		riskFreeRate:  riskFreeRate,
		router:        &http.ServeMux{},
		infoLog:       logger.Info,
		errorLog:      logger.Error,
	}
}

func (s *Server) Run() {
	s.infoLog.Printf("Server listening on localhost%s\n", s.listenAddress)
	err := http.ListenAndServe(s.listenAddress, s.routes())
	if err != nil {
		s.errorLog.Fatalf("error listening on %s: %v", s.listenAddress, err)
	}
}

func (s *Server) routes() http.Handler {
	s.router = http.NewServeMux()

	s.router.HandleFunc("/health", s.healthHandler)
	s.router.HandleFunc("/api/v1/strategies", s.strategiesHandler)
	s.router.HandleFunc("/api/v1/backtest", s.backtestHandler)
	s.router.HandleFunc("/api/v1/backtest/batch", s.batchBacktestHandler)
	s.router.HandleFunc("/api/v1/results/", s.resultHandler)
	s.router.HandleFunc("/ws/backtest", s.websocketBacktestHandler)

	// Chain middlewares here
	return s.recoverPanic(s.logRequest(s.secureHeader(s.router)))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.clientError(w, http.StatusMethodNotAllowed, "")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": s.candles != nil,
		"results": s.results != nil,
		"cache":   s.cache != nil,
	}); err != nil {
		s.serverError(w, err)
	}
}

func (s *Server) strategiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.clientError(w, http.StatusMethodNotAllowed, "")
		return
	}

	if err := WriteJSON(w, http.StatusOK, strategy.Catalog()); err != nil {
		s.serverError(w, err)
	}
}

func (s *Server) backtestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.clientError(w, http.StatusMethodNotAllowed, "")
		return
	}

	req := &models.BacktestRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.errorLog.Println(err)
		s.clientError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	resp, status, err := s.runBacktest(r.Context(), req)
	if err != nil {
		s.errorLog.Println(err)
		if status >= http.StatusInternalServerError {
			s.serverError(w, err)
		} else {
			s.clientError(w, status, err.Error())
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		s.serverError(w, err)
	}
}

// batchBacktestHandler runs several requests concurrently and reports
// per-request outcomes in input order.
func (s *Server) batchBacktestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.clientError(w, http.StatusMethodNotAllowed, "")
		return
	}

	var reqs []models.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		s.errorLog.Println(err)
		s.clientError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(reqs) == 0 {
		s.clientError(w, http.StatusBadRequest, "empty batch")
		return
	}

	responses := make([]map[string]any, len(reqs))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchLimit)
	for i := range reqs {
		i := i
		g.Go(func() error {
			resp, _, err := s.runBacktest(ctx, &reqs[i])
			if err != nil {
				responses[i] = map[string]any{"success": false, "error": err.Error()}
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	// Individual failures are reported in place, never aborting the batch.
	_ = g.Wait()

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": responses,
	}); err != nil {
		s.serverError(w, err)
	}
}

// resultHandler returns a previously persisted run by its id.
func (s *Server) resultHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.clientError(w, http.StatusMethodNotAllowed, "")
		return
	}
	if s.results == nil {
		s.clientError(w, http.StatusServiceUnavailable, "result storage not configured")
		return
	}

	id := r.URL.Path[len("/api/v1/results/"):]
	if id == "" {
		s.notFound(w)
		return
	}

	res, err := s.results.GetResult(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.notFound(w)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    frontendResult(res),
	}); err != nil {
		s.serverError(w, err)
	}
}

func (s *Server) websocketBacktestHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.serverError(w, err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	req := &models.BacktestRequest{}
	if err := wsjson.Read(ctx, conn, req); err != nil {
		s.errorLog.Printf("WebSocket read error: %v - %v\n", err, websocket.CloseStatus(err))
		return
	}

	progress := func(stage string) {
		_ = wsjson.Write(ctx, conn, map[string]any{"stage": stage})
	}

	progress("fetching")
	resp, _, err := s.runBacktestStaged(ctx, req, progress)
	if err != nil {
		_ = wsjson.Write(ctx, conn, map[string]any{"success": false, "error": err.Error()})
		conn.Close(websocket.StatusNormalClosure, "done")
		return
	}

	// Stream the equity curve point by point, then the full result bundle.
	if data, ok := resp["data"].(map[string]any); ok {
		if equity, ok := data["portfolio_values"].([]models.EquityPoint); ok {
			for i := range equity {
				if err := wsjson.Write(ctx, conn, equity[i]); err != nil {
					s.errorLog.Printf("Error writing data to WebSocket: %v\n", err)
					return
				}
			}
		}
	}

	if err := wsjson.Write(ctx, conn, resp); err != nil {
		s.errorLog.Printf("Error writing data to WebSocket: %v\n", err)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "done")
}

func (s *Server) runBacktest(ctx context.Context, req *models.BacktestRequest) (map[string]any, int, error) {
	return s.runBacktestStaged(ctx, req, func(string) {})
}

// runBacktestStaged is the full request pipeline: resolve defaults, load the
// series, build the strategy, run the engine, persist, shape the response.
// The returned int is the HTTP status to use when err is non-nil.
func (s *Server) runBacktestStaged(
	ctx context.Context,
	req *models.BacktestRequest,
	progress func(stage string),
) (map[string]any, int, error) {
	if req.Symbol == "" {
		return nil, http.StatusBadRequest, errors.New("symbol is required")
	}
	if req.Period == "" {
		req.Period = "1y"
	}
	if req.Algorithm == "" {
		req.Algorithm = "moving_average_crossover"
	}
	if req.InitialCash <= 0 {
		req.InitialCash = s.initialCash
	}
	riskFreeRate := s.riskFreeRate
	if req.RiskFreeRate != nil {
		riskFreeRate = *req.RiskFreeRate
	}
	if err := ValidatePeriod(req.Period); err != nil {
		return nil, http.StatusBadRequest, err
	}

	series, err := s.loadCandles(ctx, req.Symbol, req.Period)
	if err != nil {
		var reqErr *models.RequestError
		if errors.As(err, &reqErr) {
			return nil, http.StatusBadGateway, err
		}
		return nil, http.StatusInternalServerError, err
	}

	progress("running")

	strat, err := strategy.New(req.Algorithm, req.Params)
	if err != nil {
		var cfgErr *models.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, http.StatusUnprocessableEntity, err
		}
		return nil, http.StatusInternalServerError, err
	}

	engine := backtest.NewEngine(strat, req.InitialCash, riskFreeRate)
	result, viz, err := engine.Run(series)
	if err != nil {
		var schemaErr *models.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, http.StatusUnprocessableEntity, err
		}
		return nil, http.StatusInternalServerError, err
	}

	resp := map[string]any{
		"success":        true,
		"data":           frontendResult(result),
		"visualizations": viz,
	}

	if s.results != nil {
		id, err := s.results.SaveResult(ctx, req.Symbol, result)
		if err != nil {
			// Persistence is best effort; the run already succeeded.
			s.errorLog.Printf("saving result for %s: %v", req.Symbol, err)
		} else {
			resp["run_id"] = id
		}
	}
	return resp, http.StatusOK, nil
}

// loadCandles resolves the price series through the tiers: Redis first,
// then the durable candle store, then a fresh upstream fetch that back-fills
// both tiers.
func (s *Server) loadCandles(ctx context.Context, symbol, period string) ([]models.Candle, error) {
	if s.cache != nil {
		candles, err := s.cache.Get(ctx, symbol, period)
		if err != nil {
			s.errorLog.Printf("cache read for %s: %v", symbol, err)
		} else if candles != nil {
			return candles, nil
		}
	}

	candles, fetchErr := s.fetcher.FetchCandles(ctx, symbol, period)
	if fetchErr != nil {
		// Upstream down: fall back to whatever the durable store has.
		if s.candles != nil {
			if start, ok := periodStart(period); ok {
				stored, err := s.candles.FetchCandles(ctx, symbol, start, time.Now())
				if err == nil && len(stored) > 0 {
					s.infoLog.Printf("serving %d stored candles for %s after fetch failure", len(stored), symbol)
					return stored, nil
				}
			}
		}
		return nil, fetchErr
	}

	if s.candles != nil {
		if err := s.candles.SaveCandles(ctx, symbol, candles); err != nil {
			s.errorLog.Printf("storing candles for %s: %v", symbol, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, symbol, period, candles); err != nil {
			s.errorLog.Printf("caching candles for %s: %v", symbol, err)
		}
	}
	return candles, nil
}

// periodStart maps a trailing range string to its start time. ytd and max
// anchor to the year start and the epoch respectively.
func periodStart(period string) (time.Time, bool) {
	now := time.Now().UTC()
	switch period {
	case "1mo":
		return now.AddDate(0, -1, 0), true
	case "3mo":
		return now.AddDate(0, -3, 0), true
	case "6mo":
		return now.AddDate(0, -6, 0), true
	case "1y":
		return now.AddDate(-1, 0, 0), true
	case "2y":
		return now.AddDate(-2, 0, 0), true
	case "5y":
		return now.AddDate(-5, 0, 0), true
	case "10y":
		return now.AddDate(-10, 0, 0), true
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), true
	case "max":
		return time.Unix(0, 0).UTC(), true
	}
	return time.Time{}, false
}

// frontendResult maps the metric bundle to the field names the frontend
// charts expect. Non-finite ratios become null.
func frontendResult(res *models.Result) map[string]any {
	return map[string]any{
		"strategy":              res.Strategy,
		"parameters":            res.Parameters,
		"total_return":          res.TotalReturnPct,
		"final_value":           res.FinalValue,
		"sharpe_ratio":          jsonRatio(res.SharpeRatio),
		"sortino_ratio":         jsonRatio(res.SortinoRatio),
		"max_drawdown":          res.MaxDrawdownPct,
		"max_drawdown_duration": res.MaxDrawdownDuration,
		"volatility_pct":        res.VolatilityPct,
		"win_rate":              res.WinRatePct,
		"total_trades":          res.TotalTrades,
		"portfolio_values":      res.EquityCurve,
		"trades":                res.Trades,
	}
}
