package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wonny/winners/internal/api/handlers"
	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/s0_data/memstore"
	"github.com/wonny/winners/internal/s0_data/quality"
	"github.com/wonny/winners/internal/s1_returns"
	"github.com/wonny/winners/internal/s2_fundamentals"
	"github.com/wonny/winners/internal/selection"
	"github.com/wonny/winners/pkg/config"
	"github.com/wonny/winners/pkg/database"
	"github.com/wonny/winners/pkg/logger"
	"github.com/wonny/winners/pkg/redis"
)

var firstDay = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ticker string
	start  float64 // first close
	growth float64 // daily price growth
	shares float64
	sales  float64 // annual revenue growth
}

// seedStore loads 12 daily prices per ticker (11 log returns), a quarterly
// and an annual report on 2023-12-31 and four years of annual revenue.
func seedStore(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()

	fixtures := []fixture{
		{ticker: "AAA", start: 50, growth: 0.05, shares: 10_000_000, sales: 0.20},
		{ticker: "BBB", start: 40, growth: 0.01, shares: 5_000_000, sales: 0.15},
	}

	for _, f := range fixtures {
		store.AddInstruments(contracts.Instrument{
			Ticker: f.ticker, Name: f.ticker + " Corp", Sector: "Tech", Exchange: "NASDAQ", Active: true,
		})

		price := f.start
		for i := 0; i < 12; i++ {
			store.AddPrices(contracts.PriceObservation{
				Ticker:    f.ticker,
				TradeDate: firstDay.AddDate(0, 0, i),
				Close:     null.FloatFrom(price),
				AdjClose:  null.FloatFrom(price),
			})
			price *= 1 + f.growth
		}

		store.AddReports(contracts.FundamentalReport{
			Ticker:            f.ticker,
			PeriodEndDate:     time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			ReportType:        contracts.ReportQuarterly,
			EBIT:              null.FloatFrom(20_000_000),
			NetIncome:         null.FloatFrom(1_000_000),
			SharesOutstanding: null.FloatFrom(f.shares),
		})

		revenue := 100_000_000.0
		for year := 2020; year <= 2023; year++ {
			store.AddReports(contracts.FundamentalReport{
				Ticker:            f.ticker,
				PeriodEndDate:     time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
				ReportType:        contracts.ReportAnnual,
				Revenue:           null.FloatFrom(revenue),
				NetIncome:         null.FloatFrom(2_000_000),
				SharesOutstanding: null.FloatFrom(f.shares),
			})
			revenue *= 1 + f.sales
		}
	}
	return store
}

func newTestRouter(store *memstore.Store, limiter *rate.Limiter) http.Handler {
	log := logger.NewNop()

	ranker := selection.NewRanker(store, selection.DefaultMinCoverage, log)
	ratios := s2_fundamentals.NewRatioEngine(store, s2_fundamentals.NewJoiner(store), log)
	cagr := s2_fundamentals.NewCAGRCalculator(store)
	screener := selection.NewScreener(store, store, store, ranker, ratios, cagr, log)
	engine := s1_returns.NewEngine(store, store, 2, log)

	defaults := contracts.DefaultScreenCriteria()
	defaults.LookbackDays = 10
	defaults.MinRSPercentile = 0

	gateCfg := quality.DefaultConfig()
	gateCfg.LookbackDays = 10

	return NewRouter(Handlers{
		Screen:       handlers.NewScreenHandler(screener, defaults, log),
		Returns:      handlers.NewReturnsHandler(engine, ranker, 10, 10, log),
		Fundamentals: handlers.NewFundamentalsHandler(store, ratios, cagr, log),
		Data:         handlers.NewDataHandler(quality.NewGate(store, store, store, store, gateCfg, log), log),
	}, limiter, log)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(memstore.New(), nil), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestRecomputeThenScreen(t *testing.T) {
	store := seedStore(t)
	router := newTestRouter(store, nil)

	rec := do(t, router, "POST", "/api/returns/recompute", `{"mode":"full"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode(t, rec)
	assert.Equal(t, float64(22), report["rows_upserted"])
	assert.Equal(t, float64(2), report["tickers"])

	rec = do(t, router, "GET", "/api/screen", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var screen contracts.ScreenReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
	require.Len(t, screen.Results, 2)
	assert.Equal(t, "AAA", screen.Results[0].Ticker)
	assert.Equal(t, 100.0, screen.Results[0].RSPercentile)
	assert.InDelta(t, 500_000_000, screen.Results[0].MarketCap, 1e-6)
	assert.Equal(t, 2, screen.Summary.Count)
	assert.Equal(t, 2, screen.Summary.SectorDistribution["Tech"])

	// BBB drops out once the percentile threshold is raised
	rec = do(t, router, "GET", "/api/screen?min_rs_percentile=50", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
	require.Len(t, screen.Results, 1)
	assert.Equal(t, "AAA", screen.Results[0].Ticker)

	rec = do(t, router, "GET", "/api/screen/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "ticker", records[0][0])
	assert.Equal(t, "AAA", records[1][0])
}

func TestScreen_InvalidParameters(t *testing.T) {
	router := newTestRouter(seedStore(t), nil)

	for _, q := range []string{
		"min_price=NaN",
		"min_market_cap=abc",
		"min_rs_percentile=150",
		"lookback_days=0",
		"lookback_days=5&lookback_months=1",
	} {
		rec := do(t, router, "GET", "/api/screen?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.NotEmpty(t, decode(t, rec)["error"], q)
	}
}

func TestRecompute_Modes(t *testing.T) {
	router := newTestRouter(seedStore(t), nil)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"unknown mode", `{"mode":"weekly"}`, http.StatusBadRequest},
		{"negative window", `{"mode":"incremental","window_days":-1}`, http.StatusBadRequest},
		{"bad json", `{"mode":`, http.StatusBadRequest},
		{"unknown field", `{"mode":"full","force":true}`, http.StatusBadRequest},
		{"incremental default window", `{"mode":"incremental"}`, http.StatusOK},
		{"incremental explicit window", `{"mode":"incremental","window_days":3}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, "POST", "/api/returns/recompute", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, router, "POST", "/api/returns/recompute", `{"mode":"incremental"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	mode := decode(t, rec)["mode"].(map[string]interface{})
	assert.Equal(t, "incremental", mode["mode"])
	assert.Equal(t, float64(10), mode["window_days"])
}

func TestRankings(t *testing.T) {
	store := seedStore(t)
	router := newTestRouter(store, nil)
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/returns/recompute", `{"mode":"full"}`).Code)

	rec := do(t, router, "GET", "/api/rankings?lookback_days=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total"])
	rankings := body["rankings"].([]interface{})
	require.Len(t, rankings, 2)
	first := rankings[0].(map[string]interface{})
	assert.Equal(t, "AAA", first["ticker"])
	assert.Equal(t, float64(100), first["rs_percentile"])

	rec = do(t, router, "GET", "/api/rankings?lookback_days=10&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["rankings"].([]interface{}), 1)

	assert.Equal(t, http.StatusBadRequest, do(t, router, "GET", "/api/rankings?lookback_days=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "GET", "/api/rankings?lookback_days=x", "").Code)
}

func TestRatios(t *testing.T) {
	router := newTestRouter(seedStore(t), nil)

	// newest report: quarterly wins the 2023-12-31 tie
	rec := do(t, router, "GET", "/api/instruments/AAA/ratios", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "quarterly", body["report_type"])
	assert.InDelta(t, 500_000_000, body["market_cap"].(float64), 1e-6)
	assert.InDelta(t, 500, body["pe_ratio"].(float64), 1e-9)

	// point-in-time join: first price on or after the period end
	rec = do(t, router, "GET", "/api/instruments/AAA/ratios?period=2022-12-31&type=FY", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "annual", body["report_type"])
	assert.Equal(t, firstDay.Format(time.RFC3339), body["price_date"])

	tests := []struct {
		target   string
		wantCode int
	}{
		{"/api/instruments/AAA/ratios?period=2019-12-31&type=annual", http.StatusNotFound},
		{"/api/instruments/AAA/ratios?type=weekly", http.StatusBadRequest},
		{"/api/instruments/AAA/ratios?period=31-12-2023", http.StatusBadRequest},
		{"/api/instruments/ZZZ/ratios", http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantCode, do(t, router, "GET", tt.target, "").Code, tt.target)
	}
}

func TestCAGR(t *testing.T) {
	router := newTestRouter(seedStore(t), nil)

	rec := do(t, router, "GET", "/api/instruments/AAA/cagr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.20, decode(t, rec)["revenue_cagr_3y"].(float64), 1e-9)

	rec = do(t, router, "GET", "/api/instruments/ZZZ/cagr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["revenue_cagr_3y"])
}

func TestCoverage(t *testing.T) {
	store := seedStore(t)
	router := newTestRouter(store, nil)
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/returns/recompute", `{"mode":"full"}`).Code)

	rec := do(t, router, "GET", "/api/data/coverage", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total_stocks"])
	assert.Equal(t, true, body["passed"])
}

func TestRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	router := newTestRouter(seedStore(t), limiter)

	assert.Equal(t, http.StatusOK, do(t, router, "GET", "/api/rankings?lookback_days=10", "").Code)

	rec := do(t, router, "GET", "/api/rankings?lookback_days=10", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// cheap reads and health are never throttled
	assert.Equal(t, http.StatusOK, do(t, router, "GET", "/api/instruments/AAA/cagr", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, "GET", "/health", "").Code)
}

type stubDB struct {
	status *database.HealthStatus
	err    error
}

func (s stubDB) HealthCheck(context.Context) (*database.HealthStatus, error) { return s.status, s.err }

type stubCache struct{ health redis.CacheHealth }

func (s stubCache) Health(context.Context) redis.CacheHealth { return s.health }

func TestHealth_Dependencies(t *testing.T) {
	tests := []struct {
		name       string
		db         handlers.DatabaseChecker
		cache      handlers.CacheChecker
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			db:         stubDB{status: &database.HealthStatus{Healthy: true}},
			cache:      stubCache{redis.CacheHealth{Enabled: true, Healthy: true, Generation: 4}},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "missing tables",
			db:         stubDB{status: &database.HealthStatus{MissingTables: []string{"ohlcv"}, Error: "missing tables: ohlcv"}},
			cache:      stubCache{redis.CacheHealth{Healthy: true}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "down",
		},
		{
			name:       "ping failed",
			db:         stubDB{status: &database.HealthStatus{Error: "refused"}, err: errors.New("refused")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "down",
		},
		{
			name:       "cache down only degrades",
			db:         stubDB{status: &database.HealthStatus{Healthy: true}},
			cache:      stubCache{redis.CacheHealth{Enabled: true, Error: "timeout"}},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewNop()
			router := NewRouter(Handlers{Health: handlers.NewHealthHandler(tt.db, tt.cache, log)}, nil, log)

			rec := do(t, router, "GET", "/health", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, decode(t, rec)["status"])
		})
	}
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	srv := &Server{httpServer: &http.Server{}, logger: logger.NewNop()}
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Port: "0",
		API:  config.APIConfig{WriteTimeout: time.Second, ShutdownTimeout: time.Second},
	}
	srv := New(cfg, logger.NewNop(), http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
