package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/database"
	"github.com/Alias1177/nicempc/internal/fixture"
	"github.com/Alias1177/nicempc/internal/metrics"
	"github.com/Alias1177/nicempc/internal/model"
	"github.com/Alias1177/nicempc/internal/screener"
	"github.com/Alias1177/nicempc/internal/trading/backtest"
)

type shortProvider struct{}

func (shortProvider) Snapshot(_ context.Context, ticker string, _ int) (model.MarketSnapshot, error) {
	return fixture.Snapshot(ticker, 1, 30), nil
}

type brokenProvider struct{}

func (brokenProvider) Snapshot(context.Context, string, int) (model.MarketSnapshot, error) {
	return model.MarketSnapshot{}, errors.New("exchange down")
}

type nanCloseProvider struct{}

func (nanCloseProvider) Snapshot(_ context.Context, ticker string, _ int) (model.MarketSnapshot, error) {
	bars := fixture.Generate(1, 100)
	bars[99].Close = math.NaN()
	return model.NewSnapshot(ticker, bars), nil
}

type testServer struct {
	srv   *Server
	store *database.DB
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()

	evaluator, err := analyze.NewEvaluator(analyze.DefaultOptions(), nil)
	require.NoError(t, err)

	store, err := database.New(context.Background(), database.ConnectionParams{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	provider := fixture.NewProvider(1)

	deps := Deps{
		Provider:   provider,
		Evaluator:  evaluator,
		Backtester: backtest.NewEngine(backtest.DefaultOptions()),
		Screener:   screener.New(provider, provider, evaluator, screener.DefaultOptions(), m),
		Store:      store,
		Metrics:    m,
	}
	if mutate != nil {
		mutate(&deps)
	}

	return &testServer{
		srv:   NewServer(NewHandler(deps), ServerOptions{Gatherer: reg}),
		store: store,
	}
}

func (ts *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := newTestServer(t, nil).get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEvaluateStoresHistory(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.get(t, "/api/evaluate/btc?count=120")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, "BTC", ev.Ticker)
	assert.Len(t, ev.Aggregate.Results, 5)
	assert.Len(t, ev.Guard.Phases, 5)
	assert.Equal(t, model.LabelWait, ev.Synthesis.Label)

	rec = ts.get(t, "/api/history?ticker=btc")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []database.EvaluationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "BTC", rows[0].Ticker)
}

func TestEvaluateCorruptBarReportsGuard(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Provider = nanCloseProvider{} })

	rec := ts.get(t, "/api/evaluate/BTC")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.False(t, ev.Guard.AllPassed)
	require.NotNil(t, ev.Guard.FailedPhase)
	assert.Equal(t, 1, *ev.Guard.FailedPhase)
	require.Len(t, ev.Guard.Phases, 1)
	assert.Contains(t, ev.Guard.Phases[0].Reason, "close is not a number")
	assert.Equal(t, 0.0, ev.LastClose)
}

func TestEvaluateValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"мало свечей", "/api/evaluate/BTC?count=10", "ERR_GTE"},
		{"слишком много свечей", "/api/evaluate/BTC?count=501", "ERR_LTE"},
		{"нечисловой count", "/api/evaluate/BTC?count=abc", "ERR_BIND"},
	}

	ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.get(t, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body.Details)
			assert.Equal(t, tt.code, body.Details[0].Code)
		})
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Provider = shortProvider{} })

	rec := ts.get(t, "/api/evaluate/BTC")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"insufficient data"}`, rec.Body.String())

	rec = ts.get(t, "/api/backtest/BTC")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEvaluateUpstreamError(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Provider = brokenProvider{} })
	rec := ts.get(t, "/api/evaluate/BTC")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "exchange down")
}

func TestBacktest(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.get(t, "/api/backtest/ETH?count=500")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.BacktestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ETH", res.Ticker)
	assert.Equal(t, 100_000_000.0, res.InitialBalance)
	assert.LessOrEqual(t, len(res.Trades), 5)

	rec = ts.get(t, "/api/history?kind=backtests")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []database.BacktestRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestScreener(t *testing.T) {
	rec := newTestServer(t, nil).get(t, "/api/screener")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rows []screener.Ranked
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 8)
	assert.True(t, rows[0].Scored)

	rec = newTestServer(t, func(d *Deps) { d.Screener = nil }).get(t, "/api/screener")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/api/history?limit=51").Code)
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/api/history?kind=trades").Code)

	rec := ts.get(t, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = newTestServer(t, func(d *Deps) { d.Store = nil }).get(t, "/api/history")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.get(t, "/healthz")
	ts.get(t, "/api/evaluate/BTC?count=120")

	rec := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `nicempc_http_requests_total{code="200",route="/healthz"} 1`)
	assert.Contains(t, body, `nicempc_evaluations_total`)
}
