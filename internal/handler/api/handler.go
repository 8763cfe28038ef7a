// Package api serves evaluations, backtests, screener runs and history over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/database"
	"github.com/Alias1177/nicempc/internal/metrics"
	"github.com/Alias1177/nicempc/internal/model"
	"github.com/Alias1177/nicempc/internal/screener"
)

type Evaluator interface {
	Evaluate(ctx context.Context, s model.MarketSnapshot) (model.Evaluation, error)
}

type Backtester interface {
	Run(ticker string, bars []model.Bar) (model.BacktestResult, error)
}

type Ranker interface {
	Rank(ctx context.Context) ([]screener.Ranked, error)
}

// Store persists run history
type Store interface {
	SaveEvaluation(ctx context.Context, ev model.Evaluation) (string, error)
	SaveBacktest(ctx context.Context, res model.BacktestResult) (string, error)
	RecentEvaluations(ctx context.Context, ticker string, limit int) ([]database.EvaluationRecord, error)
	RecentBacktests(ctx context.Context, ticker string, limit int) ([]database.BacktestRecord, error)
}

// Deps wires the handler. Screener, Store and Metrics may be nil.
type Deps struct {
	Provider   analyze.SnapshotProvider
	Evaluator  Evaluator
	Backtester Backtester
	Screener   Ranker
	Store      Store
	Metrics    *metrics.Metrics
}

// Handler implements the HTTP routes
type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		deps:   deps,
		logger: log.With().Str("component", "http").Logger(),
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// RegisterRoutes mounts the API under /api plus /healthz
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/evaluate/:ticker", h.Evaluate)
	g.GET("/backtest/:ticker", h.Backtest)
	g.GET("/screener", h.Screener)
	g.GET("/history", h.History)
	e.GET("/healthz", h.Health)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Evaluate fetches a fresh snapshot and runs the full pipeline
func (h *Handler) Evaluate(c echo.Context) error {
	req := &EvaluateRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: verr})
	}
	ctx := c.Request().Context()
	ticker := strings.ToUpper(req.Ticker)

	start := time.Now()
	snap, err := h.deps.Provider.Snapshot(ctx, ticker, req.Count)
	if err != nil {
		h.deps.Metrics.EvaluationFailed()
		return h.upstreamError(c, ticker, err)
	}

	ev, err := h.deps.Evaluator.Evaluate(ctx, snap)
	if err != nil {
		h.deps.Metrics.EvaluationFailed()
		return h.pipelineError(c, ticker, err)
	}
	h.deps.Metrics.ObserveEvaluation(ev, time.Since(start))

	if h.deps.Store != nil {
		if _, err := h.deps.Store.SaveEvaluation(ctx, ev); err != nil {
			h.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to store evaluation")
		}
	}
	return c.JSON(http.StatusOK, ev)
}

// Backtest replays the strategy over a fresh history
func (h *Handler) Backtest(c echo.Context) error {
	req := &EvaluateRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: verr})
	}
	ctx := c.Request().Context()
	ticker := strings.ToUpper(req.Ticker)

	snap, err := h.deps.Provider.Snapshot(ctx, ticker, req.Count)
	if err != nil {
		h.deps.Metrics.ObserveBacktest(err)
		return h.upstreamError(c, ticker, err)
	}

	res, err := h.deps.Backtester.Run(ticker, snap.Bars)
	h.deps.Metrics.ObserveBacktest(err)
	if err != nil {
		return h.pipelineError(c, ticker, err)
	}

	if h.deps.Store != nil {
		if _, err := h.deps.Store.SaveBacktest(ctx, res); err != nil {
			h.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to store backtest")
		}
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Screener(c echo.Context) error {
	if h.deps.Screener == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "screener not configured"})
	}
	rows, err := h.deps.Screener.Rank(c.Request().Context())
	if err != nil {
		return h.upstreamError(c, "", err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) History(c echo.Context) error {
	req := &HistoryRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: verr})
	}
	if h.deps.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "history store not configured"})
	}

	ctx := c.Request().Context()
	ticker := strings.ToUpper(req.Ticker)
	var (
		rows interface{}
		err  error
	)
	switch req.Kind {
	case "backtests":
		rows, err = h.deps.Store.RecentBacktests(ctx, ticker, req.Limit)
	default:
		rows, err = h.deps.Store.RecentEvaluations(ctx, ticker, req.Limit)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load history")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "history unavailable"})
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) pipelineError(c echo.Context, ticker string, err error) error {
	if errors.Is(err, model.ErrInsufficientData) {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: model.ErrInsufficientData.Error()})
	}
	h.logger.Error().Err(err).Str("ticker", ticker).Msg("Pipeline failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func (h *Handler) upstreamError(c echo.Context, ticker string, err error) error {
	if errors.Is(err, context.Canceled) {
		return c.NoContent(499)
	}
	h.logger.Warn().Err(err).Str("ticker", ticker).Msg("Market data unavailable")
	return c.JSON(http.StatusBadGateway, errorResponse{Error: "market data unavailable: " + err.Error()})
}
