package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/api/bithumb"
	llm "github.com/Alias1177/nicempc/internal/api/openai"
	"github.com/Alias1177/nicempc/internal/api/twelvedata"
	"github.com/Alias1177/nicempc/internal/config"
	"github.com/Alias1177/nicempc/internal/database"
	"github.com/Alias1177/nicempc/internal/fixture"
	"github.com/Alias1177/nicempc/internal/metrics"
	"github.com/Alias1177/nicempc/internal/model"
	"github.com/Alias1177/nicempc/internal/notify"
	"github.com/Alias1177/nicempc/internal/screener"
	"github.com/Alias1177/nicempc/internal/trading/backtest"
)

// app holds everything a subcommand needs
type app struct {
	cfg       *config.Config
	provider  analyze.SnapshotProvider
	lister    screener.Lister // nil when the provider has no ticker board
	evaluator *analyze.Evaluator
	engine    *backtest.Engine
	store     *database.DB
	telegram  *notify.Telegram
	console   *notify.Console
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	out       io.Writer
	json      bool
}

func newApp(ctx context.Context, cfg *config.Config, flags *rootFlags, out io.Writer) (*app, error) {
	a := &app{
		cfg:      cfg,
		console:  notify.NewConsole(out),
		registry: prometheus.NewRegistry(),
		out:      out,
		json:     flags.jsonOutput,
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	a.provider, a.lister = buildProvider(cfg, flags)

	var synth analyze.Synthesizer
	if cfg.OpenAI.Enabled() {
		synth = llm.NewClient(llm.ClientOptions{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Timeout:     cfg.OpenAI.Timeout,
			MaxFailures: cfg.OpenAI.MaxFailures,
			OpenTimeout: cfg.OpenAI.OpenTimeout,
		})
	}

	opts := analyze.Options{
		Weights: cfg.Scoring.Weights,
		Guard:   cfg.Guard,
		Sizing:  cfg.Sizing,
		Tiers:   cfg.Scoring.Tiers,
	}
	// синтетические бары датированы 2024 годом, проверка свежести для них бессмысленна
	if !flags.demo {
		opts.Now = time.Now
	}
	evaluator, err := analyze.NewEvaluator(opts, synth)
	if err != nil {
		return nil, err
	}
	a.evaluator = evaluator
	a.engine = backtest.NewEngine(cfg.Backtest.Options)

	if cfg.Store.Enabled {
		store, err := database.New(ctx, cfg.Store.ConnectionParams)
		if err != nil {
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		a.store = store
	}

	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(notify.TelegramOptions{Token: cfg.Telegram.Token, ChatID: cfg.Telegram.ChatID})
		if err != nil {
			// уведомления не должны останавливать анализ
			log.Warn().Err(err).Msg("Telegram notifications disabled")
		} else {
			a.telegram = tg
		}
	}

	return a, nil
}

func buildProvider(cfg *config.Config, flags *rootFlags) (analyze.SnapshotProvider, screener.Lister) {
	if flags.demo {
		p := fixture.NewProvider(flags.seed)
		return p, p
	}

	switch cfg.Market.Provider {
	case config.ProviderTwelveData:
		return twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:          cfg.TwelveData.APIKey,
			BaseURL:         cfg.TwelveData.BaseURL,
			Interval:        cfg.Market.Interval,
			RequestTimeout:  cfg.TwelveData.RequestTimeout,
			RequestsPerSec:  cfg.TwelveData.RequestsPerSec,
			MaxRetries:      cfg.TwelveData.MaxRetries,
			MaxRetryTimeout: cfg.TwelveData.MaxRetryTimeout,
		}), nil
	default:
		c := bithumb.NewClient(bithumb.ClientOptions{
			BaseURL:         cfg.Bithumb.BaseURL,
			Interval:        cfg.Market.Interval,
			RequestTimeout:  cfg.Bithumb.RequestTimeout,
			RequestsPerSec:  cfg.Bithumb.RequestsPerSec,
			MaxRetries:      cfg.Bithumb.MaxRetries,
			MaxRetryTimeout: cfg.Bithumb.MaxRetryTimeout,
		})
		return c, c
	}
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close history store")
		}
	}
}

// evaluate fetches, scores, stores and reports one ticker
func (a *app) evaluate(ctx context.Context, ticker string) (model.Evaluation, error) {
	start := time.Now()
	snap, err := a.provider.Snapshot(ctx, ticker, a.cfg.Market.CandleCount)
	if err != nil {
		a.metrics.EvaluationFailed()
		return model.Evaluation{}, fmt.Errorf("fetching %s: %w", ticker, err)
	}

	ev, err := a.evaluator.Evaluate(ctx, snap)
	if err != nil {
		a.metrics.EvaluationFailed()
		return model.Evaluation{}, err
	}
	a.metrics.ObserveEvaluation(ev, time.Since(start))

	if a.store != nil {
		if _, err := a.store.SaveEvaluation(ctx, ev); err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store evaluation")
		}
	}
	if a.telegram != nil {
		if err := a.telegram.SendEvaluation(ev); err != nil {
			log.Warn().Err(err).Msg("Telegram notification failed")
		}
	}
	return ev, nil
}

// backtest replays the strategy over the configured number of days
func (a *app) backtest(ctx context.Context, ticker string) (model.BacktestResult, error) {
	count := twelvedata.BarsForDays(a.cfg.Market.Interval, a.cfg.Backtest.Days)
	if count < model.MinBars {
		count = model.MinBars
	}

	snap, err := a.provider.Snapshot(ctx, ticker, count)
	if err != nil {
		a.metrics.ObserveBacktest(err)
		return model.BacktestResult{}, fmt.Errorf("fetching %s: %w", ticker, err)
	}

	res, err := a.engine.Run(ticker, snap.Bars)
	a.metrics.ObserveBacktest(err)
	if err != nil {
		return model.BacktestResult{}, err
	}

	if a.store != nil {
		if _, err := a.store.SaveBacktest(ctx, res); err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store backtest")
		}
	}
	return res, nil
}

func (a *app) newScreener() (*screener.Screener, error) {
	if a.lister == nil {
		return nil, fmt.Errorf("screener needs a provider with a ticker board (bithumb or --demo)")
	}
	return screener.New(a.lister, a.provider, a.evaluator, a.cfg.Screener, a.metrics), nil
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
