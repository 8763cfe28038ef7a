// Package screener ranks a ticker universe by short-term momentum with bounded fan-out.
package screener

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/api/bithumb"
	"github.com/Alias1177/nicempc/internal/metrics"
	"github.com/Alias1177/nicempc/internal/model"
)

// Lister returns the ticker universe, most liquid first
type Lister interface {
	Tickers(ctx context.Context) ([]bithumb.Ticker, error)
}

// Scorer evaluates a fetched snapshot
type Scorer interface {
	Evaluate(ctx context.Context, s model.MarketSnapshot) (model.Evaluation, error)
}

// Options controls the fan-out
type Options struct {
	Concurrency    int           `yaml:"concurrency" default:"5" validate:"min=1,max=32"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"800ms"`
	Universe       int           `yaml:"universe" default:"40" validate:"min=1"`
	Limit          int           `yaml:"limit" default:"20" validate:"min=1"`
	Bars           int           `yaml:"bars" default:"100" validate:"min=3"`
	MomentumBars   int           `yaml:"momentum_bars" default:"3" validate:"min=2"`
}

// DefaultOptions mirrors the struct tag defaults
func DefaultOptions() Options {
	return Options{
		Concurrency:    5,
		RequestTimeout: 800 * time.Millisecond,
		Universe:       40,
		Limit:          20,
		Bars:           100,
		MomentumBars:   3,
	}
}

// Ranked is one screener row
type Ranked struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	TradeValue24h float64 `json:"trade_value_24h"`
	MomentumPct   float64 `json:"momentum_pct"`
	Scored        bool    `json:"scored"`
	WeightedScore float64 `json:"weighted_score,omitempty"`
	Tier          string  `json:"tier,omitempty"`
	GuardPassed   bool    `json:"guard_passed"`
}

// Screener fetches candidates concurrently and ranks them
type Screener struct {
	lister   Lister
	provider analyze.SnapshotProvider
	scorer   Scorer
	opts     Options
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New builds a screener; scorer and m may be nil
func New(lister Lister, provider analyze.SnapshotProvider, scorer Scorer, opts Options, m *metrics.Metrics) *Screener {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.MomentumBars < 2 {
		opts.MomentumBars = 3
	}
	return &Screener{
		lister:   lister,
		provider: provider,
		scorer:   scorer,
		opts:     opts,
		metrics:  m,
		logger:   log.With().Str("component", "screener").Logger(),
	}
}

// Rank lists the universe, keeps the most liquid candidates and ranks them
// by absolute momentum
func (s *Screener) Rank(ctx context.Context) ([]Ranked, error) {
	tickers, err := s.lister.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tickers) > s.opts.Universe {
		tickers = tickers[:s.opts.Universe]
	}
	return s.RankTickers(ctx, tickers), nil
}

// RankTickers fetches every ticker with at most Concurrency requests in
// flight. Candidates that time out or fail are dropped.
func (s *Screener) RankTickers(ctx context.Context, tickers []bithumb.Ticker) []Ranked {
	rows := make([]*Ranked, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			row, ok := s.scan(gctx, t)
			if !ok {
				s.metrics.ScreenerSkipped()
				return nil
			}
			rows[i] = &row
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Ranked, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := math.Abs(out[i].MomentumPct), math.Abs(out[j].MomentumPct)
		if a == b {
			return out[i].Symbol < out[j].Symbol
		}
		return a > b
	})
	if len(out) > s.opts.Limit && s.opts.Limit > 0 {
		out = out[:s.opts.Limit]
	}

	s.metrics.ScreenerRanked(len(out))
	s.logger.Info().Int("candidates", len(tickers)).Int("ranked", len(out)).Msg("Screener run complete")
	return out
}

func (s *Screener) scan(ctx context.Context, t bithumb.Ticker) (Ranked, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	snap, err := s.provider.Snapshot(reqCtx, t.Symbol, s.opts.Bars)
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", t.Symbol).Msg("Candidate skipped")
		return Ranked{}, false
	}

	mom, ok := Momentum(snap.Bars, s.opts.MomentumBars)
	if !ok {
		s.logger.Debug().Str("symbol", t.Symbol).Int("bars", len(snap.Bars)).Msg("Candidate skipped: no momentum")
		return Ranked{}, false
	}

	row := Ranked{
		Symbol:        t.Symbol,
		Price:         t.Price,
		TradeValue24h: t.TradeValue24h,
		MomentumPct:   mom,
	}
	if row.Price == 0 {
		last, _ := snap.Last()
		row.Price = last.Close
	}

	if s.scorer != nil {
		ev, err := s.scorer.Evaluate(ctx, snap)
		if err == nil {
			row.Scored = true
			row.WeightedScore = ev.Aggregate.WeightedScore
			row.Tier = ev.Tier
			row.GuardPassed = ev.Guard.AllPassed
		}
	}
	return row, true
}

// Momentum is the percent move from the open of the first of the last n bars
// to the last close
func Momentum(bars []model.Bar, n int) (float64, bool) {
	if n < 1 || len(bars) < n {
		return 0, false
	}
	first := bars[len(bars)-n]
	last := bars[len(bars)-1]
	if !(first.Open > 0) || math.IsNaN(last.Close) || math.IsInf(last.Close, 0) {
		return 0, false
	}
	return (last.Close - first.Open) / first.Open * 100, true
}
