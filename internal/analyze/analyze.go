package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/analysis/agent"
	"github.com/Alias1177/nicempc/internal/analysis/market"
	"github.com/Alias1177/nicempc/internal/analysis/signal"
	"github.com/Alias1177/nicempc/internal/model"
	"github.com/Alias1177/nicempc/internal/trading/guard"
	"github.com/Alias1177/nicempc/internal/trading/risk"
)

// SnapshotProvider fetches market data for one ticker
type SnapshotProvider interface {
	Snapshot(ctx context.Context, ticker string, count int) (model.MarketSnapshot, error)
}

// Options configures an Evaluator
type Options struct {
	Weights map[string]float64
	Guard   guard.Config
	Sizing  risk.Params
	Tiers   Tiers
	// Now feeds the staleness check; nil leaves it unchecked
	Now func() time.Time
}

// DefaultOptions returns equal weights and stock thresholds
func DefaultOptions() Options {
	return Options{
		Guard: guard.DefaultConfig(),
		Sizing: risk.Params{
			WinRate:          0.55,
			PayoffRatio:      1.5,
			AccountBalance:   10_000_000,
			MaxAllocationPct: 0.05,
		},
		Tiers: DefaultTiers(),
	}
}

// Evaluator runs the scoring, guard, sizing and synthesis pipeline
type Evaluator struct {
	aggregator *signal.Aggregator
	chain      *guard.Chain
	sizing     risk.Params
	tiers      Tiers
	synth      Synthesizer
	now        func() time.Time
	logger     zerolog.Logger
}

// NewEvaluator wires the default agents; synth may be nil
func NewEvaluator(opts Options, synth Synthesizer) (*Evaluator, error) {
	agg, err := signal.NewAggregator(agent.Default(), opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("configuring aggregator: %w", err)
	}
	if synth == nil {
		synth = NoopSynthesizer{}
	}

	return &Evaluator{
		aggregator: agg,
		chain:      guard.NewChain(opts.Guard),
		sizing:     opts.Sizing,
		tiers:      opts.Tiers,
		synth:      synth,
		now:        opts.Now,
		logger:     log.With().Str("component", "evaluator").Logger(),
	}, nil
}

// Evaluate scores one snapshot. It only fails on too short a history;
// guard failures are reported inside the result.
func (e *Evaluator) Evaluate(ctx context.Context, s model.MarketSnapshot) (model.Evaluation, error) {
	if len(s.Bars) < model.MinBars {
		return model.Evaluation{}, fmt.Errorf("evaluate %s: need %d bars, have %d: %w",
			s.Ticker, model.MinBars, len(s.Bars), model.ErrInsufficientData)
	}

	last, _ := s.Last()
	ev := model.Evaluation{
		Ticker:    s.Ticker,
		LastClose: last.Close,
	}

	in := guard.Input{Snapshot: s, Side: model.TradeBuy, Price: last.Close}
	if e.now != nil {
		now := e.now()
		in.Now = &now
		ev.EvaluatedAt = now
	} else {
		ev.EvaluatedAt = evaluatedAt(s, last)
	}

	ev.Aggregate = e.aggregator.Aggregate(s)
	// размер считается всегда, даже если guard отклонит сделку
	ev.Sizing = e.sizing.Calculate()
	if last.Close > 0 {
		in.Quantity = ev.Sizing.AllocationAmount.InexactFloat64() / last.Close
	}
	ev.Guard = e.chain.Run(in)
	ev.Regime = market.ClassifyMarketRegime(s.Bars)
	ev.Tier = e.tiers.Classify(ev.Aggregate.WeightedScore)
	// NaN в баре уже отражён в guard, дальше он не нужен
	ev.Sanitize()
	ev.Synthesis = e.synthesize(ctx, s.Ticker, ev)

	e.logger.Debug().
		Str("ticker", s.Ticker).
		Float64("score", ev.Aggregate.WeightedScore).
		Float64("confidence", ev.Aggregate.Confidence).
		Bool("guard_passed", ev.Guard.AllPassed).
		Str("tier", ev.Tier).
		Msg("Evaluation complete")

	return ev, nil
}

// evaluatedAt stamps clockless evaluations with the fetch time, or the last bar when unknown
func evaluatedAt(s model.MarketSnapshot, last model.Bar) time.Time {
	if !s.FetchedAt.IsZero() {
		return s.FetchedAt
	}
	return last.Timestamp
}

func (e *Evaluator) synthesize(ctx context.Context, ticker string, ev model.Evaluation) model.Synthesis {
	req := SynthesisRequest{
		Ticker:    ticker,
		LastClose: ev.LastClose,
		Aggregate: ev.Aggregate,
		Guard:     ev.Guard,
		Tier:      ev.Tier,
	}

	out, err := e.synth.Synthesize(ctx, req)
	if err != nil {
		e.logger.Warn().Err(err).Str("ticker", ticker).Msg("Synthesizer unavailable")
		return Unavailable(err.Error())
	}
	if !out.Label.Valid() {
		e.logger.Warn().Str("label", string(out.Label)).Msg("Synthesizer returned unknown label")
		return Unavailable(fmt.Sprintf("unknown label %q", out.Label))
	}
	out.Available = true
	return out
}
