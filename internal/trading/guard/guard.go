package guard

import (
	"time"

	"github.com/Alias1177/nicempc/internal/model"
)

// Input is everything a phase may inspect
type Input struct {
	Snapshot model.MarketSnapshot
	Side     model.TradeType
	Quantity float64
	Price    float64
	Now      *time.Time // nil = нет эталонных часов
}

// Verdict is one phase's answer
type Verdict struct {
	Passed bool
	Level  model.GuardLevel
	Reason string
	Detail string
}

// Phase is one pre-trade safety check
type Phase interface {
	Name() string
	Check(in Input) Verdict
}

// Config holds the guard thresholds
type Config struct {
	IntegrityWindow    int           `yaml:"integrity_window" default:"20" validate:"min=1"`
	MaxStaleness       time.Duration `yaml:"max_staleness" default:"24h"`
	MaxSpreadBps       float64       `yaml:"max_spread_bps" default:"100" validate:"gt=0"`
	VolatilityWindow   int           `yaml:"volatility_window" default:"20" validate:"min=2"`
	SigmaLimit         float64       `yaml:"sigma_limit" default:"3" validate:"gt=0"`
	VolatilityBlocking bool          `yaml:"volatility_blocking"`
}

// DefaultConfig returns the stock thresholds
func DefaultConfig() Config {
	return Config{
		IntegrityWindow:  20,
		MaxStaleness:     24 * time.Hour,
		MaxSpreadBps:     100,
		VolatilityWindow: 20,
		SigmaLimit:       3,
	}
}

// Chain runs phases in order and stops at the first failure
type Chain struct {
	phases []Phase
}

// NewChain builds the standard five-phase chain
func NewChain(cfg Config) *Chain {
	return NewChainWithPhases(
		DataIntegrity{Window: cfg.IntegrityWindow},
		MarketState{MaxStaleness: cfg.MaxStaleness},
		Liquidity{MaxSpreadBps: cfg.MaxSpreadBps},
		Volatility{Window: cfg.VolatilityWindow, SigmaLimit: cfg.SigmaLimit, Blocking: cfg.VolatilityBlocking},
		Execution{},
	)
}

// NewChainWithPhases builds a chain over custom phases
func NewChainWithPhases(phases ...Phase) *Chain {
	return &Chain{phases: phases}
}

// Run evaluates phases in order. Phases after a failure are not
// evaluated and do not appear in the report.
func (c *Chain) Run(in Input) model.GuardReport {
	report := model.GuardReport{
		AllPassed: true,
		Phases:    make([]model.GuardPhaseResult, 0, len(c.phases)),
	}

	for i, p := range c.phases {
		v := p.Check(in)
		res := model.GuardPhaseResult{
			Phase:  i + 1,
			Name:   p.Name(),
			Passed: v.Passed,
			Level:  v.Level,
			Detail: v.Detail,
		}
		if res.Level == "" {
			res.Level = model.GuardPass
			if !v.Passed {
				res.Level = model.GuardFail
			}
		}
		if !v.Passed {
			res.Reason = v.Reason
		}
		report.Phases = append(report.Phases, res)

		if !v.Passed {
			failed := i + 1
			report.AllPassed = false
			report.FailedPhase = &failed
			break
		}
	}

	return report
}
