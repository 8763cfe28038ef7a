package model

import (
	"math"
	"time"
)

// SynthesisLabel is the closed set of narrative recommendations
type SynthesisLabel string

const (
	LabelStrong   SynthesisLabel = "STRONG"
	LabelStandard SynthesisLabel = "STANDARD"
	LabelWait     SynthesisLabel = "WAIT"
)

// Synthesis is the optional narrative produced for an aggregate
type Synthesis struct {
	Label     SynthesisLabel `json:"label"`
	Reasoning string         `json:"reasoning"`
	Available bool           `json:"available"`
}

// Evaluation is the full answer for one ticker
type Evaluation struct {
	Ticker      string          `json:"ticker"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
	LastClose   float64         `json:"last_close"`
	Aggregate   AggregateReport `json:"aggregate"`
	Guard       GuardReport     `json:"guard"`
	Sizing      SizingResult    `json:"sizing"`
	Synthesis   Synthesis       `json:"synthesis"`
	Regime      MarketRegime    `json:"regime"`
	Tier        string          `json:"tier"`
}

// Valid reports whether the label belongs to the closed set
func (l SynthesisLabel) Valid() bool {
	switch l {
	case LabelStrong, LabelStandard, LabelWait:
		return true
	}
	return false
}

// Sanitize zeroes non-finite numbers so the evaluation always encodes to JSON.
// Bad bars are reported by the guard, the numbers derived from them are meaningless.
func (e *Evaluation) Sanitize() {
	e.LastClose = finite(e.LastClose)

	e.Aggregate.WeightedScore = finite(e.Aggregate.WeightedScore)
	e.Aggregate.Confidence = finite(e.Aggregate.Confidence)
	for name, score := range e.Aggregate.PerAgentScores {
		e.Aggregate.PerAgentScores[name] = finite(score)
	}
	for i := range e.Aggregate.Results {
		e.Aggregate.Results[i].Score = finite(e.Aggregate.Results[i].Score)
	}

	e.Regime.Strength = finite(e.Regime.Strength)
	e.Regime.VolatilityRatio = finite(e.Regime.VolatilityRatio)
	e.Regime.MomentumStrength = finite(e.Regime.MomentumStrength)
	e.Regime.ADX = finite(e.Regime.ADX)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
