package signal

import (
	"fmt"
	"math"

	"github.com/Alias1177/nicempc/internal/analysis/agent"
	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

const weightTolerance = 1e-6

// Aggregator runs every agent and folds the scores into one report
type Aggregator struct {
	agents  []agent.Agent
	weights map[string]float64 // nil = равные веса
}

// NewAggregator validates optional weights against the agent names.
// Weights must be non-negative and sum to 1.
func NewAggregator(agents []agent.Agent, weights map[string]float64) (*Aggregator, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("aggregator needs at least one agent")
	}

	known := make(map[string]bool, len(agents))
	for _, a := range agents {
		if known[a.Name()] {
			return nil, fmt.Errorf("duplicate agent %q", a.Name())
		}
		known[a.Name()] = true
	}

	if len(weights) == 0 {
		return &Aggregator{agents: agents}, nil
	}

	var sum float64
	own := make(map[string]float64, len(weights))
	for name, w := range weights {
		if !known[name] {
			return nil, fmt.Errorf("weight for unknown agent %q", name)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight %v for agent %q", w, name)
		}
		own[name] = w
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("weights sum to %.6f, want 1.0", sum)
	}

	return &Aggregator{agents: agents, weights: own}, nil
}

// Aggregate scores the snapshot with every agent
func (a *Aggregator) Aggregate(s model.MarketSnapshot) model.AggregateReport {
	report := model.AggregateReport{
		PerAgentScores: make(map[string]float64, len(a.agents)),
		Results:        make([]model.AgentResult, 0, len(a.agents)),
	}

	scores := make([]float64, 0, len(a.agents))
	var weighted float64
	for _, ag := range a.agents {
		res := ag.Analyze(s)
		if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
			res.Score = 50
		}
		res.Score = calculate.Clamp(res.Score, 0, 100)

		report.Results = append(report.Results, res)
		report.PerAgentScores[res.Agent] = res.Score
		scores = append(scores, res.Score)
		if a.weights != nil {
			weighted += a.weights[res.Agent] * res.Score
		}
	}

	if a.weights == nil {
		weighted = calculate.Mean(scores)
	}
	report.WeightedScore = calculate.Clamp(weighted, 0, 100)
	report.Confidence = calculate.Clamp(100-calculate.Variance(scores), 0, 100)
	return report
}
