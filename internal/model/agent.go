package model

// AgentResult is one scoring heuristic's opinion about a snapshot
type AgentResult struct {
	Agent  string  `json:"agent"`
	Score  float64 `json:"score"` // 0-100, 50 = нейтрально
	Detail string  `json:"detail"`
}

// AggregateReport combines the agent scores
type AggregateReport struct {
	PerAgentScores map[string]float64 `json:"per_agent_scores"`
	Results        []AgentResult      `json:"results"`
	WeightedScore  float64            `json:"weighted_score"`
	Confidence     float64            `json:"confidence"`
}
