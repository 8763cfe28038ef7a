package agent

import (
	"fmt"
	"math"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// Agent names, also used as weight keys
const (
	NameTechnical     = "Technical"
	NameOnChain       = "OnChain"
	NameSentiment     = "Sentiment"
	NameMacro         = "Macro"
	NameInstitutional = "Institutional"
)

// Agent scores a snapshot on a 0-100 scale where 50 is neutral
type Agent interface {
	Name() string
	Analyze(snapshot model.MarketSnapshot) model.AgentResult
}

// Default returns the five heuristics in reporting order
func Default() []Agent {
	return []Agent{
		NewTechnical(),
		NewOnChain(),
		NewSentiment(),
		NewMacro(),
		NewInstitutional(),
	}
}

// Names lists the agent names in order
func Names(agents []Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.Name()
	}
	return out
}

func neutral(name, reason string) model.AgentResult {
	return model.AgentResult{Agent: name, Score: 50, Detail: "insufficient data: " + reason}
}

func scored(name string, score float64, format string, args ...any) model.AgentResult {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return neutral(name, "non-finite score")
	}
	return model.AgentResult{
		Agent:  name,
		Score:  calculate.Clamp(score, 0, 100),
		Detail: fmt.Sprintf(format, args...),
	}
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
