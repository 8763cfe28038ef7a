package agent

import (
	"fmt"

	"github.com/Alias1177/nicempc/internal/model"
)

// Sentiment reads short-term momentum as crowd mood
type Sentiment struct {
	Lookback int
	Gain     float64 // очков за 1% доходности
}

func NewSentiment() Sentiment {
	return Sentiment{Lookback: 5, Gain: 2.0}
}

func (Sentiment) Name() string { return NameSentiment }

func (m Sentiment) Analyze(s model.MarketSnapshot) model.AgentResult {
	if len(s.Bars) < m.Lookback+1 {
		return neutral(m.Name(), fmt.Sprintf("need %d bars, have %d", m.Lookback+1, len(s.Bars)))
	}

	base := s.Bars[len(s.Bars)-1-m.Lookback].Close
	last := s.Bars[len(s.Bars)-1].Close
	if base <= 0 || !finite(base, last) {
		return neutral(m.Name(), "invalid base price")
	}

	r := (last - base) / base * 100
	return scored(m.Name(), 50+m.Gain*r, "%d-bar return %+.2f%%", m.Lookback, r)
}
