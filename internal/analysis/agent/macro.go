package agent

import (
	"fmt"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// Macro treats an expanding intrabar range as a risk-off regime
type Macro struct {
	Period      int
	RiskOff     float64
	StableScore float64
}

func NewMacro() Macro {
	return Macro{Period: 10, RiskOff: 30, StableScore: 60}
}

func (Macro) Name() string { return NameMacro }

func (m Macro) Analyze(s model.MarketSnapshot) model.AgentResult {
	if len(s.Bars) < m.Period {
		return neutral(m.Name(), fmt.Sprintf("need %d bars, have %d", m.Period, len(s.Bars)))
	}

	ranges := make([]float64, 0, m.Period)
	for _, b := range s.Bars[len(s.Bars)-m.Period:] {
		if b.Low <= 0 {
			return neutral(m.Name(), "non-positive low")
		}
		ranges = append(ranges, (b.High-b.Low)/b.Low)
	}

	cur := ranges[len(ranges)-1]
	avg := calculate.Mean(ranges)
	if !finite(cur, avg) {
		return neutral(m.Name(), "non-finite range")
	}

	if cur > avg {
		return scored(m.Name(), m.RiskOff, "range %.2f%% above %d-bar mean %.2f%%: risk-off", cur*100, m.Period, avg*100)
	}
	return scored(m.Name(), m.StableScore, "range %.2f%% within %d-bar mean %.2f%%: stable", cur*100, m.Period, avg*100)
}
