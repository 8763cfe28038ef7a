package agent

import (
	"fmt"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// OnChain approximates capital flow from abnormal volume in the direction of the move
type OnChain struct {
	Period      int
	StrongRatio float64
	MildRatio   float64
}

func NewOnChain() OnChain {
	return OnChain{Period: 20, StrongRatio: 2.0, MildRatio: 1.5}
}

func (OnChain) Name() string { return NameOnChain }

func (o OnChain) Analyze(s model.MarketSnapshot) model.AgentResult {
	if len(s.Bars) < o.Period+1 {
		return neutral(o.Name(), fmt.Sprintf("need %d bars, have %d", o.Period+1, len(s.Bars)))
	}

	avgVol, ok := calculate.LastSMA(s.Volumes(), o.Period)
	if !ok || avgVol <= 0 {
		return neutral(o.Name(), "no volume history")
	}

	cur := s.Bars[len(s.Bars)-1]
	prev := s.Bars[len(s.Bars)-2]
	ratio := cur.Volume / avgVol
	if !finite(ratio, cur.Close, prev.Close) {
		return neutral(o.Name(), "non-finite volume")
	}

	dir := 0.0
	switch {
	case cur.Close > prev.Close:
		dir = 1
	case cur.Close < prev.Close:
		dir = -1
	}

	switch {
	case ratio > o.StrongRatio:
		return scored(o.Name(), 50+30*dir, "volume %.2fx average, strong %s", ratio, direction(dir))
	case ratio > o.MildRatio:
		return scored(o.Name(), 50+10*dir, "volume %.2fx average, %s", ratio, direction(dir))
	}
	return scored(o.Name(), 50, "volume %.2fx average, no abnormal flow", ratio)
}

func direction(d float64) string {
	switch {
	case d > 0:
		return "inflow"
	case d < 0:
		return "outflow"
	}
	return "no price move"
}
