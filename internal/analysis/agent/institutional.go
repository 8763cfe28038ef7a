package agent

import (
	"fmt"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// Institutional follows the moving-average trend structure large players trade on
type Institutional struct {
	Fast, Slow         int
	LongFast, LongSlow int
}

func NewInstitutional() Institutional {
	return Institutional{Fast: 20, Slow: 60, LongFast: 50, LongSlow: 200}
}

func (Institutional) Name() string { return NameInstitutional }

func (in Institutional) Analyze(s model.MarketSnapshot) model.AgentResult {
	closes := s.Closes()

	fast, slow := in.Fast, in.Slow
	if len(closes) >= in.LongSlow {
		fast, slow = in.LongFast, in.LongSlow
	}
	if len(closes) < slow {
		return neutral(in.Name(), fmt.Sprintf("need %d bars, have %d", slow, len(closes)))
	}

	maFast, ok1 := calculate.LastSMA(closes, fast)
	maSlow, ok2 := calculate.LastSMA(closes, slow)
	if !ok1 || !ok2 {
		return neutral(in.Name(), "non-finite closes")
	}

	if maFast > maSlow {
		return scored(in.Name(), 70, "MA%d %.4f above MA%d %.4f: accumulation", fast, maFast, slow, maSlow)
	}
	return scored(in.Name(), 30, "MA%d %.4f not above MA%d %.4f: distribution", fast, maFast, slow, maSlow)
}
