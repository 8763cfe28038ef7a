package agent

import (
	"fmt"
	"strings"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// Technical combines RSI extremes with Bollinger band breaks
type Technical struct {
	RSIPeriod int
	BBPeriod  int
	BBStdDev  float64
}

func NewTechnical() Technical {
	return Technical{RSIPeriod: 14, BBPeriod: 20, BBStdDev: 2.0}
}

func (Technical) Name() string { return NameTechnical }

func (t Technical) Analyze(s model.MarketSnapshot) model.AgentResult {
	closes := s.Closes()
	need := max(t.RSIPeriod+1, t.BBPeriod)
	if len(closes) < need {
		return neutral(t.Name(), fmt.Sprintf("need %d bars, have %d", need, len(closes)))
	}

	price := closes[len(closes)-1]
	rsi := calculate.RSI(closes, t.RSIPeriod)
	bands, ok := calculate.BollingerBands(closes, t.BBPeriod, t.BBStdDev)
	if !ok || !finite(price, rsi) {
		return neutral(t.Name(), "non-finite closes")
	}

	score := 50.0
	var notes []string

	switch {
	case rsi < 30:
		score += 20
		notes = append(notes, "oversold")
	case rsi > 70:
		score -= 20
		notes = append(notes, "overbought")
	}

	switch {
	case price < bands.Lower:
		score += 15
		notes = append(notes, "close below lower band")
	case price > bands.Upper:
		score -= 15
		notes = append(notes, "close above upper band")
	}

	if len(notes) == 0 {
		notes = append(notes, "no extremes")
	}
	return scored(t.Name(), score, "RSI %.1f, BB %.4f/%.4f: %s",
		rsi, bands.Lower, bands.Upper, strings.Join(notes, ", "))
}
