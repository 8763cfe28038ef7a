package market

import (
	"math"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// Regime thresholds
const (
	trendADX         = 25.0
	highVolRatio     = 1.5
	lowVolRatio      = 0.7
	rangeATRs        = 5.0 // ширина 20-барного диапазона в ATR для бокового рынка
	choppyFlips      = 8
	minRegimeBars    = 31
	adxPeriod        = 14
	fastATR, slowATR = 10, 30
)

func unknownRegime() model.MarketRegime {
	return model.MarketRegime{Type: "UNKNOWN", Direction: "NEUTRAL", VolatilityLevel: "NORMAL"}
}

// ClassifyMarketRegime describes trend and volatility context of the bars.
// It is informational and never feeds the score.
func ClassifyMarketRegime(bars []model.Bar) model.MarketRegime {
	if len(bars) < minRegimeBars {
		return unknownRegime()
	}

	highs, lows, closes := model.Highs(bars), model.Lows(bars), model.Closes(bars)
	for _, v := range closes[len(closes)-minRegimeBars:] {
		if math.IsNaN(v) || v <= 0 {
			return unknownRegime()
		}
	}

	regime := unknownRegime()

	adx, plusDI, minusDI := calculate.ADX(highs, lows, closes, adxPeriod)
	atrFast := calculate.ATR(highs, lows, closes, fastATR)
	atrSlow := calculate.ATR(highs, lows, closes, slowATR)
	regime.ADX = adx

	// Volatility analysis
	if atrSlow > 0 {
		regime.VolatilityRatio = atrFast / atrSlow
	}
	switch {
	case regime.VolatilityRatio > highVolRatio:
		regime.VolatilityLevel = "HIGH"
	case regime.VolatilityRatio > 0 && regime.VolatilityRatio < lowVolRatio:
		regime.VolatilityLevel = "LOW"
	}

	// Momentum analysis, shorter horizons weigh more
	n := len(closes)
	current := closes[n-1]
	momentum := 0.5*(current-closes[n-6])/closes[n-6] +
		0.3*(current-closes[n-11])/closes[n-11] +
		0.2*(current-closes[n-21])/closes[n-21]
	regime.MomentumStrength = math.Min(math.Abs(momentum)*10, 1.0)
	switch {
	case momentum > 0:
		regime.Direction = "BULLISH"
	case momentum < 0:
		regime.Direction = "BEARISH"
	}

	if adx > trendADX {
		regime.Type = "TRENDING"
		regime.Strength = math.Min(adx/50.0, 1.0)
		if plusDI < minusDI {
			regime.Direction = "BEARISH"
		}
		return regime
	}

	highest, lowest := highs[n-20], lows[n-20]
	for i := n - 20; i < n; i++ {
		highest = math.Max(highest, highs[i])
		lowest = math.Min(lowest, lows[i])
	}

	if atrFast == 0 || (highest-lowest)/atrFast < rangeATRs {
		regime.Type = "RANGING"
		regime.Strength = math.Max(0, math.Min((30.0-adx)/30.0, 1.0))
		return regime
	}

	// Смена направления закрытий за последние 20 баров
	flips := 0
	up := closes[n-20] > closes[n-21]
	for i := n - 19; i < n; i++ {
		cur := closes[i] > closes[i-1]
		if cur != up {
			flips++
			up = cur
		}
	}

	switch {
	case flips > choppyFlips:
		regime.Type = "CHOPPY"
		regime.Strength = math.Min(float64(flips)/15.0, 1.0)
	case regime.VolatilityRatio > 1.8:
		regime.Type = "VOLATILE"
		regime.Strength = math.Min(regime.VolatilityRatio/3.0, 1.0)
	default:
		regime.Type = "TRENDING"
		regime.Strength = math.Min(adx/30.0, 0.7)
	}
	return regime
}
