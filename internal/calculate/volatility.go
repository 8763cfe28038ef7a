package calculate

import (
	"math"

	"github.com/markcheno/go-talib"
)

// ZScore measures how many standard deviations x sits from the mean of window
func ZScore(x float64, window []float64) (float64, bool) {
	if len(window) < 2 || !finite(window) {
		return 0, false
	}
	m, sd := Mean(window), StdDev(window)
	if sd == 0 {
		switch {
		case x > m:
			return math.Inf(1), true
		case x < m:
			return math.Inf(-1), true
		}
		return 0, true
	}
	return (x - m) / sd, true
}

// ATR returns the latest average true range
func ATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(closes) <= period || len(highs) != len(closes) || len(lows) != len(closes) {
		return 0
	}
	out := talib.Atr(highs, lows, closes, period)
	v := out[len(out)-1]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// ADX returns the latest average directional index with +DI and -DI
func ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI float64) {
	if period <= 0 || len(closes) < 2*period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return 0, 0, 0
	}
	last := len(closes) - 1
	adx = talib.Adx(highs, lows, closes, period)[last]
	plusDI = talib.PlusDI(highs, lows, closes, period)[last]
	minusDI = talib.MinusDI(highs, lows, closes, period)[last]
	return adx, plusDI, minusDI
}
