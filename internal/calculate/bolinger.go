package calculate

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Bands holds one Bollinger Bands reading
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands calculates the bands of the latest close, using
// population standard deviation over the last period closes
func BollingerBands(closes []float64, period int, stdDev float64) (Bands, bool) {
	if period <= 1 || len(closes) < period || !finite(closes[len(closes)-period:]) {
		return Bands{}, false
	}

	window := closes[len(closes)-period:]
	upper, middle, lower := talib.BBands(window, period, stdDev, stdDev, talib.SMA)
	last := len(window) - 1

	b := Bands{Upper: upper[last], Middle: middle[last], Lower: lower[last]}
	if math.IsNaN(b.Upper) || math.IsNaN(b.Lower) {
		return Bands{}, false
	}
	return b, true
}
