package calculate

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Mean calculates simple average
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// Variance is the population variance of values
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var acc float64
	for _, v := range values {
		acc += (v - m) * (v - m)
	}
	return acc / float64(len(values))
}

// StdDev is the population standard deviation of values
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// LastSMA averages the trailing period values
func LastSMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	window := values[len(values)-period:]
	if !finite(window) {
		return 0, false
	}
	return Mean(window), true
}

// SMASeries returns the simple moving average for every index.
// Entries before the first full window are NaN; value i only uses values[..i].
func SMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	copy(out, talib.Sma(values, period))
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// Clamp bounds v into [lo, hi]; NaN maps to lo
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
