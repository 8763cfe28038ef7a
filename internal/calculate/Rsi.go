package calculate

import "math"

// RSI returns the relative strength index of the latest close.
// Average gain and loss are simple means over the last period deltas.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50.0 // Default value if not enough data
	}
	return rsiWindow(closes[len(closes)-period-1:])
}

// RSISeries returns RSI for every index; entries before period are NaN.
// Value i only looks at closes[i-period..i].
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if period <= 0 || i < period {
			out[i] = math.NaN()
			continue
		}
		out[i] = rsiWindow(closes[i-period : i+1])
	}
	return out
}

func rsiWindow(window []float64) float64 {
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	switch {
	case gains == 0 && losses == 0:
		return 50.0 // flat
	case losses == 0:
		return 100.0
	case gains == 0:
		return 0.0
	}

	n := float64(len(window) - 1)
	rs := (gains / n) / (losses / n)
	return 100.0 - (100.0 / (1.0 + rs))
}
