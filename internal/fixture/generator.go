// Package fixture generates reproducible synthetic market data for demos and tests.
package fixture

import (
	"math"
	"math/rand"
	"time"

	"github.com/Alias1177/nicempc/internal/model"
)

// Options shapes the random walk
type Options struct {
	Start      time.Time
	Interval   time.Duration
	StartPrice float64
	Volatility float64 // стандартное отклонение доходности за бар
	Drift      float64
	BaseVolume float64
}

// DefaultOptions returns an hourly walk starting at 50 000
func DefaultOptions() Options {
	return Options{
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:   time.Hour,
		StartPrice: 50_000,
		Volatility: 0.01,
		BaseVolume: 1_000,
	}
}

// Generate returns n bars of a geometric random walk; equal seeds give equal bars
func Generate(seed int64, n int) []model.Bar {
	return GenerateWith(seed, n, DefaultOptions())
}

// GenerateWith is Generate with explicit options
func GenerateWith(seed int64, n int, opts Options) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	price := opts.StartPrice

	for i := 0; i < n; i++ {
		open := price
		ret := opts.Drift + rng.NormFloat64()*opts.Volatility
		closePx := open * math.Exp(ret)

		wick := math.Abs(rng.NormFloat64()) * opts.Volatility * 0.5
		high := math.Max(open, closePx) * (1 + wick)
		low := math.Min(open, closePx) * (1 - wick)

		bars[i] = model.Bar{
			Timestamp: opts.Start.Add(time.Duration(i) * opts.Interval),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    opts.BaseVolume * (0.5 + rng.Float64()) * (1 + 20*math.Abs(ret)),
		}
		price = closePx
	}
	return bars
}

// Snapshot wraps Generate into a snapshot with a tight synthetic book
func Snapshot(ticker string, seed int64, n int) model.MarketSnapshot {
	bars := Generate(seed, n)
	snap := model.NewSnapshot(ticker, bars)
	if n == 0 {
		return snap
	}
	last := bars[n-1].Close
	return snap.WithBook(last*0.9998, last*1.0002)
}
