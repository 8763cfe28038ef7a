package backtest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/nicempc/internal/fixture"
	"github.com/Alias1177/nicempc/internal/model"
)

func barsFromCloses(closes []float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Timestamp: start.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return bars
}

// uptrend to 199, eight-bar dip to 191, then +3 per bar
func dipAndRally() []model.Bar {
	closes := make([]float64, 120)
	for i := range closes {
		switch {
		case i < 100:
			closes[i] = 100 + float64(i)
		case i <= 107:
			closes[i] = 199 - float64(i-99)
		default:
			closes[i] = 191 + 3*float64(i-107)
		}
	}
	return barsFromCloses(closes)
}

func TestRunInsufficientData(t *testing.T) {
	_, err := Run("X", barsFromCloses(make([]float64, 59)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientData))
}

func TestRunFlatSeries(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
	}

	res, err := Run("FLAT", barsFromCloses(closes))
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalTrades)
	assert.Empty(t, res.Trades)
	assert.Equal(t, res.InitialBalance, res.FinalBalance)
	assert.Equal(t, 0.0, res.ReturnPct)
	assert.Equal(t, 0.0, res.WinRatePct)
}

func TestRunDipAndRally(t *testing.T) {
	res, err := Run("DIP", dipAndRally())
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]
	assert.Equal(t, model.TradeBuy, buy.Type)
	assert.Equal(t, 107, buy.Index)
	assert.Equal(t, 191.0, buy.Price)
	assert.Nil(t, buy.PnL)

	assert.Equal(t, model.TradeSell, sell.Type)
	assert.Equal(t, 114, sell.Index)
	assert.Equal(t, 212.0, sell.Price)
	require.NotNil(t, sell.PnL)
	assert.Greater(t, *sell.PnL, 0.0)

	assert.Equal(t, 1, res.TotalTrades)
	assert.Equal(t, 100.0, res.WinRatePct)
	assert.InDelta(t, 10.99, res.ReturnPct, 1e-9)
	assert.InDelta(t, 100_000_000*212.0/191.0, res.FinalBalance, 0.01)
	assert.False(t, res.OpenPosition)
	assert.Equal(t, 0.0, res.ProfitFactor)
}

func TestRunMarksOpenPositionToMarket(t *testing.T) {
	bars := dipAndRally()[:111] // куплено на 107, продажи ещё нет
	res, err := Run("OPEN", bars)
	require.NoError(t, err)

	assert.True(t, res.OpenPosition)
	assert.Equal(t, 0, res.TotalTrades)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, model.TradeBuy, res.Trades[0].Type)
	// 191 -> 200
	assert.InDelta(t, 100_000_000*200.0/191.0, res.FinalBalance, 0.01)
	assert.Equal(t, 0.0, res.WinRatePct)
}

func TestRunIsIdempotent(t *testing.T) {
	bars := fixture.Generate(11, 400)

	first, err := Run("FX", bars)
	require.NoError(t, err)
	second, err := Run("FX", bars)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunHasNoLookAhead(t *testing.T) {
	opts := DefaultOptions()
	opts.TradeLog = 10_000
	engine := NewEngine(opts)

	bars := fixture.Generate(3, 400)
	base, err := engine.Run("FX", bars)
	require.NoError(t, err)

	const cut = 250
	perturbed := append([]model.Bar(nil), bars...)
	for i := cut; i < len(perturbed); i++ {
		perturbed[i].Close *= 1.7
		perturbed[i].High *= 1.7
		perturbed[i].Low *= 1.7
	}
	moved, err := engine.Run("FX", perturbed)
	require.NoError(t, err)

	var before, after []model.Trade
	for _, tr := range base.Trades {
		if tr.Index < cut {
			before = append(before, tr)
		}
	}
	for _, tr := range moved.Trades {
		if tr.Index < cut {
			after = append(after, tr)
		}
	}
	assert.Equal(t, before, after)
}

func TestRunKeepsLastTrades(t *testing.T) {
	opts := DefaultOptions()
	opts.TradeLog = 1
	res, err := NewEngine(opts).Run("DIP", dipAndRally())
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, model.TradeSell, res.Trades[0].Type)
}

func TestMetrics(t *testing.T) {
	assert.InDelta(t, 0.5, maxDrawdown([]float64{100, 120, 60, 90, 130}), 1e-9)
	assert.InDelta(t, 2.0, profitFactor([]float64{10, -5, 0}), 1e-9)
	assert.InDelta(t, 50.0, winRate([]float64{1, -1}), 1e-9)
	assert.Equal(t, 0.0, winRate(nil))
}
