package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsReproducible(t *testing.T) {
	a := Generate(7, 200)
	b := Generate(7, 200)
	c := Generate(8, 200)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateProducesConsistentBars(t *testing.T) {
	bars := Generate(42, 500)
	require.Len(t, bars, 500)

	for i, b := range bars {
		assert.GreaterOrEqual(t, b.High, b.Close, "bar %d", i)
		assert.GreaterOrEqual(t, b.High, b.Open, "bar %d", i)
		assert.LessOrEqual(t, b.Low, b.Close, "bar %d", i)
		assert.Greater(t, b.Low, 0.0, "bar %d", i)
		assert.Greater(t, b.Volume, 0.0, "bar %d", i)
		if i > 0 {
			assert.True(t, b.Timestamp.After(bars[i-1].Timestamp))
			assert.Equal(t, bars[i-1].Close, b.Open)
		}
	}
}

func TestSnapshotHasBook(t *testing.T) {
	s := Snapshot("BTC", 1, 100)
	require.True(t, s.HasBook())
	assert.Less(t, *s.BestBid, *s.BestAsk)
	assert.Equal(t, "BTC", s.Ticker)
}

func TestProviderIsStablePerTicker(t *testing.T) {
	p := NewProvider(1)
	ctx := context.Background()

	a, err := p.Snapshot(ctx, "btc", 120)
	require.NoError(t, err)
	b, err := p.Snapshot(ctx, "BTC", 120)
	require.NoError(t, err)
	c, err := p.Snapshot(ctx, "ETH", 120)
	require.NoError(t, err)

	assert.Equal(t, a.Bars, b.Bars)
	assert.NotEqual(t, a.Bars, c.Bars)
	assert.Len(t, a.Bars, 120)
}

func TestProviderTickers(t *testing.T) {
	tickers, err := NewProvider(1).Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, tickers, 8)
	for i := 1; i < len(tickers); i++ {
		assert.GreaterOrEqual(t, tickers[i-1].TradeValue24h, tickers[i].TradeValue24h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewProvider(1).Snapshot(ctx, "BTC", 60)
	assert.Error(t, err)
}
