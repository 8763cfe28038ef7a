package fixture

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/Alias1177/nicempc/internal/api/bithumb"
	"github.com/Alias1177/nicempc/internal/model"
)

// Provider serves synthetic snapshots; the seed is derived from the ticker
// so repeated calls for one ticker return the same bars
type Provider struct {
	Seed    int64
	Symbols []string
}

// NewProvider returns a provider with a small demo universe
func NewProvider(seed int64) *Provider {
	return &Provider{
		Seed:    seed,
		Symbols: []string{"BTC", "ETH", "XRP", "SOL", "DOGE", "ADA", "TRX", "LINK"},
	}
}

// Snapshot returns count bars for ticker
func (p *Provider) Snapshot(ctx context.Context, ticker string, count int) (model.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.MarketSnapshot{}, err
	}
	return Snapshot(ticker, p.seedFor(ticker), count), nil
}

// Tickers lists the demo universe ordered by a synthetic 24h value
func (p *Provider) Tickers(ctx context.Context) ([]bithumb.Ticker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]bithumb.Ticker, 0, len(p.Symbols))
	for _, s := range p.Symbols {
		bars := Generate(p.seedFor(s), 24)
		var value float64
		for _, b := range bars {
			value += b.Close * b.Volume
		}
		out = append(out, bithumb.Ticker{
			Symbol:        s,
			Price:         bars[len(bars)-1].Close,
			ChangePct:     (bars[len(bars)-1].Close - bars[0].Open) / bars[0].Open * 100,
			TradeValue24h: value,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TradeValue24h > out[j].TradeValue24h })
	return out, nil
}

func (p *Provider) seedFor(ticker string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(ticker)))
	return p.Seed ^ int64(h.Sum64()>>1)
}
