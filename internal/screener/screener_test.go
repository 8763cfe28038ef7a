package screener

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/api/bithumb"
	"github.com/Alias1177/nicempc/internal/fixture"
	"github.com/Alias1177/nicempc/internal/metrics"
	"github.com/Alias1177/nicempc/internal/model"
)

func generateTestBars(n int, generator func(int) model.Bar) []model.Bar {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		bars[i].Timestamp = start.Add(time.Duration(i) * 30 * time.Minute)
	}
	return bars
}

// последние три бара: open 100, финальный close задаёт моментум
func withMomentum(lastClose float64) []model.Bar {
	return generateTestBars(10, func(i int) model.Bar {
		c := 100.0
		if i == 9 {
			c = lastClose
		}
		return model.Bar{Open: 100, High: 200, Low: 1, Close: c, Volume: 10}
	})
}

type stubProvider struct {
	mu       sync.Mutex
	bars     map[string][]model.Bar
	slow     map[string]bool
	inFlight int
	peak     int
}

func (p *stubProvider) Snapshot(ctx context.Context, ticker string, _ int) (model.MarketSnapshot, error) {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	slow := p.slow[ticker]
	bars, ok := p.bars[ticker]
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if slow {
		<-ctx.Done()
		return model.MarketSnapshot{}, ctx.Err()
	}
	time.Sleep(5 * time.Millisecond)
	if !ok {
		return model.MarketSnapshot{}, errors.New("unknown symbol")
	}
	return model.NewSnapshot(ticker, bars), nil
}

type stubLister struct {
	tickers []bithumb.Ticker
	err     error
}

func (l stubLister) Tickers(context.Context) ([]bithumb.Ticker, error) {
	return l.tickers, l.err
}

func tickers(symbols ...string) []bithumb.Ticker {
	out := make([]bithumb.Ticker, len(symbols))
	for i, s := range symbols {
		out[i] = bithumb.Ticker{Symbol: s, TradeValue24h: float64(1000 - i)}
	}
	return out
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RequestTimeout = 50 * time.Millisecond
	return opts
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name     string
		bars     []model.Bar
		n        int
		expected float64
		ok       bool
	}{
		{"рост", withMomentum(110), 3, 10, true},
		{"падение", withMomentum(95), 3, -5, true},
		{"мало баров", withMomentum(110)[:2], 3, 0, false},
		{"нулевой open", generateTestBars(3, func(int) model.Bar { return model.Bar{Close: 1} }), 3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Momentum(tt.bars, tt.n)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, m, 1e-9)
		})
	}
}

func TestRankOrdersByAbsoluteMomentum(t *testing.T) {
	provider := &stubProvider{bars: map[string][]model.Bar{
		"AAA": withMomentum(102),
		"BBB": withMomentum(80),
		"CCC": withMomentum(115),
		"DDD": withMomentum(98),
	}}
	s := New(stubLister{tickers: tickers("AAA", "BBB", "CCC", "DDD")}, provider, nil, testOptions(), nil)

	rows, err := s.Rank(context.Background())
	require.NoError(t, err)

	symbols := make([]string, len(rows))
	for i, r := range rows {
		symbols[i] = r.Symbol
	}
	// |2| и |-2| равны, порядок по символу
	assert.Equal(t, []string{"BBB", "CCC", "AAA", "DDD"}, symbols)
	assert.InDelta(t, -20.0, rows[0].MomentumPct, 1e-9)
	assert.Equal(t, 80.0, rows[0].Price)
	assert.False(t, rows[0].Scored)
}

func TestRankSkipsSlowAndFailingCandidates(t *testing.T) {
	provider := &stubProvider{
		bars: map[string][]model.Bar{
			"FAST": withMomentum(110),
			"SLOW": withMomentum(150),
		},
		slow: map[string]bool{"SLOW": true},
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(stubLister{tickers: tickers("FAST", "SLOW", "GONE")}, provider, nil, testOptions(), m)

	start := time.Now()
	rows, err := s.Rank(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "FAST", rows[0].Symbol)
	assert.Less(t, time.Since(start), 2*time.Second)

	expected := `
# HELP nicempc_screener_skipped_total Screener candidates dropped on timeout or error.
# TYPE nicempc_screener_skipped_total counter
nicempc_screener_skipped_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nicempc_screener_skipped_total"))
}

func TestRankRespectsConcurrency(t *testing.T) {
	bars := map[string][]model.Bar{}
	symbols := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		sym := string(rune('A'+i%26)) + string(rune('a'+i/26))
		symbols = append(symbols, sym)
		bars[sym] = withMomentum(100 + float64(i))
	}
	provider := &stubProvider{bars: bars}

	opts := testOptions()
	opts.Concurrency = 3
	opts.Limit = 100
	rows := New(stubLister{}, provider, nil, opts, nil).RankTickers(context.Background(), tickers(symbols...))

	assert.Len(t, rows, 30)
	assert.LessOrEqual(t, provider.peak, 3)
	assert.Greater(t, provider.peak, 0)
}

func TestRankTrimsUniverseAndLimit(t *testing.T) {
	provider := &stubProvider{bars: map[string][]model.Bar{
		"AAA": withMomentum(101),
		"BBB": withMomentum(102),
		"CCC": withMomentum(103),
	}}
	opts := testOptions()
	opts.Universe = 2
	opts.Limit = 1

	rows, err := New(stubLister{tickers: tickers("AAA", "BBB", "CCC")}, provider, nil, opts, nil).Rank(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// CCC вне вселенной
	assert.Equal(t, "BBB", rows[0].Symbol)
}

func TestRankListerError(t *testing.T) {
	s := New(stubLister{err: errors.New("down")}, &stubProvider{}, nil, testOptions(), nil)
	_, err := s.Rank(context.Background())
	assert.Error(t, err)
}

func TestRankAttachesScore(t *testing.T) {
	provider := &stubProvider{bars: map[string][]model.Bar{
		"BTC": fixture.Generate(4, 120),
	}}
	evaluator, err := analyze.NewEvaluator(analyze.DefaultOptions(), nil)
	require.NoError(t, err)

	rows := New(stubLister{}, provider, evaluator, testOptions(), nil).RankTickers(context.Background(), tickers("BTC"))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Scored)
	assert.NotEmpty(t, rows[0].Tier)
	assert.GreaterOrEqual(t, rows[0].WeightedScore, 0.0)
}
