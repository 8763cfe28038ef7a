package bithumb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/nicempc/internal/model"
	httpClient "github.com/Alias1177/nicempc/internal/platform/http"
)

const statusOK = "0000"

// Client reads Bithumb public market data for KRW pairs
type Client struct {
	baseURL    string
	interval   string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Bithumb client
type ClientOptions struct {
	BaseURL         string
	Interval        string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// Ticker is one row of the ALL_KRW board
type Ticker struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePct     float64 `json:"change_pct"`
	TradeValue24h float64 `json:"trade_value_24h"`
}

// NewClient creates a new Bithumb API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.bithumb.com/public"
	}
	if options.Interval == "" {
		options.Interval = "30m"
	}
	if options.RequestsPerSec == 0 {
		options.RequestsPerSec = 10
	}

	return &Client{
		baseURL:  strings.TrimRight(options.BaseURL, "/"),
		interval: options.Interval,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "bithumb_client").Logger(),
	}
}

// Snapshot fetches bars and the top of book concurrently. A missing book
// leaves bid/ask empty instead of failing the snapshot.
func (c *Client) Snapshot(ctx context.Context, ticker string, count int) (model.MarketSnapshot, error) {
	symbol := normalize(ticker)

	var bars []model.Bar
	var bid, ask float64
	var bookErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bars, err = c.Candles(gctx, symbol, c.interval, count)
		return err
	})
	g.Go(func() error {
		bid, ask, bookErr = c.OrderBook(gctx, symbol)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.MarketSnapshot{}, err
	}

	snap := model.NewSnapshot(symbol, bars)
	snap.FetchedAt = time.Now().UTC()
	if bookErr != nil {
		c.logger.Warn().Err(bookErr).Str("symbol", symbol).Msg("Order book unavailable")
		return snap, nil
	}
	return snap.WithBook(bid, ask), nil
}

// Candles returns the last count bars, oldest first
func (c *Client) Candles(ctx context.Context, symbol, interval string, count int) ([]model.Bar, error) {
	body, err := c.get(ctx, fmt.Sprintf("/candlestick/%s_KRW/%s", normalize(symbol), interval))
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "data").Array()
	if len(rows) == 0 {
		return nil, fmt.Errorf("no candles for %s", symbol)
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		// [время мс, open, close, high, low, volume]
		f := row.Array()
		if len(f) < 6 {
			return nil, fmt.Errorf("malformed candle %s", row.Raw)
		}
		bars = append(bars, model.Bar{
			Timestamp: time.UnixMilli(f[0].Int()).UTC(),
			Open:      f[1].Float(),
			Close:     f[2].Float(),
			High:      f[3].Float(),
			Low:       f[4].Float(),
			Volume:    f[5].Float(),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

// OrderBook returns the best bid and ask
func (c *Client) OrderBook(ctx context.Context, symbol string) (float64, float64, error) {
	body, err := c.get(ctx, fmt.Sprintf("/orderbook/%s_KRW?count=1", normalize(symbol)))
	if err != nil {
		return 0, 0, err
	}

	bid := gjson.GetBytes(body, "data.bids.0.price")
	ask := gjson.GetBytes(body, "data.asks.0.price")
	if !bid.Exists() || !ask.Exists() {
		return 0, 0, fmt.Errorf("empty order book for %s", symbol)
	}
	return bid.Float(), ask.Float(), nil
}

// Tickers returns the KRW board sorted by 24h traded value, largest first
func (c *Client) Tickers(ctx context.Context) ([]Ticker, error) {
	body, err := c.get(ctx, "/ticker/ALL_KRW")
	if err != nil {
		return nil, err
	}

	var out []Ticker
	gjson.GetBytes(body, "data").ForEach(func(key, value gjson.Result) bool {
		if key.String() == "date" || !value.Get("closing_price").Exists() {
			return true
		}
		out = append(out, Ticker{
			Symbol:        key.String(),
			Price:         value.Get("closing_price").Float(),
			ChangePct:     value.Get("fluctate_rate_24H").Float(),
			TradeValue24h: value.Get("acc_trade_value_24H").Float(),
		})
		return true
	})

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TradeValue24h == out[j].TradeValue24h {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].TradeValue24h > out[j].TradeValue24h
	})
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, err := c.httpClient.GetBody(ctx, c.baseURL+path)
	if err != nil {
		return nil, err
	}
	if status := gjson.GetBytes(body, "status").String(); status != statusOK {
		return nil, fmt.Errorf("bithumb %s: status %s: %s", path, status, gjson.GetBytes(body, "message").String())
	}
	return body, nil
}

func normalize(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.TrimSuffix(t, "_KRW")
}
