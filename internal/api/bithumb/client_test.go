package bithumb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const candlesJSON = `{"status":"0000","data":[
	[1714557600000,"101","102","103","100","5.5"],
	[1714555800000,"100","101","102","99","4.5"],
	[1714559400000,"102","104","105","101","6.5"]
]}`

const bookJSON = `{"status":"0000","data":{"timestamp":"1714559400000","order_currency":"BTC","payment_currency":"KRW",
	"bids":[{"quantity":"0.5","price":"100"}],"asks":[{"quantity":"0.3","price":"103"}]}}`

const tickersJSON = `{"status":"0000","data":{
	"BTC":{"opening_price":"90","closing_price":"100","fluctate_rate_24H":"1.5","acc_trade_value_24H":"5000"},
	"ETH":{"opening_price":"10","closing_price":"11","fluctate_rate_24H":"-0.5","acc_trade_value_24H":"9000"},
	"XRP":{"opening_price":"1","closing_price":"1","fluctate_rate_24H":"0","acc_trade_value_24H":"10"},
	"date":"1714559400000"}}`

func newServer(t *testing.T, book string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/candlestick/BTC_KRW/30m", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candlesJSON))
	})
	mux.HandleFunc("/orderbook/BTC_KRW", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(book))
	})
	mux.HandleFunc("/ticker/ALL_KRW", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tickersJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{BaseURL: url, RequestTimeout: time.Second, RequestsPerSec: 100, MaxRetryTimeout: time.Second})
}

func TestSnapshot(t *testing.T) {
	srv := newServer(t, bookJSON)

	snap, err := newTestClient(srv.URL).Snapshot(context.Background(), "btc_krw", 2)
	require.NoError(t, err)

	assert.Equal(t, "BTC", snap.Ticker)
	require.Len(t, snap.Bars, 2)
	// старейший отброшен, порядок по времени
	assert.Equal(t, 101.0, snap.Bars[0].Open)
	assert.Equal(t, 102.0, snap.Bars[0].Close)
	assert.Equal(t, 103.0, snap.Bars[0].High)
	assert.Equal(t, 100.0, snap.Bars[0].Low)
	assert.Equal(t, 104.0, snap.Bars[1].Close)
	assert.Equal(t, time.UnixMilli(1714559400000).UTC(), snap.Bars[1].Timestamp)

	require.True(t, snap.HasBook())
	assert.Equal(t, 100.0, *snap.BestBid)
	assert.Equal(t, 103.0, *snap.BestAsk)
}

func TestSnapshotWithoutBook(t *testing.T) {
	srv := newServer(t, `{"status":"5600","message":"not available"}`)

	snap, err := newTestClient(srv.URL).Snapshot(context.Background(), "BTC", 10)
	require.NoError(t, err)
	assert.Len(t, snap.Bars, 3)
	assert.False(t, snap.HasBook())
}

func TestTickersSortedByTradeValue(t *testing.T) {
	srv := newServer(t, bookJSON)

	tickers, err := newTestClient(srv.URL).Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, tickers, 3)
	assert.Equal(t, "ETH", tickers[0].Symbol)
	assert.Equal(t, "BTC", tickers[1].Symbol)
	assert.Equal(t, 1.5, tickers[1].ChangePct)
	assert.Equal(t, 100.0, tickers[1].Price)
}

func TestCandlesUnknownSymbol(t *testing.T) {
	srv := newServer(t, bookJSON)

	_, err := newTestClient(srv.URL).Candles(context.Background(), "NOPE", "30m", 10)
	assert.Error(t, err)
}
