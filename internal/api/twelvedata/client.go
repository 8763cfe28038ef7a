package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/model"
	httpClient "github.com/Alias1177/nicempc/internal/platform/http"
)

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	interval   string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	Interval        string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// timeSeriesResponse represents the API response from Twelve Data
type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   float64 `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 30 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}
	if options.BaseURL == "" {
		options.BaseURL = "https://api.twelvedata.com"
	}
	if options.Interval == "" {
		options.Interval = "1h"
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		interval:   options.Interval,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Snapshot fetches bars for an equity ticker. Twelve Data has no order
// book on this endpoint, so bid/ask stay empty.
func (c *Client) Snapshot(ctx context.Context, ticker string, count int) (model.MarketSnapshot, error) {
	bars, err := c.GetBars(ctx, ticker, c.interval, count)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	snap := model.NewSnapshot(ticker, bars)
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// GetBars fetches bars from Twelve Data API, oldest first
func (c *Client) GetBars(ctx context.Context, symbol string, interval string, count int) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", fmt.Sprint(count))
	q.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/time_series?" + q.Encode()

	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("count", count).Msg("Fetching bars")

	body, err := c.httpClient.GetBody(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Error().Str("response", string(body)).Msg("Twelve Data API error")
		return nil, fmt.Errorf("twelve data API error: %s", data.Message)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No bars in response")
		return nil, fmt.Errorf("empty data returned for %s", symbol)
	}

	// Sort by datetime (oldest first for proper calculations)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	bars := make([]model.Bar, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("bar %q: %w", v.Datetime, err)
		}
		bars = append(bars, model.Bar{
			Timestamp: ts,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
			Volume:    v.Volume,
		})
	}

	c.logger.Debug().Int("count", len(bars)).Msg("Fetched bars")
	return bars, nil
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range []string{time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime")
}
