package model

import "time"

// MinBars is the number of bars the slow moving average and the backtester need
const MinBars = 60

// Bar represents a single OHLCV price bar
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// MarketSnapshot is the immutable input of one evaluation
type MarketSnapshot struct {
	Ticker    string    `json:"ticker"`
	Bars      []Bar     `json:"bars"`
	BestBid   *float64  `json:"best_bid,omitempty"`
	BestAsk   *float64  `json:"best_ask,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// NewSnapshot builds a snapshot over a private copy of bars
func NewSnapshot(ticker string, bars []Bar) MarketSnapshot {
	own := make([]Bar, len(bars))
	copy(own, bars)
	return MarketSnapshot{Ticker: ticker, Bars: own}
}

// WithBook returns a copy of the snapshot carrying top-of-book quotes
func (s MarketSnapshot) WithBook(bid, ask float64) MarketSnapshot {
	s.BestBid = &bid
	s.BestAsk = &ask
	return s
}

// HasBook reports whether both sides of the order book are known
func (s MarketSnapshot) HasBook() bool {
	return s.BestBid != nil && s.BestAsk != nil
}

// Last returns the most recent bar
func (s MarketSnapshot) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

func (s MarketSnapshot) Closes() []float64  { return Closes(s.Bars) }
func (s MarketSnapshot) Volumes() []float64 { return Volumes(s.Bars) }

// Closes extracts close prices in bar order
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts traded volume in bar order
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Highs extracts bar highs in bar order
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts bar lows in bar order
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}
