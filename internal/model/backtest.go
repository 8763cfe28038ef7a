package model

import "time"

// TradeType is the side of a simulated trade
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade is one simulated fill
type Trade struct {
	Type      TradeType `json:"type"`
	Price     float64   `json:"price"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	PnL       *float64  `json:"pnl,omitempty"` // только для SELL
}

// BacktestResult stores backtesting results
type BacktestResult struct {
	Ticker         string  `json:"ticker"`
	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	ReturnPct      float64 `json:"return_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	TotalTrades    int     `json:"total_trades"`
	Trades         []Trade `json:"trades"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	OpenPosition   bool    `json:"open_position"`
}
