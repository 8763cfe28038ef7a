package backtest

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

// Options configures the MA-crossover/RSI replay
type Options struct {
	InitialBalance float64 `yaml:"initial_balance" default:"100000000" validate:"gt=0"`
	TradeLog       int     `yaml:"trade_log" default:"5" validate:"min=0"`
	FastMA         int     `yaml:"fast_ma" default:"20" validate:"min=1"`
	SlowMA         int     `yaml:"slow_ma" default:"60" validate:"gtfield=FastMA"`
	RSIPeriod      int     `yaml:"rsi_period" default:"14" validate:"min=1"`
	EntryRSI       float64 `yaml:"entry_rsi" default:"45"`
	ExitRSI        float64 `yaml:"exit_rsi" default:"70"`
}

// DefaultOptions returns the stock strategy parameters
func DefaultOptions() Options {
	return Options{
		InitialBalance: 100_000_000,
		TradeLog:       5,
		FastMA:         20,
		SlowMA:         60,
		RSIPeriod:      14,
		EntryRSI:       45,
		ExitRSI:        70,
	}
}

// Engine handles backtesting operations
type Engine struct {
	opts Options
}

// NewEngine creates a new backtesting engine
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Run replays bars with the default options
func Run(ticker string, bars []model.Bar) (model.BacktestResult, error) {
	return NewEngine(DefaultOptions()).Run(ticker, bars)
}

// Run executes a long-only backtest. Indicators are precomputed without
// look-ahead; an open position is marked to market at the last close.
func (e *Engine) Run(ticker string, bars []model.Bar) (model.BacktestResult, error) {
	warmup := max(model.MinBars, e.opts.SlowMA, e.opts.RSIPeriod+1)
	if len(bars) < warmup {
		return model.BacktestResult{}, fmt.Errorf("backtest %s: need %d bars, have %d: %w",
			ticker, warmup, len(bars), model.ErrInsufficientData)
	}

	closes := model.Closes(bars)
	fast := calculate.SMASeries(closes, e.opts.FastMA)
	slow := calculate.SMASeries(closes, e.opts.SlowMA)
	rsi := calculate.RSISeries(closes, e.opts.RSIPeriod)

	cash := e.opts.InitialBalance
	var units, entry float64
	var trades []model.Trade
	var pnls []float64
	equity := make([]float64, 0, len(bars)-warmup+1)
	equity = append(equity, cash)

	for i := warmup; i < len(bars); i++ {
		price := closes[i]
		holding := units > 0

		switch {
		case !holding && fast[i] > slow[i] && rsi[i] < e.opts.EntryRSI && price > 0:
			units = cash / price
			entry = price
			cash = 0
			trades = append(trades, model.Trade{Type: model.TradeBuy, Price: price, Index: i, Timestamp: bars[i].Timestamp})

		case holding && (rsi[i] > e.opts.ExitRSI || fast[i] < slow[i]):
			proceeds := units * price
			pnl := round2(proceeds - entry*units)
			cash = proceeds
			units, entry = 0, 0
			pnls = append(pnls, pnl)
			trades = append(trades, model.Trade{Type: model.TradeSell, Price: price, Index: i, Timestamp: bars[i].Timestamp, PnL: &pnl})
		}

		equity = append(equity, cash+units*price)
	}

	final := cash + units*closes[len(closes)-1]
	res := model.BacktestResult{
		Ticker:         ticker,
		InitialBalance: e.opts.InitialBalance,
		FinalBalance:   round2(final),
		ReturnPct:      round2((final - e.opts.InitialBalance) / e.opts.InitialBalance * 100),
		WinRatePct:     round2(winRate(pnls)),
		TotalTrades:    len(pnls),
		Trades:         lastTrades(trades, e.opts.TradeLog),
		MaxDrawdownPct: round2(maxDrawdown(equity) * 100),
		ProfitFactor:   round2(profitFactor(pnls)),
		OpenPosition:   units > 0,
	}
	return res, nil
}

func lastTrades(trades []model.Trade, n int) []model.Trade {
	if n <= 0 {
		return []model.Trade{}
	}
	start := max(0, len(trades)-n)
	out := make([]model.Trade, len(trades)-start)
	copy(out, trades[start:])
	return out
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
