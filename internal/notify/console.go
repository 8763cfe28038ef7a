// Package notify renders evaluations, backtests and screener runs for humans.
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/model"
	"github.com/Alias1177/nicempc/internal/screener"
)

// Console prints tables to a writer
type Console struct {
	out    io.Writer
	logger zerolog.Logger
}

// NewConsole writes to out, or stdout when out is nil
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, logger: log.With().Str("component", "console").Logger()}
}

// PrintEvaluation prints agent scores, guard phases and sizing
func (c *Console) PrintEvaluation(ev model.Evaluation) {
	fmt.Fprintf(c.out, "\n%s  close %.4f  score %.2f  confidence %.2f  %s\n",
		ev.Ticker, ev.LastClose, ev.Aggregate.WeightedScore, ev.Aggregate.Confidence, ev.Tier)

	agents := tablewriter.NewWriter(c.out)
	agents.Header("Agent", "Score", "Detail")
	for _, r := range ev.Aggregate.Results {
		c.check("agents", agents.Append(r.Agent, fmt.Sprintf("%.1f", r.Score), r.Detail))
	}
	c.check("agents", agents.Render())

	phases := tablewriter.NewWriter(c.out)
	phases.Header("#", "Phase", "Level", "Reason")
	for _, p := range ev.Guard.Phases {
		reason := p.Reason
		if reason == "" {
			reason = p.Detail
		}
		c.check("guard", phases.Append(fmt.Sprintf("%d", p.Phase), p.Name, string(p.Level), reason))
	}
	c.check("guard", phases.Render())

	verdict := "PASSED"
	if !ev.Guard.AllPassed {
		verdict = "BLOCKED"
		if ev.Guard.FailedPhase != nil {
			verdict = fmt.Sprintf("BLOCKED at phase %d", *ev.Guard.FailedPhase)
		}
	}
	fmt.Fprintf(c.out, "  Guard: %s\n", verdict)
	fmt.Fprintf(c.out, "  Kelly %.4f  safe %.2f%%  allocation %s\n",
		ev.Sizing.KellyFractionRaw, ev.Sizing.SafeFractionPct*100, ev.Sizing.AllocationAmount.StringFixed(2))
	fmt.Fprintf(c.out, "  Regime: %s %s (ADX %.1f)\n", ev.Regime.Type, ev.Regime.Direction, ev.Regime.ADX)
	fmt.Fprintf(c.out, "  Synthesis: %s  %s\n", ev.Synthesis.Label, ev.Synthesis.Reasoning)
}

// PrintBacktest prints the summary and the trade log
func (c *Console) PrintBacktest(res model.BacktestResult) {
	fmt.Fprintf(c.out, "\n%s backtest: %.2f -> %.2f (%+.2f%%)  trades %d  win %.2f%%  maxDD %.2f%%  PF %.2f\n",
		res.Ticker, res.InitialBalance, res.FinalBalance, res.ReturnPct,
		res.TotalTrades, res.WinRatePct, res.MaxDrawdownPct, res.ProfitFactor)
	if res.OpenPosition {
		fmt.Fprintln(c.out, "  position still open, marked to last close")
	}
	if len(res.Trades) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Bar", "Time", "Side", "Price", "PnL")
	for _, t := range res.Trades {
		pnl := "-"
		if t.PnL != nil {
			pnl = fmt.Sprintf("%+.2f", *t.PnL)
		}
		err := table.Append(
			fmt.Sprintf("%d", t.Index),
			t.Timestamp.Format("2006-01-02 15:04"),
			string(t.Type),
			fmt.Sprintf("%.4f", t.Price),
			pnl,
		)
		c.check("trades", err)
	}
	c.check("trades", table.Render())
}

// PrintScreener prints ranked candidates
func (c *Console) PrintScreener(rows []screener.Ranked) {
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "\nno candidates")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Price", "Momentum %", "24h value", "Score", "Tier")
	for i, r := range rows {
		score, tier := "-", "-"
		if r.Scored {
			score = fmt.Sprintf("%.1f", r.WeightedScore)
			tier = r.Tier
			if !r.GuardPassed {
				tier += " (guard)"
			}
		}
		err := table.Append(
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			fmt.Sprintf("%.4f", r.Price),
			fmt.Sprintf("%+.2f", r.MomentumPct),
			humanize(r.TradeValue24h),
			score,
			tier,
		)
		c.check("screener", err)
	}
	c.check("screener", table.Render())
}

// check logs a table error; the rest of the output is still printed
func (c *Console) check(table string, err error) {
	if err != nil {
		c.logger.Warn().Err(err).Str("table", table).Msg("Failed to render table")
	}
}

func humanize(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
