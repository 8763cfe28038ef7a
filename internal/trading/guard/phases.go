package guard

import (
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/nicempc/internal/calculate"
	"github.com/Alias1177/nicempc/internal/model"
)

func pass(detail string) Verdict {
	return Verdict{Passed: true, Level: model.GuardPass, Detail: detail}
}

func fail(format string, args ...any) Verdict {
	return Verdict{Level: model.GuardFail, Reason: fmt.Sprintf(format, args...)}
}

// DataIntegrity rejects malformed bars in the recent window
type DataIntegrity struct {
	Window int
}

func (DataIntegrity) Name() string { return "data_integrity" }

func (d DataIntegrity) Check(in Input) Verdict {
	bars := in.Snapshot.Bars
	if len(bars) == 0 {
		return fail("no bars")
	}

	start := max(0, len(bars)-d.Window)
	for i := start; i < len(bars); i++ {
		if reason := barViolation(bars[i]); reason != "" {
			return fail("bar %d (%s): %s", i, bars[i].Timestamp.Format("2006-01-02 15:04"), reason)
		}
	}
	return pass(fmt.Sprintf("last %d bars consistent", len(bars)-start))
}

func barViolation(b model.Bar) string {
	fields := []struct {
		name  string
		value float64
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return f.name + " is not a number"
		}
		if f.value < 0 {
			return fmt.Sprintf("negative %s %v", f.name, f.value)
		}
	}

	switch {
	case b.High < b.Low:
		return fmt.Sprintf("high %v < low %v", b.High, b.Low)
	case b.High < b.Close:
		return fmt.Sprintf("high %v < close %v", b.High, b.Close)
	case b.Low > b.Close:
		return fmt.Sprintf("low %v > close %v", b.Low, b.Close)
	}
	return ""
}

// MarketState rejects stale data. Without a clock reference it always passes.
type MarketState struct {
	MaxStaleness time.Duration
}

func (MarketState) Name() string { return "market_state" }

func (m MarketState) Check(in Input) Verdict {
	if in.Now == nil {
		return pass("no wall-clock reference; staleness not checked")
	}
	if m.MaxStaleness <= 0 {
		return pass("staleness check disabled")
	}

	last, ok := in.Snapshot.Last()
	if !ok {
		return fail("no bars")
	}

	age := in.Now.Sub(last.Timestamp)
	if age > m.MaxStaleness {
		return fail("last bar is %s old, limit %s", age.Round(time.Second), m.MaxStaleness)
	}
	return pass(fmt.Sprintf("last bar is %s old", age.Round(time.Second)))
}

// Liquidity rejects wide bid/ask spreads
type Liquidity struct {
	MaxSpreadBps float64
}

func (Liquidity) Name() string { return "liquidity" }

func (l Liquidity) Check(in Input) Verdict {
	if !in.Snapshot.HasBook() {
		return Verdict{Passed: true, Level: model.GuardSkipped, Detail: "not evaluated: order book unavailable"}
	}

	bid, ask := *in.Snapshot.BestBid, *in.Snapshot.BestAsk
	switch {
	case !(bid > 0) || math.IsInf(bid, 0):
		return fail("invalid best bid %v", bid)
	case !(ask >= bid) || math.IsInf(ask, 0):
		return fail("crossed book: ask %v below bid %v", ask, bid)
	}

	bps := (ask - bid) / bid * 10000
	if bps > l.MaxSpreadBps {
		return fail("spread %.1f bps exceeds %.1f bps", bps, l.MaxSpreadBps)
	}
	return pass(fmt.Sprintf("spread %.1f bps", bps))
}

// Volatility flags a close far outside its recent distribution.
// Advisory unless Blocking is set.
type Volatility struct {
	Window     int
	SigmaLimit float64
	Blocking   bool
}

func (Volatility) Name() string { return "volatility" }

func (v Volatility) Check(in Input) Verdict {
	closes := in.Snapshot.Closes()
	if len(closes) < v.Window+1 {
		return Verdict{Passed: true, Level: model.GuardSkipped,
			Detail: fmt.Sprintf("not evaluated: need %d closes, have %d", v.Window+1, len(closes))}
	}

	current := closes[len(closes)-1]
	window := closes[len(closes)-1-v.Window : len(closes)-1]
	z, ok := calculate.ZScore(current, window)
	if !ok || math.IsNaN(current) {
		return Verdict{Passed: true, Level: model.GuardSkipped, Detail: "not evaluated: non-finite closes"}
	}

	if math.Abs(z) <= v.SigmaLimit {
		return pass(fmt.Sprintf("close %.2f sigma from %d-bar mean", z, v.Window))
	}

	msg := fmt.Sprintf("close %.2f sigma from %d-bar mean exceeds %.1f", z, v.Window, v.SigmaLimit)
	if v.Blocking {
		return fail("%s", msg)
	}
	return Verdict{Passed: true, Level: model.GuardCaution, Detail: "CAUTION: " + msg}
}

// Execution is the hook for venue-side checks; nothing is wired yet
type Execution struct{}

func (Execution) Name() string { return "execution" }

func (Execution) Check(Input) Verdict {
	return pass("no execution venue configured")
}
