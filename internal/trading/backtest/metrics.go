package backtest

// winRate is the share of closed trades with positive pnl, in percent
func winRate(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	wins := 0
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls)) * 100
}

// maxDrawdown computes the largest peak-to-trough fall of the equity curve
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// profitFactor divides gross profit by gross loss; 0 when nothing was lost
func profitFactor(pnls []float64) float64 {
	var gains, losses float64
	for _, p := range pnls {
		if p > 0 {
			gains += p
		} else {
			losses -= p
		}
	}
	if losses == 0 {
		return 0
	}
	return gains / losses
}
