package model

import "github.com/shopspring/decimal"

// SizingResult holds the half-Kelly position sizing outcome
type SizingResult struct {
	KellyFractionRaw   float64         `json:"kelly_fraction_raw"`
	SafeFractionPct    float64         `json:"safe_fraction_pct"` // доля капитала после половины Келли и лимита
	AllocationAmount   decimal.Decimal `json:"allocation_amount"`
	AssumedWinRate     float64         `json:"assumed_win_rate"`
	AssumedPayoffRatio float64         `json:"assumed_payoff_ratio"`
	MaxAllocationPct   float64         `json:"max_allocation_pct"`
}
