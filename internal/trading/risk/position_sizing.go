package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/nicempc/internal/model"
)

// Params are the sizing assumptions
type Params struct {
	WinRate          float64 `yaml:"win_rate" default:"0.55" validate:"gt=0,lt=1"`
	PayoffRatio      float64 `yaml:"payoff_ratio" default:"1.5" validate:"gte=0"`
	AccountBalance   float64 `yaml:"account_balance" default:"10000000" validate:"gte=0"`
	MaxAllocationPct float64 `yaml:"max_allocation_pct" default:"0.05" validate:"gt=0,lte=1"`
}

// CalculatePositionSize sizes a position with half-Kelly capped at maxAllocationPct.
// KellyFractionRaw is reported clamped at zero. Degenerate inputs (b <= 0, p outside (0,1), NaN)
// size to zero, a non-positive balance only zeroes the allocation.
func CalculatePositionSize(winRate, payoffRatio, accountBalance, maxAllocationPct float64) model.SizingResult {
	res := model.SizingResult{
		AllocationAmount:   decimal.Zero,
		AssumedWinRate:     winRate,
		AssumedPayoffRatio: payoffRatio,
		MaxAllocationPct:   maxAllocationPct,
	}

	if !(payoffRatio > 0) || !(winRate > 0 && winRate < 1) ||
		math.IsInf(payoffRatio, 0) || math.IsNaN(maxAllocationPct) {
		return res
	}

	b, p := payoffRatio, winRate
	q := 1 - p
	// отрицательный Келли обнуляется до деления пополам
	kelly := math.Max(0, (b*p-q)/b)
	res.KellyFractionRaw = kelly

	safe := kelly * 0.5
	capped := math.Min(safe, math.Max(0, maxAllocationPct))
	res.SafeFractionPct = capped

	if !(accountBalance > 0) || math.IsInf(accountBalance, 0) {
		return res
	}
	res.AllocationAmount = decimal.NewFromFloat(accountBalance).
		Mul(decimal.NewFromFloat(capped)).
		Round(2)
	return res
}

// Calculate sizes a position from stored params
func (p Params) Calculate() model.SizingResult {
	return CalculatePositionSize(p.WinRate, p.PayoffRatio, p.AccountBalance, p.MaxAllocationPct)
}
