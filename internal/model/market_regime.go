package model

// MarketRegime represents the current market conditions
type MarketRegime struct {
	Type             string  `json:"type"`     // TRENDING, RANGING, VOLATILE, CHOPPY, UNKNOWN
	Strength         float64 `json:"strength"` // 0-1
	Direction        string  `json:"direction"`
	VolatilityLevel  string  `json:"volatility_level"` // LOW, NORMAL, HIGH
	VolatilityRatio  float64 `json:"volatility_ratio"`
	MomentumStrength float64 `json:"momentum_strength"` // 0-1
	ADX              float64 `json:"adx"`
}
