package analyze

// Tiers are the weighted-score thresholds of the recommendation tiers
type Tiers struct {
	Tier1     float64 `yaml:"tier1" default:"80"`
	Tier2Plus float64 `yaml:"tier2_plus" default:"70"`
	Tier2     float64 `yaml:"tier2" default:"60"`
	Tier3     float64 `yaml:"tier3" default:"50"`
}

func DefaultTiers() Tiers {
	return Tiers{Tier1: 80, Tier2Plus: 70, Tier2: 60, Tier3: 50}
}

// Classify maps a weighted score onto a tier name
func (t Tiers) Classify(score float64) string {
	switch {
	case score >= t.Tier1:
		return "TIER 1 (STRONG BUY)"
	case score >= t.Tier2Plus:
		return "TIER 2+ (BUY)"
	case score >= t.Tier2:
		return "TIER 2 (BUY)"
	case score >= t.Tier3:
		return "TIER 3 (HOLD)"
	}
	return "WAIT"
}
