package model

// GuardLevel qualifies a phase outcome beyond pass/fail
type GuardLevel string

const (
	GuardPass    GuardLevel = "PASS"
	GuardCaution GuardLevel = "CAUTION"
	GuardFail    GuardLevel = "FAIL"
	GuardSkipped GuardLevel = "SKIPPED"
)

// GuardPhaseResult is the outcome of one safety phase
type GuardPhaseResult struct {
	Phase  int        `json:"phase"`
	Name   string     `json:"name"`
	Passed bool       `json:"passed"`
	Level  GuardLevel `json:"level"`
	Reason string     `json:"reason,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// GuardReport lists the evaluated phases up to and including the first failure
type GuardReport struct {
	AllPassed   bool               `json:"all_passed"`
	FailedPhase *int               `json:"failed_phase,omitempty"`
	Phases      []GuardPhaseResult `json:"phases"`
}

// Cautions returns the phases that passed with an advisory
func (r GuardReport) Cautions() []GuardPhaseResult {
	var out []GuardPhaseResult
	for _, p := range r.Phases {
		if p.Level == GuardCaution {
			out = append(out, p)
		}
	}
	return out
}
