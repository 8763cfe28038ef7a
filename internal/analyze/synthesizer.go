package analyze

import (
	"context"

	"github.com/Alias1177/nicempc/internal/model"
)

// SynthesisRequest is what a narrative generator sees
type SynthesisRequest struct {
	Ticker    string
	LastClose float64
	Aggregate model.AggregateReport
	Guard     model.GuardReport
	Tier      string
}

// Synthesizer turns scores into a labelled narrative
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (model.Synthesis, error)
}

// NoopSynthesizer is used when no generator is configured
type NoopSynthesizer struct{}

func (NoopSynthesizer) Synthesize(context.Context, SynthesisRequest) (model.Synthesis, error) {
	return Unavailable("not configured"), nil
}

// Unavailable is the WAIT fallback carrying the reason
func Unavailable(reason string) model.Synthesis {
	return model.Synthesis{Label: model.LabelWait, Reasoning: "synthesizer unavailable: " + reason}
}
