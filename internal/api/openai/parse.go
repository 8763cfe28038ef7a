package openai

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Alias1177/nicempc/internal/model"
)

// ParseSynthesis extracts {"signal","reasoning"} from a completion, tolerating
// prose or code fences around the JSON object
func ParseSynthesis(content string) (model.Synthesis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return model.Synthesis{}, fmt.Errorf("no JSON object in completion")
	}

	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return model.Synthesis{}, fmt.Errorf("invalid JSON in completion")
	}

	label, ok := mapLabel(gjson.Get(raw, "signal").String())
	if !ok {
		return model.Synthesis{}, fmt.Errorf("unknown signal %q", gjson.Get(raw, "signal").String())
	}

	return model.Synthesis{
		Label:     label,
		Reasoning: strings.TrimSpace(gjson.Get(raw, "reasoning").String()),
	}, nil
}

func mapLabel(signal string) (model.SynthesisLabel, bool) {
	switch strings.ToUpper(strings.TrimSpace(signal)) {
	case "STRONG", "TYPE A", "A", "STRONG BUY":
		return model.LabelStrong, true
	case "STANDARD", "TYPE B", "B", "BUY":
		return model.LabelStandard, true
	case "WAIT", "TYPE C", "C", "HOLD":
		return model.LabelWait, true
	}
	return "", false
}
