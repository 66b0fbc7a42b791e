package driver

import "slices"

// ModelSpec describes a completion model's context size and pricing.
type ModelSpec struct {
	// MaxContextTokens is the model's full context window.
	MaxContextTokens int

	// InputCostPer1K and OutputCostPer1K are the dollar rates per thousand
	// prompt and completion tokens.
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// DefaultModel is the model used when the configured one is unknown.
const DefaultModel = "gpt-3.5-turbo-0613"

var models = map[string]ModelSpec{
	"gpt-3.5-turbo-0613": {
		MaxContextTokens: 4096,
		InputCostPer1K:   0.0015,
		OutputCostPer1K:  0.002,
	},
	"gpt-3.5-turbo-16k-0613": {
		MaxContextTokens: 16384,
		InputCostPer1K:   0.003,
		OutputCostPer1K:  0.004,
	},
	"gpt-4-0613": {
		MaxContextTokens: 8192,
		InputCostPer1K:   0.03,
		OutputCostPer1K:  0.06,
	},
}

// SpecFor returns the spec for model, falling back to DefaultModel's spec
// when the model is not in the table.
func SpecFor(model string) ModelSpec {
	if spec, ok := models[model]; ok {
		return spec
	}
	return models[DefaultModel]
}

// WindowBudget returns the token budget for the assembled conversation
// window: half the model's context, leaving the other half for the reply.
func WindowBudget(model string) int {
	return SpecFor(model).MaxContextTokens / 2
}

// ModelNames returns the known model names, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
