package tracker

import "strings"

// ModelCapacities lists context window sizes for common model families.
var ModelCapacities = map[string]int64{
	"claude-opus-4":     200000,
	"claude-sonnet-4":   200000,
	"claude-3.5-sonnet": 200000,
	"claude-3.5-haiku":  200000,
	"claude-3-opus":     200000,
	"claude-3-haiku":    200000,
	"gpt-4o":            128000,
	"gpt-4.1":           1000000,
	"gemini-1.5-pro":    2000000,
	"gemini-2.5-pro":    1000000,
}

// CapacityForModel returns the context window for model, matching either the
// exact name or the longest known prefix (so dated snapshots resolve).
// Unknown or empty names get DefaultCapacity.
func CapacityForModel(model string) int64 {
	model = strings.ToLower(strings.TrimSpace(model))
	if model == "" {
		return DefaultCapacity
	}
	if capacity, ok := ModelCapacities[model]; ok {
		return capacity
	}

	best := ""
	for name := range ModelCapacities {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return ModelCapacities[best]
	}
	return DefaultCapacity
}
