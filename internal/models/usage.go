package models

import "encoding/json"

// RecommendedAction tells the caller whether to keep the current conversation.
type RecommendedAction string

const (
	// ActionContinue means enough context remains.
	ActionContinue RecommendedAction = "continue"
	// ActionNewChat means remaining context dropped below the threshold.
	ActionNewChat RecommendedAction = "new_chat"
)

// ContextStatus is a snapshot of conversation capacity usage.
type ContextStatus struct {
	// TotalCapacity is the token budget of the conversation.
	TotalCapacity int64 `json:"total_capacity"`

	// UsedCapacity is the number of tokens recorded so far.
	UsedCapacity int64 `json:"used_capacity"`

	// RemainingCapacity is TotalCapacity - UsedCapacity. It goes negative
	// once usage exceeds the budget.
	RemainingCapacity int64 `json:"remaining_capacity"`

	// UsedPercentage is UsedCapacity / TotalCapacity.
	UsedPercentage float64 `json:"used_percentage"`

	// RemainingPercentage is 1 - UsedPercentage.
	RemainingPercentage float64 `json:"remaining_percentage"`

	// RecommendedAction is new_chat when RemainingPercentage falls below the
	// requested threshold.
	RecommendedAction RecommendedAction `json:"recommended_action"`
}

// BuildRequest asks for a template to be filled with inputs.
type BuildRequest struct {
	TemplateID string                `json:"template_id"`
	Inputs     map[string]InputValue `json:"inputs"`
}

// BuildResult is either a filled prompt or a list of missing required inputs.
type BuildResult struct {
	Prompt        string   `json:"prompt"`
	TemplateID    string   `json:"template_id"`
	TemplateName  string   `json:"template_name"`
	ContextUsage  int64    `json:"context_usage"`
	MissingInputs []string `json:"missing_inputs,omitempty"`
}

// MarshalJSON omits context_usage for rejections and always emits it for
// built prompts, including ones that substitute to an empty string.
func (r BuildResult) MarshalJSON() ([]byte, error) {
	type buildResult BuildResult
	out := struct {
		buildResult
		ContextUsage *int64 `json:"context_usage,omitempty"`
	}{buildResult: buildResult(r)}
	if !r.Rejected() {
		usage := r.ContextUsage
		out.ContextUsage = &usage
	}
	return json.Marshal(out)
}

// Rejected reports whether the build was refused for missing inputs.
func (r *BuildResult) Rejected() bool {
	return len(r.MissingInputs) > 0
}
