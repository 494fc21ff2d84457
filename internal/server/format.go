package server

import (
	"fmt"
	"strings"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

// FormatTemplateList renders a listing for tool text output.
func FormatTemplateList(list models.TemplateList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d templates:\n\n", list.Count)
	for i, tmpl := range list.Templates {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s (%s): %s", tmpl.Name, tmpl.TemplateID, tmpl.Description)
	}
	fmt.Fprintf(&b, "\n\nAvailable tags: %s", strings.Join(list.Tags, ", "))
	return b.String()
}

// FormatTemplate renders a full template including its pattern.
func FormatTemplate(tmpl *models.Template) string {
	inputs := make([]string, 0, len(tmpl.Inputs))
	for _, input := range tmpl.Inputs {
		required := "No"
		if input.Required {
			required = "Yes"
		}
		details := []string{
			"Type: " + string(input.Type),
			"Required: " + required,
		}
		if input.Default != nil {
			details = append(details, "Default: "+input.Default.String())
		}
		if len(input.Options) > 0 {
			details = append(details, "Options: "+strings.Join(input.Options, ", "))
		}
		inputs = append(inputs, fmt.Sprintf("- %s: %s", input.Name, strings.Join(details, " | ")))
	}

	return fmt.Sprintf("# %s\n\n%s\n\nTags: %s\n\n## Inputs\n%s\n\n## Pattern\n```\n%s\n```",
		tmpl.Name,
		tmpl.Description,
		strings.Join(tmpl.Tags, ", "),
		strings.Join(inputs, "\n"),
		tmpl.Pattern,
	)
}

// FormatBuildResult renders a built prompt or the missing-input rejection.
func FormatBuildResult(result *models.BuildResult) string {
	if result.Rejected() {
		return fmt.Sprintf("Missing required inputs for template %s: %s",
			result.TemplateID, strings.Join(result.MissingInputs, ", "))
	}
	return fmt.Sprintf("Successfully built prompt from template %q.\n\nContext usage: %d tokens\n\nPrompt:\n```\n%s\n```",
		result.TemplateName, result.ContextUsage, result.Prompt)
}

// Recommendation returns the human-readable advice for a status.
func Recommendation(status models.ContextStatus) string {
	if status.RecommendedAction == models.ActionNewChat {
		return "Recommend starting a new chat for optimal performance."
	}
	return "Continuing in current chat is fine."
}

// FormatContextStatus renders usage figures and the recommendation.
func FormatContextStatus(status models.ContextStatus) string {
	return fmt.Sprintf("# Context Utilization\n\n- Used: %d tokens (%.1f%%)\n- Remaining: %d tokens (%.1f%%)\n- Total Capacity: %d tokens\n\n**Recommendation**: %s",
		status.UsedCapacity, status.UsedPercentage*100,
		status.RemainingCapacity, status.RemainingPercentage*100,
		status.TotalCapacity,
		Recommendation(status),
	)
}
