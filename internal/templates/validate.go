package templates

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

// requiredFields lists the keys every template file declares, with the kind
// of value each must hold.
var requiredFields = []struct {
	key  string
	kind string
}{
	{"template_id", "string"},
	{"name", "string"},
	{"description", "string"},
	{"tags", "list"},
	{"context_requirements", "object"},
	{"execution", "object"},
	{"pattern", "string"},
	{"inputs", "list"},
}

var requiredContextFields = []string{"max_size_percentage", "optimal_remaining"}

// Validate checks a template against the file format rules. The returned
// error, when non-nil, is a *models.ValidationErrors listing every problem.
// Key presence is checked by ParseTemplate, which sees the raw document.
func Validate(tmpl *models.Template) error {
	validation := &models.ValidationErrors{}
	if tmpl == nil {
		validation.AddMessage("", "template is required")
		return validation.Err()
	}
	validateTemplate(validation, tmpl)
	return validation.Err()
}

// checkRequiredFields records every required key that is absent from the
// decoded document or holds the wrong kind of value.
func checkRequiredFields(validation *models.ValidationErrors, raw map[string]any) {
	for _, field := range requiredFields {
		value, ok := raw[field.key]
		if !ok || value == nil {
			validation.AddMessage(field.key, field.key+" is required")
			continue
		}
		if kind := valueKind(value); kind != field.kind {
			validation.Addf(field.key, "must be a %s, got %s", field.kind, kind)
		}
	}

	if requirements, ok := raw["context_requirements"].(map[string]any); ok {
		for _, key := range requiredContextFields {
			if value, ok := requirements[key]; !ok || value == nil {
				validation.AddMessage("context_requirements."+key, key+" is required")
			}
		}
	}
	if execution, ok := raw["execution"].(map[string]any); ok {
		if value, ok := execution["mode"]; !ok || value == nil {
			validation.AddMessage("execution.mode", "mode is required")
		}
	}
}

func valueKind(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case []any, []map[string]any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func validateTemplate(validation *models.ValidationErrors, tmpl *models.Template) {
	reported := func(field string) bool {
		return slices.Contains(validation.Fields(), field)
	}

	requireText(validation, reported, "template_id", tmpl.TemplateID)
	requireText(validation, reported, "name", tmpl.Name)
	requireText(validation, reported, "pattern", tmpl.Pattern)

	validateFraction(validation, "context_requirements.max_size_percentage", tmpl.ContextRequirements.MaxSizePercentage)
	validateFraction(validation, "context_requirements.optimal_remaining", tmpl.ContextRequirements.OptimalRemaining)

	if !reported("execution.mode") && !tmpl.Execution.Mode.Valid() {
		validation.Addf("execution.mode", "must be %q or %q, got %q",
			models.ExecutionModeSingleChat, models.ExecutionModeMultiChat, tmpl.Execution.Mode)
	}

	seen := make(map[string]struct{}, len(tmpl.Inputs))
	for i, input := range tmpl.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		if strings.TrimSpace(input.Name) == "" {
			validation.AddMessage(field+".name", "input name is required")
		} else if _, exists := seen[input.Name]; exists {
			validation.Addf(field+".name", "duplicate input %q", input.Name)
		}
		seen[input.Name] = struct{}{}

		if !input.Type.Valid() {
			validation.Addf(field+".type", "must be one of text, select, boolean, got %q", input.Type)
		}
	}
}

// requireText rejects empty and whitespace-only values unless the field was
// already reported as missing.
func requireText(validation *models.ValidationErrors, reported func(string) bool, field, value string) {
	if reported(field) {
		return
	}
	if strings.TrimSpace(value) == "" {
		validation.AddMessage(field, field+" is required")
	}
}

func validateFraction(validation *models.ValidationErrors, field string, value float64) {
	if value < 0 || value > 1 {
		validation.Addf(field, "must be between 0 and 1, got %v", value)
	}
}
