// Package prompt fills template patterns with caller inputs and charges the
// result against the context usage tracker.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumix-labs/swift-prompter/internal/models"
	"github.com/lumix-labs/swift-prompter/internal/tracker"
)

// ErrTemplateRequired is returned when Build is called without a template.
var ErrTemplateRequired = errors.New("template is required")

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_-]*)\}`)

// UsageRecorder receives the token cost of every built prompt.
type UsageRecorder interface {
	RecordUsage(tokens int64)
}

// Builder resolves template inputs into prompts.
type Builder struct {
	usage  UsageRecorder
	logger zerolog.Logger
}

// NewBuilder creates a builder that charges usage to the given recorder.
func NewBuilder(usage UsageRecorder, logger zerolog.Logger) *Builder {
	return &Builder{usage: usage, logger: logger}
}

// Build fills tmpl with inputs. When required inputs are absent the result
// lists them and carries no prompt; nothing is charged in that case.
func (b *Builder) Build(ctx context.Context, tmpl *models.Template, inputs map[string]models.InputValue) (result *models.BuildResult, err error) {
	if tmpl == nil {
		return nil, ErrTemplateRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("build prompt %s: %v", tmpl.TemplateID, r)
		}
	}()

	if missing := MissingInputs(tmpl, inputs); len(missing) > 0 {
		b.logger.Debug().
			Str("template_id", tmpl.TemplateID).
			Strs("missing", missing).
			Msg("prompt rejected")
		return &models.BuildResult{
			TemplateID:    tmpl.TemplateID,
			TemplateName:  tmpl.Name,
			MissingInputs: missing,
		}, nil
	}

	text := Substitute(tmpl.Pattern, ResolveInputs(tmpl, inputs))
	if unresolved := UnresolvedPlaceholders(text); len(unresolved) > 0 {
		b.logger.Debug().
			Str("template_id", tmpl.TemplateID).
			Strs("placeholders", unresolved).
			Msg("prompt has unresolved placeholders")
	}

	tokens := tracker.EstimateTokens(text)
	if b.usage != nil {
		b.usage.RecordUsage(tokens)
	}

	b.logger.Debug().
		Str("template_id", tmpl.TemplateID).
		Int64("tokens", tokens).
		Msg("prompt built")

	return &models.BuildResult{
		Prompt:       text,
		TemplateID:   tmpl.TemplateID,
		TemplateName: tmpl.Name,
		ContextUsage: tokens,
	}, nil
}

// MissingInputs lists required inputs absent from inputs, in declaration
// order. An empty string counts as provided.
func MissingInputs(tmpl *models.Template, inputs map[string]models.InputValue) []string {
	var missing []string
	for _, name := range tmpl.RequiredInputs() {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ResolveInputs returns the value used for each declared input: the provided
// value, else the declared default. Inputs with neither are omitted.
// Undeclared keys in inputs are ignored.
func ResolveInputs(tmpl *models.Template, inputs map[string]models.InputValue) map[string]models.InputValue {
	resolved := make(map[string]models.InputValue, len(tmpl.Inputs))
	for _, input := range tmpl.Inputs {
		if value, ok := inputs[input.Name]; ok {
			resolved[input.Name] = value
			continue
		}
		if input.Default != nil {
			resolved[input.Name] = *input.Default
		}
	}
	return resolved
}

// Substitute replaces every {name} with its value in a single pass. Values
// are never re-expanded, and placeholders without a value stay verbatim.
func Substitute(pattern string, values map[string]models.InputValue) string {
	if len(values) == 0 {
		return pattern
	}
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", value.String())
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}

// UnresolvedPlaceholders returns the distinct {name} tokens left in text.
func UnresolvedPlaceholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		names = append(names, match[1])
	}
	return names
}
