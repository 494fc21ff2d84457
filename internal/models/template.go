package models

// ExecutionMode describes how a template is meant to be run.
type ExecutionMode string

const (
	ExecutionModeSingleChat ExecutionMode = "single_chat"
	ExecutionModeMultiChat  ExecutionMode = "multi_chat"
)

// Valid reports whether m is a known execution mode.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ExecutionModeSingleChat, ExecutionModeMultiChat:
		return true
	default:
		return false
	}
}

// InputType is the kind of value a template input accepts.
type InputType string

const (
	InputTypeText    InputType = "text"
	InputTypeSelect  InputType = "select"
	InputTypeBoolean InputType = "boolean"
)

// Valid reports whether t is a known input type.
func (t InputType) Valid() bool {
	switch t {
	case InputTypeText, InputTypeSelect, InputTypeBoolean:
		return true
	default:
		return false
	}
}

// ContextRequirements bounds how much of the context window a template expects.
type ContextRequirements struct {
	// MaxSizePercentage is the largest share of the window the filled prompt should take.
	MaxSizePercentage float64 `yaml:"max_size_percentage" json:"max_size_percentage" toml:"max_size_percentage" jsonschema:"required,minimum=0,maximum=1"`

	// OptimalRemaining is the share of the window that should remain free.
	OptimalRemaining float64 `yaml:"optimal_remaining" json:"optimal_remaining" toml:"optimal_remaining" jsonschema:"required,minimum=0,maximum=1"`
}

// Execution wraps the execution mode as it appears in template files.
type Execution struct {
	Mode ExecutionMode `yaml:"mode" json:"mode" toml:"mode" jsonschema:"required,enum=single_chat,enum=multi_chat"`
}

// TemplateInput declares a variable a template pattern can reference.
type TemplateInput struct {
	Name     string      `yaml:"name" json:"name" toml:"name" jsonschema:"required"`
	Type     InputType   `yaml:"type" json:"type" toml:"type" jsonschema:"required,enum=text,enum=select,enum=boolean"`
	Required bool        `yaml:"required" json:"required" toml:"required"`
	Default  *InputValue `yaml:"default,omitempty" json:"default,omitempty" toml:"default,omitempty"`
	Options  []string    `yaml:"options,omitempty" json:"options,omitempty" toml:"options,omitempty"`
}

// Template is a reusable prompt pattern with declared inputs.
type Template struct {
	TemplateID          string              `yaml:"template_id" json:"template_id" toml:"template_id" jsonschema:"required"`
	Name                string              `yaml:"name" json:"name" toml:"name" jsonschema:"required"`
	Description         string              `yaml:"description" json:"description" toml:"description" jsonschema:"required"`
	Tags                []string            `yaml:"tags" json:"tags" toml:"tags" jsonschema:"required"`
	ContextRequirements ContextRequirements `yaml:"context_requirements" json:"context_requirements" toml:"context_requirements" jsonschema:"required"`
	Execution           Execution           `yaml:"execution" json:"execution" toml:"execution" jsonschema:"required"`
	Pattern             string              `yaml:"pattern" json:"pattern" toml:"pattern" jsonschema:"required"`
	Inputs              []TemplateInput     `yaml:"inputs" json:"inputs" toml:"inputs" jsonschema:"required"`

	// Source is the file path the template was loaded from, or "builtin".
	Source string `yaml:"-" json:"-" toml:"-"`
}

// TemplateSummary is a Template without its pattern body.
type TemplateSummary struct {
	TemplateID          string              `json:"template_id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	Tags                []string            `json:"tags"`
	ContextRequirements ContextRequirements `json:"context_requirements"`
	Execution           Execution           `json:"execution"`
	Inputs              []TemplateInput     `json:"inputs"`
}

// Summary returns the listing form of t. The summary owns its slices.
func (t *Template) Summary() TemplateSummary {
	return TemplateSummary{
		TemplateID:          t.TemplateID,
		Name:                t.Name,
		Description:         t.Description,
		Tags:                cloneStrings(t.Tags),
		ContextRequirements: t.ContextRequirements,
		Execution:           t.Execution,
		Inputs:              cloneInputs(t.Inputs),
	}
}

// Clone returns a deep copy of s.
func (s TemplateSummary) Clone() TemplateSummary {
	s.Tags = cloneStrings(s.Tags)
	s.Inputs = cloneInputs(s.Inputs)
	return s
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append(make([]string, 0, len(values)), values...)
}

func cloneInputs(inputs []TemplateInput) []TemplateInput {
	if inputs == nil {
		return nil
	}
	cloned := make([]TemplateInput, len(inputs))
	for i, input := range inputs {
		input.Options = cloneStrings(input.Options)
		if input.Default != nil {
			value := *input.Default
			input.Default = &value
		}
		cloned[i] = input
	}
	return cloned
}

// Input returns the declared input with the given name.
func (t *Template) Input(name string) (TemplateInput, bool) {
	for _, input := range t.Inputs {
		if input.Name == name {
			return input, true
		}
	}
	return TemplateInput{}, false
}

// RequiredInputs returns the names of required inputs in declaration order.
func (t *Template) RequiredInputs() []string {
	var names []string
	for _, input := range t.Inputs {
		if input.Required {
			names = append(names, input.Name)
		}
	}
	return names
}

// TemplateQuery filters a template listing. Empty fields match everything.
type TemplateQuery struct {
	Tag    string `json:"tag,omitempty"`
	Search string `json:"search,omitempty"`
}

// TemplateList is the result of a catalog query.
type TemplateList struct {
	Templates []TemplateSummary `json:"templates"`
	Count     int               `json:"count"`
	Tags      []string          `json:"tags"`
}

// Clone returns a deep copy of l.
func (l TemplateList) Clone() TemplateList {
	cloned := TemplateList{
		Templates: make([]TemplateSummary, len(l.Templates)),
		Count:     l.Count,
		Tags:      cloneStrings(l.Tags),
	}
	for i, summary := range l.Templates {
		cloned.Templates[i] = summary.Clone()
	}
	return cloned
}
