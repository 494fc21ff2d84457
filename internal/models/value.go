package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// InputValue is a template input value: either a string or a boolean.
// The zero value is the empty string.
type InputValue struct {
	str    string
	b      bool
	isBool bool
}

// StringValue wraps s as an InputValue.
func StringValue(s string) InputValue {
	return InputValue{str: s}
}

// BoolValue wraps b as an InputValue.
func BoolValue(b bool) InputValue {
	return InputValue{b: b, isBool: true}
}

// InputValueFrom converts a decoded JSON/TOML scalar into an InputValue.
func InputValueFrom(raw any) (InputValue, error) {
	switch v := raw.(type) {
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case InputValue:
		return v, nil
	default:
		return InputValue{}, fmt.Errorf("value must be a string or boolean, got %T", raw)
	}
}

// String renders the value as it is substituted into a pattern.
func (v InputValue) String() string {
	if v.isBool {
		return strconv.FormatBool(v.b)
	}
	return v.str
}

// Interface returns the underlying string or bool.
func (v InputValue) Interface() any {
	if v.isBool {
		return v.b
	}
	return v.str
}

func (v InputValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *InputValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := InputValueFrom(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v InputValue) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// UnmarshalYAML accepts a YAML string or boolean scalar.
func (v *InputValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a string or boolean", node.Line)
	}
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case "!!str":
		*v = StringValue(node.Value)
	default:
		return fmt.Errorf("line %d: value must be a string or boolean, got %s", node.Line, node.Tag)
	}
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (v *InputValue) UnmarshalTOML(raw any) error {
	parsed, err := InputValueFrom(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
