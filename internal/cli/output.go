package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// IsJSONOutput reports whether --json was requested.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was requested.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// WriteOutput writes v as indented JSON, or as one JSON value per line when
// --jsonl is set. Slices are split into one line per element in JSONL mode.
func WriteOutput(out io.Writer, v any) error {
	if IsJSONLOutput() {
		return writeJSONL(out, v)
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeJSONL(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Slice {
		return encoder.Encode(v)
	}
	for i := 0; i < value.Len(); i++ {
		if err := encoder.Encode(value.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// PreflightError is a user-facing failure with guidance on how to fix it.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	return e.Message
}

func printError(out io.Writer, err error) {
	var preflight *PreflightError
	if errors.As(err, &preflight) {
		fmt.Fprintf(out, "%s %s\n", styles().Error.Render("Error:"), preflight.Message)
		if preflight.Hint != "" {
			fmt.Fprintf(out, "  %s %s\n", styles().Muted.Render("Hint:"), preflight.Hint)
		}
		if preflight.NextStep != "" {
			fmt.Fprintf(out, "  %s %s\n", styles().Muted.Render("Try:"), preflight.NextStep)
		}
		return
	}
	fmt.Fprintf(out, "%s %v\n", styles().Error.Render("Error:"), err)
}
