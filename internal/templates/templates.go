// Package templates provides prompt template loading, validation and the
// in-memory catalog that indexes them.
package templates

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrTemplateNotFound is returned when a template id is not in the catalog.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrUnsupportedFormat is returned for files that are not template definitions.
	ErrUnsupportedFormat = errors.New("unsupported template format")
)

// SourceBuiltin marks templates bundled with the binary.
const SourceBuiltin = "builtin"

// Format is the serialization of a template file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}
