package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// LoadBuiltinTemplates returns the templates bundled with swift-prompter.
func LoadBuiltinTemplates() ([]*models.Template, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin templates: %w", err)
	}

	loaded := make([]*models.Template, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := "builtin/" + entry.Name()
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read builtin template %s: %w", entry.Name(), err)
		}
		tmpl, err := ParseTemplate(data, FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("parse builtin template %s: %w", entry.Name(), err)
		}
		tmpl.Source = SourceBuiltin
		loaded = append(loaded, tmpl)
	}

	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].TemplateID < loaded[j].TemplateID
	})

	return loaded, nil
}
