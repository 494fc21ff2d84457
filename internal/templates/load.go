package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lumix-labs/swift-prompter/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadError records a template file that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load template %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadTemplate reads, parses and validates a single template file.
func LoadTemplate(path string) (*models.Template, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("template path is required")
	}

	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	tmpl, err := ParseTemplate(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	tmpl.Source = path
	return tmpl, nil
}

// LoadTemplatesFromDir walks dir recursively and loads every template file.
// Files that fail to load are returned as LoadErrors and do not stop the
// walk. A missing directory yields no templates and no errors.
func LoadTemplatesFromDir(dir string) ([]*models.Template, []*LoadError) {
	if strings.TrimSpace(dir) == "" {
		return []*models.Template{}, nil
	}

	paths, err := templateFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Template{}, nil
		}
		return []*models.Template{}, []*LoadError{{Path: dir, Err: err}}
	}

	loaded := make([]*models.Template, 0, len(paths))
	var failures []*LoadError
	for _, path := range paths {
		tmpl, err := LoadTemplate(path)
		if err != nil {
			failures = append(failures, &LoadError{Path: path, Err: err})
			continue
		}
		loaded = append(loaded, tmpl)
	}

	return loaded, failures
}

// templateFiles lists template files under dir in lexical path order.
func templateFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := FormatFromPath(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates dir %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ParseTemplate decodes and validates a template in the given format.
// Decoded values are stored as written; nothing is trimmed or case-folded.
func ParseTemplate(data []byte, format Format) (*models.Template, error) {
	var tmpl models.Template
	raw := map[string]any{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(&tmpl); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &tmpl); err != nil {
			return nil, err
		}
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	validation := &models.ValidationErrors{}
	checkRequiredFields(validation, raw)
	validateTemplate(validation, &tmpl)
	if err := validation.Err(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
