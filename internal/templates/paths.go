package templates

import (
	"os"
	"path/filepath"
)

// TemplateSearchPaths returns the default template directories in load order.
// Later directories override earlier ones, so the project directory comes last.
func TemplateSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "swift-prompter", "templates"))

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "swift-prompter", "templates"))
	}

	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".swift-prompter", "templates"))
	}
	return paths
}
