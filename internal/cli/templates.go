package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lumix-labs/swift-prompter/internal/config"
	"github.com/lumix-labs/swift-prompter/internal/logging"
	"github.com/lumix-labs/swift-prompter/internal/models"
	"github.com/lumix-labs/swift-prompter/internal/server"
	"github.com/lumix-labs/swift-prompter/internal/templates"
)

var (
	templateDirs   []string
	templateTag    string
	templateSearch string
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd, templatesValidateCmd, templatesSchemaCmd, templatesPathsCmd)

	templatesCmd.PersistentFlags().StringArrayVar(&templateDirs, "dir", nil, "additional template directory (repeatable, loaded last)")
	templatesListCmd.Flags().StringVar(&templateTag, "tag", "", "only templates with this tag")
	templatesListCmd.Flags().StringVar(&templateSearch, "search", "", "only templates matching this text")
}

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template", "tpl"},
	Short:   "Inspect and validate prompt templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	Example: `  swift-prompter templates list
  swift-prompter templates list --tag reasoning
  swift-prompter templates list --search code --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd.Context(), currentConfig(), templateDirs)
		if err != nil {
			return err
		}

		list := catalog.Query(cmd.Context(), models.TemplateQuery{Tag: templateTag, Search: templateSearch})
		if IsJSONOutput() {
			return WriteOutput(cmd.OutOrStdout(), list)
		}
		if IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), list.Templates)
		}

		if len(list.Templates) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates found")
			return nil
		}
		return writeTable(cmd.OutOrStdout(), []string{"ID", "NAME", "MODE", "TAGS", "REQUIRED"}, templateRows(list.Templates))
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <template_id>",
	Short: "Show a template including its pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd.Context(), currentConfig(), templateDirs)
		if err != nil {
			return err
		}

		tmpl, ok := catalog.Get(cmd.Context(), args[0])
		if !ok {
			return templateNotFound(args[0])
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tmpl)
		}
		fmt.Fprintln(cmd.OutOrStdout(), server.FormatTemplate(tmpl))
		fmt.Fprintln(cmd.OutOrStdout(), styles().Muted.Render("Source: "+tmpl.Source))
		return nil
	},
}

// validationReport is one checked template file.
type validationReport struct {
	Path       string `json:"path"`
	Valid      bool   `json:"valid"`
	TemplateID string `json:"template_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate template files",
	Long: `Parse and validate template files. Arguments may be files or directories;
directories are searched recursively. Without arguments the configured
template directories are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = append(append([]string{}, currentConfig().Templates.Dirs...), templateDirs...)
		}
		if len(paths) == 0 {
			return &PreflightError{
				Message:  "no template paths to validate",
				Hint:     "Pass files or directories, or set templates.dirs in the config",
				NextStep: "swift-prompter templates validate ./templates",
			}
		}

		progress := startProgress("Validating templates")
		reports := validatePaths(paths)
		failed := 0
		for _, report := range reports {
			if !report.Valid {
				failed++
			}
		}
		if failed > 0 {
			progress.Fail(fmt.Errorf("%d invalid", failed))
		} else {
			progress.Done(fmt.Sprintf("%d files", len(reports)))
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if err := WriteOutput(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
		} else {
			rows := make([][]string, 0, len(reports))
			for _, report := range reports {
				detail := report.TemplateID
				if !report.Valid {
					detail = report.Error
				}
				rows = append(rows, []string{report.Path, formatYesNo(report.Valid), detail})
			}
			if err := writeTable(cmd.OutOrStdout(), []string{"PATH", "VALID", "DETAIL"}, rows); err != nil {
				return err
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d template files failed validation", failed, len(reports))
		}
		return nil
	},
}

func validatePaths(paths []string) []validationReport {
	var reports []validationReport
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			reports = append(reports, validationReport{Path: path, Error: err.Error()})
			continue
		}

		if !info.IsDir() {
			tmpl, err := templates.LoadTemplate(path)
			if err != nil {
				reports = append(reports, validationReport{Path: path, Error: err.Error()})
				continue
			}
			reports = append(reports, validationReport{Path: path, Valid: true, TemplateID: tmpl.TemplateID})
			continue
		}

		loaded, failures := templates.LoadTemplatesFromDir(path)
		for _, tmpl := range loaded {
			reports = append(reports, validationReport{Path: tmpl.Source, Valid: true, TemplateID: tmpl.TemplateID})
		}
		for _, failure := range failures {
			reports = append(reports, validationReport{Path: failure.Path, Error: failure.Err.Error()})
		}
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Path < reports[j].Path
	})
	return reports
}

var templatesSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the template file format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := templates.SchemaJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

// searchPath is one directory the catalog scans.
type searchPath struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

var templatesPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List template directories in load order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs := catalogDirs(currentConfig(), templateDirs)
		paths := make([]searchPath, 0, len(dirs))
		for _, dir := range dirs {
			info, err := os.Stat(dir)
			paths = append(paths, searchPath{Path: dir, Exists: err == nil && info.IsDir()})
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), paths)
		}
		rows := make([][]string, 0, len(paths))
		for _, path := range paths {
			rows = append(rows, []string{path.Path, formatYesNo(path.Exists)})
		}
		return writeTable(cmd.OutOrStdout(), []string{"PATH", "EXISTS"}, rows)
	},
}

func catalogDirs(cfg *config.Config, extra []string) []string {
	return append(append([]string{}, server.TemplateDirs(cfg)...), extra...)
}

// loadCatalog loads the configured catalog plus any extra directories.
func loadCatalog(ctx context.Context, cfg *config.Config, extra []string) (*templates.Catalog, error) {
	progress := startProgress("Loading templates")
	catalog := templates.New(
		templates.WithDirs(catalogDirs(cfg, extra)...),
		templates.WithBuiltin(cfg.Templates.IncludeBuiltin),
		templates.WithCacheSize(cfg.Templates.CacheSize),
		templates.WithLogger(logging.Component("catalog")),
	)
	if err := catalog.EnsureLoaded(ctx); err != nil {
		progress.Fail(err)
		return nil, err
	}
	progress.Done(fmt.Sprintf("%d templates", catalog.Stats().Templates))

	if skipped := catalog.Skipped(); len(skipped) > 0 {
		appLogger.Warn().Int("files", len(skipped)).Msg("some template files were skipped; run 'swift-prompter templates validate'")
	}
	return catalog, nil
}

func templateNotFound(id string) error {
	return &PreflightError{
		Message:  fmt.Sprintf("%v: %s", templates.ErrTemplateNotFound, id),
		Hint:     "Template ids are listed by 'swift-prompter templates list'",
		NextStep: "swift-prompter templates list --search " + id,
	}
}

func isTemplateNotFound(err error) bool {
	return errors.Is(err, templates.ErrTemplateNotFound)
}
