package cli

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumix-labs/swift-prompter/internal/logging"
	"github.com/lumix-labs/swift-prompter/internal/models"
	"github.com/lumix-labs/swift-prompter/internal/prompt"
	"github.com/lumix-labs/swift-prompter/internal/server"
)

var (
	buildVars  []string
	buildBools []string
	buildUsed  int64
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringArrayVar(&buildVars, "var", nil, "text or select input as name=value (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildBools, "bool", nil, "boolean input as name=true|false (repeatable)")
	buildCmd.Flags().Int64Var(&buildUsed, "used", 0, "tokens already used in the conversation")
	buildCmd.Flags().StringArrayVar(&templateDirs, "dir", nil, "additional template directory (repeatable, loaded last)")
}

// buildOutput is the JSON form of a build.
type buildOutput struct {
	Result *models.BuildResult  `json:"result"`
	Status models.ContextStatus `json:"status"`
}

var buildCmd = &cobra.Command{
	Use:   "build <template_id>",
	Short: "Fill a template and print the prompt",
	Long: `Fill a template with inputs and print the resulting prompt on stdout.
The estimated token cost and the context recommendation go to stderr.
Missing required inputs are asked for on a terminal; otherwise the command
fails and lists them.`,
	Example: `  swift-prompter build zero_shot_template --var instruction="Summarize the release notes"
  swift-prompter build code_generation_template --var language=go --var requirement="parse a CSV" --bool include_tests=true`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args[0])
	},
}

func runBuild(cmd *cobra.Command, templateID string) error {
	ctx := cmd.Context()
	inputs, err := parseInputFlags(buildVars, buildBools)
	if err != nil {
		return err
	}

	cfg := *currentConfig()
	if cmd.Flags().Changed("used") {
		cfg.Context.InitialUsage = buildUsed
	}

	catalog, err := loadCatalog(ctx, &cfg, templateDirs)
	if err != nil {
		return err
	}
	usage := server.NewTracker(&cfg, logging.Component("tracker"))
	service := server.NewService(catalog, usage,
		server.WithOptimalRemaining(cfg.Context.OptimalRemaining),
		server.WithServiceLogger(logging.Component("service")),
	)

	tmpl, err := service.GetTemplate(ctx, templateID)
	if err != nil {
		if isTemplateNotFound(err) {
			return templateNotFound(templateID)
		}
		return err
	}

	if missing := prompt.MissingInputs(tmpl, inputs); len(missing) > 0 && IsInteractive() && !IsJSONOutput() && !IsJSONLOutput() {
		if err := askInputs(cmd.InOrStdin(), cmd.ErrOrStderr(), tmpl, missing, inputs); err != nil {
			return err
		}
	}

	result, err := service.BuildPrompt(ctx, models.BuildRequest{TemplateID: tmpl.TemplateID, Inputs: inputs})
	if err != nil {
		return err
	}
	status := service.ContextStatus()

	if IsJSONOutput() || IsJSONLOutput() {
		if err := WriteOutput(cmd.OutOrStdout(), buildOutput{Result: result, Status: status}); err != nil {
			return err
		}
		if result.Rejected() {
			return fmt.Errorf("missing required inputs: %s", strings.Join(result.MissingInputs, ", "))
		}
		return nil
	}

	if result.Rejected() {
		return &PreflightError{
			Message:  server.FormatBuildResult(result),
			Hint:     "Pass text inputs with --var name=value and booleans with --bool name=true",
			NextStep: "swift-prompter templates show " + tmpl.TemplateID,
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Prompt)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %d tokens\n", styles().Muted.Render("Prompt cost:"), result.ContextUsage)
	fmt.Fprintln(cmd.ErrOrStderr(), formatContextLine(status))
	if status.RecommendedAction == models.ActionNewChat {
		fmt.Fprintln(cmd.ErrOrStderr(), styles().Warn.Render(server.Recommendation(status)))
	}
	return nil
}

// parseInputFlags turns --var and --bool values into build inputs. A later
// flag for the same name wins.
func parseInputFlags(vars, bools []string) (map[string]models.InputValue, error) {
	inputs := make(map[string]models.InputValue, len(vars)+len(bools))
	for _, raw := range vars {
		name, value, err := splitAssignment("--var", raw)
		if err != nil {
			return nil, err
		}
		inputs[name] = models.StringValue(value)
	}
	for _, raw := range bools {
		name, value, err := splitAssignment("--bool", raw)
		if err != nil {
			return nil, err
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("--bool %s: %q is not a boolean", name, value)
		}
		inputs[name] = models.BoolValue(parsed)
	}
	return inputs, nil
}

func splitAssignment(flag, raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("%s %q: expected name=value", flag, raw)
	}
	return name, value, nil
}

// askInputs reads values for the missing inputs from in. An empty answer
// leaves the input missing.
func askInputs(in io.Reader, out io.Writer, tmpl *models.Template, missing []string, inputs map[string]models.InputValue) error {
	reader := bufio.NewReader(in)
	for _, name := range missing {
		input, _ := tmpl.Input(name)
		label := name
		switch {
		case input.Type == models.InputTypeBoolean:
			label += " (true/false)"
		case len(input.Options) > 0:
			label += " [" + strings.Join(input.Options, "|") + "]"
		}
		fmt.Fprintf(out, "%s: ", styles().Title.Render(label))

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read input %s: %w", name, err)
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			if err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}

		switch {
		case input.Type == models.InputTypeBoolean:
			parsed, perr := strconv.ParseBool(answer)
			if perr != nil {
				return fmt.Errorf("input %s: %q is not a boolean", name, answer)
			}
			inputs[name] = models.BoolValue(parsed)
		case input.Type == models.InputTypeSelect && len(input.Options) > 0 && !slices.Contains(input.Options, answer):
			return fmt.Errorf("input %s: %q is not one of %s", name, answer, strings.Join(input.Options, ", "))
		default:
			inputs[name] = models.StringValue(answer)
		}
		if err == io.EOF {
			return nil
		}
	}
	return nil
}
