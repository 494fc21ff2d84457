// Package cli implements the swift-prompter command line.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lumix-labs/swift-prompter/internal/config"
	"github.com/lumix-labs/swift-prompter/internal/logging"
)

var (
	configFile     string
	logLevel       string
	logFormat      string
	jsonOutput     bool
	jsonlOutput    bool
	noColor        bool
	noProgress     bool
	nonInteractive bool

	appVersion = "dev"
	appConfig  *config.Config
	appLogger  = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "swift-prompter",
	Short: "Prompt template server for MCP clients",
	Long: `swift-prompter stores prompt templates, fills them with caller inputs and
tracks approximate context usage. Run "swift-prompter serve" to expose it to an
MCP client, or use the templates and build commands directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput && jsonlOutput {
			return fmt.Errorf("--json and --jsonl are mutually exclusive")
		}
		return initApp(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/swift-prompter/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: json or console")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt for input")
}

func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(logLevel))
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = strings.ToLower(strings.TrimSpace(logFormat))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appConfig = cfg
	appLogger = logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Version: appVersion,
		NoColor: !colorEnabled(),
	})
	return nil
}

// Execute runs the root command.
func Execute(version string) error {
	if version != "" {
		appVersion = version
	}
	rootCmd.Version = appVersion
	return rootCmd.Execute()
}

// Main runs the CLI and exits non-zero on failure.
func Main(version string) {
	if err := Execute(version); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded configuration, or nil before initialization.
func GetConfig() *config.Config {
	return appConfig
}

func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return config.DefaultConfig()
}
