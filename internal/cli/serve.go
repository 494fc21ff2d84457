package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumix-labs/swift-prompter/internal/config"
	"github.com/lumix-labs/swift-prompter/internal/server"
)

var (
	serveTransport string
	serveAddr      string
	serveWatch     bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio or http (default from config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address for the http transport")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload templates when files change")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve templates to MCP clients",
	Long: `Start the MCP service. The stdio transport speaks JSON-RPC on stdin and
stdout; logs always go to stderr. The http transport serves the streamable
HTTP endpoint on --addr.`,
	Example: `  swift-prompter serve
  swift-prompter serve --transport http --addr 127.0.0.1:8931 --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cmd)
	},
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg := currentConfig()
	opts := server.Options{
		Transport: serveTransport,
		HTTPAddr:  serveAddr,
		Version:   appVersion,
		Watch:     serveWatch,
		Stdin:     cmd.InOrStdin(),
		Stdout:    cmd.OutOrStdout(),
	}
	if opts.Transport != "" && opts.Transport != config.TransportStdio && opts.Transport != config.TransportHTTP {
		return &PreflightError{
			Message:  "unknown transport " + opts.Transport,
			Hint:     "Supported transports are stdio and http",
			NextStep: "swift-prompter serve --transport stdio",
		}
	}

	daemon, err := server.NewDaemon(cfg, appLogger, opts)
	if err != nil {
		return err
	}
	return daemon.Run(ctx)
}
