package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/lumix-labs/swift-prompter/internal/config"
	"github.com/lumix-labs/swift-prompter/internal/templates"
	"github.com/lumix-labs/swift-prompter/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

// Options configure the daemon runtime. Zero values fall back to cfg.
type Options struct {
	Transport string
	HTTPAddr  string
	Version   string
	Watch     bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Daemon is the long-running MCP service.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger
	opts   Options

	catalog *templates.Catalog
	tracker *tracker.Tracker
	server  *Server
}

// NewDaemon constructs a daemon and all of its collaborators from cfg.
func NewDaemon(cfg *config.Config, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Transport == "" {
		opts.Transport = cfg.Server.Transport
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = cfg.Server.HTTPAddr
	}
	if !opts.Watch {
		opts.Watch = cfg.Templates.Watch
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	switch opts.Transport {
	case config.TransportStdio, config.TransportHTTP:
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}

	usage := NewTracker(cfg, logger.With().Str("component", "tracker").Logger())
	catalog := NewCatalog(cfg, logger.With().Str("component", "catalog").Logger())

	service := NewService(catalog, usage,
		WithOptimalRemaining(cfg.Context.OptimalRemaining),
		WithServiceLogger(logger.With().Str("component", "service").Logger()),
	)
	srv := New(service, logger.With().Str("component", "mcp").Logger(),
		WithName(cfg.Server.Name),
		WithVersion(opts.Version),
		WithRateLimiter(NewRateLimiter(WithRateLimitEnabled(cfg.Server.RateLimit))),
	)

	return &Daemon{
		cfg:     cfg,
		logger:  logger,
		opts:    opts,
		catalog: catalog,
		tracker: usage,
		server:  srv,
	}, nil
}

// NewTracker builds the usage tracker described by cfg. A configured model
// name takes precedence over the explicit capacity.
func NewTracker(cfg *config.Config, logger zerolog.Logger) *tracker.Tracker {
	capacity := cfg.Context.TotalCapacity
	if cfg.Context.Model != "" {
		capacity = tracker.CapacityForModel(cfg.Context.Model)
	}
	return tracker.New(
		tracker.WithCapacity(capacity),
		tracker.WithInitialUsage(cfg.Context.InitialUsage),
		tracker.WithLogger(logger),
	)
}

// TemplateDirs returns the directories the catalog scans, in load order.
func TemplateDirs(cfg *config.Config) []string {
	if !cfg.Templates.SearchPaths {
		return cfg.Templates.Dirs
	}
	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = ""
	}
	return append(templates.TemplateSearchPaths(projectDir), cfg.Templates.Dirs...)
}

// NewCatalog builds the template catalog described by cfg.
func NewCatalog(cfg *config.Config, logger zerolog.Logger) *templates.Catalog {
	return templates.New(
		templates.WithDirs(TemplateDirs(cfg)...),
		templates.WithBuiltin(cfg.Templates.IncludeBuiltin),
		templates.WithCacheSize(cfg.Templates.CacheSize),
		templates.WithLogger(logger),
	)
}

// Run loads the catalog and serves MCP until ctx is cancelled or the
// transport fails.
func (d *Daemon) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := d.catalog.EnsureLoaded(ctx); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	d.server.ValidateToolExposure()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if d.opts.Watch {
		go func() {
			if err := d.catalog.Watch(ctx, templates.DefaultDebounce); err != nil {
				d.logger.Error().Err(err).Msg("template watcher stopped")
			}
		}()
	}

	d.logger.Info().
		Str("transport", d.opts.Transport).
		Str("version", d.opts.Version).
		Strs("tools", d.server.Tools()).
		Strs("prompts", d.server.Prompts()).
		Int("templates", d.catalog.Stats().Templates).
		Bool("rate_limit", d.server.RateLimited()).
		Msg("swift-prompter MCP service starting")

	var err error
	switch d.opts.Transport {
	case config.TransportHTTP:
		err = d.serveHTTP(ctx)
	default:
		err = d.serveStdio(ctx)
	}

	d.logRateLimitStats()
	d.logger.Info().Msg("swift-prompter shutdown complete")
	return err
}

// logRateLimitStats reports, per tool that was called, how many calls the
// limiter saw and denied.
func (d *Daemon) logRateLimitStats() {
	for _, stats := range d.server.RateLimitStats() {
		if stats.TotalRequests == 0 {
			continue
		}
		event := d.logger.Info()
		if stats.DeniedRequests > 0 {
			event = d.logger.Warn()
		}
		event.
			Str("tool", stats.Tool).
			Int64("total_requests", stats.TotalRequests).
			Int64("denied_requests", stats.DeniedRequests).
			Float64("denied_percentage", stats.DeniedPercentage).
			Msg("tool rate limit summary")
	}
}

func (d *Daemon) serveStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(d.server.MCP())
	stdio.SetErrorLogger(log.New(d.logger, "", 0))

	err := stdio.Listen(ctx, d.opts.Stdin, d.opts.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

func (d *Daemon) serveHTTP(ctx context.Context) error {
	httpServer := mcpserver.NewStreamableHTTPServer(d.server.MCP())

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info().Str("bind", d.opts.HTTPAddr).Msg("streamable HTTP transport listening")
		if err := httpServer.Start(d.opts.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		d.logger.Info().Msg("swift-prompter shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http transport: %w", err)
		}
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http transport error: %w", err)
		}
	}
	return nil
}

// Server returns the MCP server. Useful for testing.
func (d *Daemon) Server() *Server {
	return d.server
}

// Catalog returns the template catalog.
func (d *Daemon) Catalog() *templates.Catalog {
	return d.catalog
}

// Tracker returns the usage tracker.
func (d *Daemon) Tracker() *tracker.Tracker {
	return d.tracker
}
