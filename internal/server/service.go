// Package server exposes the template catalog, prompt builder and usage
// tracker over the Model Context Protocol.
package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lumix-labs/swift-prompter/internal/models"
	"github.com/lumix-labs/swift-prompter/internal/prompt"
	"github.com/lumix-labs/swift-prompter/internal/templates"
	"github.com/lumix-labs/swift-prompter/internal/tracker"
)

// TemplateSource looks up and lists templates.
type TemplateSource interface {
	Get(ctx context.Context, id string) (*models.Template, bool)
	Query(ctx context.Context, q models.TemplateQuery) models.TemplateList
}

// UsageTracker reports and resets context usage.
type UsageTracker interface {
	prompt.UsageRecorder
	Status(optimalRemaining float64) models.ContextStatus
	Reset()
}

// Service is the transport-independent facade behind every MCP tool.
type Service struct {
	templates        TemplateSource
	usage            UsageTracker
	builder          *prompt.Builder
	optimalRemaining float64
	logger           zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithOptimalRemaining sets the remaining-capacity threshold below which a
// new chat is recommended.
func WithOptimalRemaining(fraction float64) ServiceOption {
	return func(s *Service) {
		s.optimalRemaining = fraction
	}
}

// WithServiceLogger sets the logger used when a request carries none.
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService wires a facade over source and usage.
func NewService(source TemplateSource, usage UsageTracker, opts ...ServiceOption) *Service {
	s := &Service{
		templates:        source,
		usage:            usage,
		optimalRemaining: tracker.DefaultOptimalRemaining,
		logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = prompt.NewBuilder(usage, s.logger.With().Str("component", "prompt").Logger())
	return s
}

// ListTemplates returns the templates matching q.
func (s *Service) ListTemplates(ctx context.Context, q models.TemplateQuery) models.TemplateList {
	s.loggerFor(ctx).Debug().Str("tag", q.Tag).Str("search", q.Search).Msg("listing templates")
	return s.templates.Query(ctx, q)
}

// GetTemplate returns the template with id or ErrTemplateNotFound.
func (s *Service) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	if id == "" {
		return nil, fmt.Errorf("template_id is required")
	}
	tmpl, ok := s.templates.Get(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", templates.ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

// BuildPrompt fills the requested template. A rejection for missing inputs
// is a successful call whose result lists them.
func (s *Service) BuildPrompt(ctx context.Context, req models.BuildRequest) (*models.BuildResult, error) {
	tmpl, err := s.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	s.loggerFor(ctx).Info().
		Str("template_id", tmpl.TemplateID).
		Str("template_name", tmpl.Name).
		Msg("building prompt from template")

	result, err := s.builder.Build(ctx, tmpl, req.Inputs)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}
	return result, nil
}

// ContextStatus reports the current usage against the configured threshold.
func (s *Service) ContextStatus() models.ContextStatus {
	return s.usage.Status(s.optimalRemaining)
}

// ResetContext zeroes the usage counter and returns the new status.
func (s *Service) ResetContext(ctx context.Context) models.ContextStatus {
	s.usage.Reset()
	s.loggerFor(ctx).Info().Msg("context usage reset")
	return s.ContextStatus()
}

func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return &s.logger
}
