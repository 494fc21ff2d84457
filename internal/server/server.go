package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// DefaultName is the MCP server name announced to clients.
const DefaultName = "swift-prompter-mcp-service"

// Server registers the swift-prompter tools and prompts on an MCP server.
type Server struct {
	service *Service
	logger  zerolog.Logger
	name    string
	version string
	limiter *RateLimiter

	mcp     *mcpserver.MCPServer
	tools   []string
	prompts []string
}

// Option configures the Server.
type Option func(*Server)

// WithName sets the announced server name.
func WithName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
	}
}

// WithVersion sets the announced server version.
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// WithRateLimiter throttles tool calls. A nil limiter disables throttling.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// New builds an MCP server exposing service.
func New(service *Service, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  logger,
		name:    DefaultName,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	serverOpts := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(serverInstructions()),
		mcpserver.WithToolHandlerMiddleware(s.logToolCall),
	}
	if s.limiter != nil {
		serverOpts = append(serverOpts, mcpserver.WithToolHandlerMiddleware(s.limiter.Middleware()))
	}
	s.mcp = mcpserver.NewMCPServer(s.name, s.version, serverOpts...)

	s.addTool(listTemplatesTool(), s.handleListTemplates)
	s.addTool(getTemplateTool(), s.handleGetTemplate)
	s.addTool(buildPromptTool(), s.handleBuildPrompt)
	s.addTool(contextStatusTool(), s.handleContextStatus)
	s.addTool(resetContextTool(), s.handleResetContext)

	s.addPrompt(generatePrompt(), s.handleGeneratePrompt)

	return s
}

func (s *Server) addTool(tool mcp.Tool, handler mcpserver.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) addPrompt(p mcp.Prompt, handler mcpserver.PromptHandlerFunc) {
	s.mcp.AddPrompt(p, handler)
	s.prompts = append(s.prompts, p.Name)
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Name returns the announced server name.
func (s *Server) Name() string {
	return s.name
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Prompts returns the registered prompt names.
func (s *Server) Prompts() []string {
	return append([]string(nil), s.prompts...)
}

// RateLimited reports whether tool calls pass through an active limiter.
func (s *Server) RateLimited() bool {
	return s.limiter != nil && s.limiter.IsEnabled()
}

// RateLimitStats returns per-tool limiter counters, or nil without a limiter.
func (s *Server) RateLimitStats() []ToolStats {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Stats()
}

// MissingTools returns the required tools that are not registered.
func (s *Server) MissingTools() []string {
	var missing []string
	for _, name := range RequiredTools {
		if s.mcp.GetTool(name) == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// ValidateToolExposure logs whether every required tool is registered.
// Startup continues either way.
func (s *Server) ValidateToolExposure() bool {
	missing := s.MissingTools()
	if len(missing) > 0 {
		s.logger.Warn().
			Strs("missing_tools", missing).
			Strs("required_tools", RequiredTools).
			Msg("some required tools are missing for client exposure")
		return false
	}
	s.logger.Info().
		Strs("required_tools", RequiredTools).
		Msg("all required tools are registered for client exposure")
	return true
}

// logToolCall tags each call with a request id and logs its outcome.
func (s *Server) logToolCall(next mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := s.logger.With().
			Str("request_id", uuid.NewString()).
			Str("tool", request.Params.Name).
			Logger()
		ctx = logger.WithContext(ctx)

		started := time.Now()
		result, err := next(ctx, request)

		event := logger.Debug()
		switch {
		case err != nil:
			event = logger.Error().Err(err)
		case result != nil && result.IsError:
			event = logger.Warn()
		}
		event.Dur("duration", time.Since(started)).Msg("tool call")
		return result, err
	}
}
