package server

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lumix-labs/swift-prompter/internal/models"
	"github.com/lumix-labs/swift-prompter/internal/templates"
)

// Tool names exposed to MCP clients.
const (
	ToolListTemplates = "list-templates"
	ToolGetTemplate   = "get-template"
	ToolBuildPrompt   = "build-prompt"
	ToolContextStatus = "context-status"
	ToolResetContext  = "reset-context"
)

// RequiredTools must be registered for clients to follow the
// generate-prompt workflow.
var RequiredTools = []string{
	ToolListTemplates,
	ToolGetTemplate,
	ToolBuildPrompt,
	ToolContextStatus,
}

func listTemplatesTool() mcp.Tool {
	return mcp.NewTool(ToolListTemplates,
		mcp.WithDescription("Lists available prompt templates with optional filtering"),
		mcp.WithString("tag", mcp.Description("Filter templates by tag")),
		mcp.WithString("search", mcp.Description("Search in template names and descriptions")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func getTemplateTool() mcp.Tool {
	return mcp.NewTool(ToolGetTemplate,
		mcp.WithDescription("Gets a specific prompt template by ID"),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("ID of the template to retrieve")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func buildPromptTool() mcp.Tool {
	return mcp.NewTool(ToolBuildPrompt,
		mcp.WithDescription("Builds optimized prompts from templates and input values"),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("ID of the template to use")),
		mcp.WithObject("inputs",
			mcp.Description("Input values for template variables"),
			mcp.AdditionalProperties(map[string]any{"type": []string{"string", "boolean"}}),
		),
	)
}

func contextStatusTool() mcp.Tool {
	return mcp.NewTool(ToolContextStatus,
		mcp.WithDescription("Checks current context utilization and provides recommendations"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func resetContextTool() mcp.Tool {
	return mcp.NewTool(ToolResetContext,
		mcp.WithDescription("Resets tracked context usage, for example after starting a new chat"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := models.TemplateQuery{
		Tag:    request.GetString("tag", ""),
		Search: request.GetString("search", ""),
	}
	list := s.service.ListTemplates(ctx, query)
	return mcp.NewToolResultStructured(list, FormatTemplateList(list)), nil
}

func (s *Server) handleGetTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tmpl, err := s.service.GetTemplate(ctx, id)
	if err != nil {
		return errorResult(id, err), nil
	}
	return mcp.NewToolResultStructured(tmpl, FormatTemplate(tmpl)), nil
}

func (s *Server) handleBuildPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	inputs, err := decodeInputs(request.GetArguments()["inputs"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.BuildPrompt(ctx, models.BuildRequest{TemplateID: id, Inputs: inputs})
	if err != nil {
		return errorResult(id, err), nil
	}
	return mcp.NewToolResultStructured(result, FormatBuildResult(result)), nil
}

func (s *Server) handleContextStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.service.ContextStatus()
	return mcp.NewToolResultStructured(status, FormatContextStatus(status)), nil
}

func (s *Server) handleResetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.service.ResetContext(ctx)
	return mcp.NewToolResultStructured(status, "Context usage reset.\n\n"+FormatContextStatus(status)), nil
}

func errorResult(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, templates.ErrTemplateNotFound) {
		return mcp.NewToolResultError("Template not found: " + id)
	}
	return mcp.NewToolResultError(err.Error())
}

// decodeInputs converts the raw inputs argument into typed values. Absent
// inputs decode to an empty map.
func decodeInputs(raw any) (map[string]models.InputValue, error) {
	inputs := make(map[string]models.InputValue)
	if raw == nil {
		return inputs, nil
	}

	values, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("inputs must be an object, got %T", raw)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := models.InputValueFrom(values[name])
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		inputs[name] = value
	}
	return inputs, nil
}
