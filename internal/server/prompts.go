package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// PromptGenerate is the template-selection workflow prompt.
const PromptGenerate = "generate-prompt"

const generatePromptDescription = "Efficient template selection and prompt engineering guidance"

const generatePromptText = "# IMPORTANT: Swift Prompt Engineering Guidelines\n" +
	"\n" +
	"## REQUIRED WORKFLOW: FOLLOW THIS SEQUENCE EXACTLY\n" +
	"BEFORE responding to ANY user query, you MUST follow this exact process:\n" +
	"1. Call `list-templates` to see available templates\n" +
	"2. Select the appropriate template based on the query type:\n" +
	"   - For reasoning or complex problems: Use `chain_of_thought_template` or `react_template`\n" +
	"   - For creative tasks: Use `role_prompt_template`\n" +
	"   - For code tasks: Use `code_generation_template` or `code_explanation_template`\n" +
	"3. Call `get-template` with the selected template_id\n" +
	"4. Call `build-prompt` with the template_id and required inputs\n" +
	"5. USE THE GENERATED PROMPT to craft your response\n" +
	"   - Use the prompt text returned by build-prompt directly\n" +
	"   - Structure your answer according to the template pattern\n" +
	"   - If the template requests step-by-step thinking, use that approach\n" +
	"\n" +
	"## Template Selection Guide\n" +
	"\n" +
	"| When The Query Involves... | Use This Template |\n" +
	"|--------------------|----------------------|\n" +
	"| Reasoning, \"why\", analysis, impacts, or effects | `chain_of_thought_template` |\n" +
	"| Multi-step problem solving or complex research | `react_template` |\n" +
	"| Summarization or explanation of content | `summarization_template` |\n" +
	"| \"What if\" scenarios or alternative approaches | `step_back_template` |\n" +
	"| Code writing or function creation | `code_generation_template` |\n" +
	"| Code explanation or debugging | `code_explanation_template` |\n" +
	"| Structured data or extraction | `json_output_template` |\n" +
	"| Creative content or storytelling | `creative_writing_template` |\n" +
	"| Simple factual answers | `zero_shot_template` |\n" +
	"| Tasks requiring multiple examples | `few_shot_template` |\n" +
	"\n" +
	"## Example\n" +
	"- Query: \"Explain the impact of inflation on housing markets\"\n" +
	"  1. Call `list-templates` to see options\n" +
	"  2. Choose `chain_of_thought_template` for reasoning analysis\n" +
	"  3. Call `get-template` with \"chain_of_thought_template\"\n" +
	"  4. Call `build-prompt` with appropriate inputs\n" +
	"  5. Use the returned prompt to craft your response\n" +
	"\n" +
	"## Notes\n" +
	"- Always check the template list before responding to a query\n" +
	"- If a query fits no template, use `zero_shot_template` or `few_shot_template`\n" +
	"- Tool responses are not shown to the user. Print the generated prompt explicitly and wait for the user to confirm it before using it.\n" +
	"- Suggest that the user paste the prompt into a new chat for the best experience.\n" +
	"- Call `context-status` when a conversation grows long; start a new chat when it recommends one.\n"

func generatePrompt() mcp.Prompt {
	return mcp.NewPrompt(PromptGenerate, mcp.WithPromptDescription(generatePromptDescription))
}

func (s *Server) handleGeneratePrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult(generatePromptDescription, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(generatePromptText)),
	}), nil
}

func serverInstructions() string {
	return "Swift Prompter stores prompt templates and tracks context usage. " +
		"Use list-templates to find a template, get-template to inspect its inputs, " +
		"and build-prompt to fill it. Check context-status to see whether to start a new chat. " +
		"The generate-prompt prompt describes the full workflow."
}
