package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/toolgate/internal/assist"
)

// Prompt tool names.
const (
	ToolOptimizePrompt = "optimize_prompt"
	ToolExecuteModel   = "execute_model"
	ToolSmartAsk       = "smart_ask"
)

func (s *Server) assistTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolOptimizePrompt,
				mcp.WithDescription("Refines a user prompt to be more efficient and clear for LLMs."),
				mcp.WithString("prompt", mcp.Required(), mcp.Description("The user prompt to optimize")),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: s.handleOptimizePrompt,
		},
		{
			Tool: mcp.NewTool(ToolExecuteModel,
				mcp.WithDescription(fmt.Sprintf("Executes a prompt using a specified AI model (default: %s).", assist.DefaultExecutionModel)),
				mcp.WithString("prompt", mcp.Required(), mcp.Description("The prompt to execute")),
				mcp.WithString("model", mcp.Description(fmt.Sprintf("The model to use (default: %s)", assist.DefaultExecutionModel))),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: s.handleExecuteModel,
		},
		{
			Tool: mcp.NewTool(ToolSmartAsk,
				mcp.WithDescription("Optimizes the prompt first, then executes it with a premium model."),
				mcp.WithString("prompt", mcp.Required(), mcp.Description("The user prompt")),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: s.handleSmartAsk,
		},
	}
}

func (s *Server) handleOptimizePrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("Error optimizing prompt: " + err.Error()), nil
	}
	optimized, err := s.optimize(ctx, prompt)
	if err != nil {
		return mcp.NewToolResultError("Error optimizing prompt: " + err.Error()), nil
	}
	return mcp.NewToolResultText(optimized), nil
}

func (s *Server) handleExecuteModel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("Error executing prompt: " + err.Error()), nil
	}
	result, err := s.execute(ctx, prompt, req.GetString("model", ""))
	if err != nil {
		return mcp.NewToolResultError("Error executing prompt: " + err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

// handleSmartAsk feeds the optimized prompt to the default execution model.
func (s *Server) handleSmartAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	optimized, err := s.optimize(ctx, prompt)
	if err != nil {
		return mcp.NewToolResultError("Error optimizing prompt: " + err.Error()), nil
	}
	result, err := s.execute(ctx, optimized, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Optimized Prompt: %s\n\nError executing prompt: %s", optimized, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Optimized Prompt: %s\n\nResult:\n%s", optimized, result)), nil
}

func (s *Server) optimize(ctx context.Context, prompt string) (string, error) {
	if s.optimizer == nil {
		return "", assist.ErrNotConfigured
	}
	return s.optimizer.Optimize(ctx, prompt)
}

func (s *Server) execute(ctx context.Context, prompt, model string) (string, error) {
	if s.prompts == nil {
		return "", assist.ErrNotConfigured
	}
	return s.prompts.Execute(ctx, prompt, model)
}
