package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Approval workflow tool names.
const (
	ToolProposeWriteFile    = "propose_write_file"
	ToolProposeShellCommand = "propose_shell_command"
	ToolApproveAction       = "approve_action"
	ToolRejectAction        = "reject_action"
	ToolListPendingActions  = "list_pending_actions"
)

func (s *Server) actionTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolProposeWriteFile,
				mcp.WithDescription("Proposes a file write. Returns an ID. You must then ask the user to confirm/approve this action."),
				mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the file")),
				mcp.WithString("content", mcp.Required(), mcp.Description("The content to write")),
				mcp.WithDestructiveHintAnnotation(false),
			),
			Handler: s.handleProposeWriteFile,
		},
		{
			Tool: mcp.NewTool(ToolProposeShellCommand,
				mcp.WithDescription("Proposes a shell command. Returns an ID. You must then ask the user to confirm/approve this action."),
				mcp.WithString("command", mcp.Required(), mcp.Description("The shell command to execute")),
				mcp.WithDestructiveHintAnnotation(false),
			),
			Handler: s.handleProposeShellCommand,
		},
		{
			Tool: mcp.NewTool(ToolApproveAction,
				mcp.WithDescription("Approves and executes a pending action by ID."),
				mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the action to approve")),
				mcp.WithDestructiveHintAnnotation(true),
			),
			Handler: s.handleApproveAction,
		},
		{
			Tool: mcp.NewTool(ToolRejectAction,
				mcp.WithDescription("Rejects and discards a pending action by ID."),
				mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the action to reject")),
			),
			Handler: s.handleRejectAction,
		},
		{
			Tool: mcp.NewTool(ToolListPendingActions,
				mcp.WithDescription("Lists all actions waiting for approval."),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleListPendingActions,
		},
	}
}

func (s *Server) handleProposeWriteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}

	id, err := s.registry.ProposeFileWrite(ctx, path, content)
	if err != nil {
		return mcp.NewToolResultError("Error proposing file write: " + err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Action Proposed: Write to %s.\nID: %s\n\nPlease ask the user to approve this with 'approve_action(\"%s\")'.",
		path, id, id)), nil
}

func (s *Server) handleProposeShellCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}

	id, err := s.registry.ProposeShellCommand(ctx, command)
	if err != nil {
		return mcp.NewToolResultError("Error proposing shell command: " + err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Action Proposed: Run command '%s'.\nID: %s\n\nPlease ask the user to approve this with 'approve_action(\"%s\")'.",
		command, id, id)), nil
}

func (s *Server) handleApproveAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}

	out := s.executor.Approve(ctx, id)
	if !out.OK() {
		return mcp.NewToolResultError(out.Text), nil
	}
	return mcp.NewToolResultText(out.Text), nil
}

func (s *Server) handleRejectAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}

	out := s.executor.Reject(ctx, id)
	if !out.OK() {
		return mcp.NewToolResultError(out.Text), nil
	}
	return mcp.NewToolResultText(out.Text), nil
}

func (s *Server) handleListPendingActions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.registry.ListText(ctx)), nil
}
