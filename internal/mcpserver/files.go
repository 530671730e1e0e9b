package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/toolgate/internal/assist"
)

// Read-only filesystem tool names.
const (
	ToolReadFile      = "read_file"
	ToolListDirectory = "list_directory"
)

func (s *Server) fileTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolReadFile,
				mcp.WithDescription("Reads the content of a file from the local filesystem."),
				mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the file")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleReadFile,
		},
		{
			Tool: mcp.NewTool(ToolListDirectory,
				mcp.WithDescription("Lists files and directories in a given path."),
				mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the directory")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleListDirectory,
		},
	}
}

func (s *Server) handleReadFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("Error reading file: " + err.Error()), nil
	}
	if s.files == nil {
		return mcp.NewToolResultError("Error reading file: " + assist.ErrNotConfigured.Error()), nil
	}
	content, err := s.files.Read(path)
	if err != nil {
		return mcp.NewToolResultError("Error reading file: " + err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) handleListDirectory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("Error listing directory: " + err.Error()), nil
	}
	if s.files == nil {
		return mcp.NewToolResultError("Error listing directory: " + assist.ErrNotConfigured.Error()), nil
	}
	listing, err := s.files.ListDirectory(path)
	if err != nil {
		return mcp.NewToolResultError("Error listing directory: " + err.Error()), nil
	}
	return mcp.NewToolResultText(listing), nil
}
