// Package mcpserver exposes the approval workflow and the assist helpers
// as MCP tools. Every tool takes and returns text; domain failures come back
// as error results, never as protocol errors.
package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/assist"
	"github.com/flemzord/toolgate/internal/security"
	"github.com/flemzord/toolgate/internal/telemetry"
)

// Defaults advertised in the MCP initialize handshake.
const (
	DefaultName    = "toolgate"
	DefaultVersion = "dev"
)

// ErrMissingWorkflow is returned by New when the registry or executor is nil.
var ErrMissingWorkflow = errors.New("mcpserver: registry and executor are required")

// FileReader serves the read-only filesystem tools.
type FileReader interface {
	Read(path string) (string, error)
	ListDirectory(path string) (string, error)
}

// Config configures a Server. Registry and Executor are required; every
// other collaborator is optional and its tools answer with a "not
// configured" error when absent.
type Config struct {
	Name    string
	Version string

	Registry *action.Registry
	Executor *action.Executor
	Files    FileReader

	Prompts   assist.PromptExecutor
	Optimizer assist.Optimizer
	Vision    assist.VisionGenerator
	Models    assist.ModelLister
	Figma     assist.FigmaRenderer
	Browser   assist.ScreenshotCapturer

	// VisionState holds the selected vision model. Defaults to an unset state.
	VisionState *assist.VisionState

	// Framework is the target of the *_to_code tools.
	// Defaults to assist.DefaultFramework.
	Framework string

	RateLimiter *security.RateLimiter
	Metrics     *telemetry.Metrics
	Audit       *security.AuditLogger

	// Redactor masks tool arguments before they are audited. The zero
	// Redactor only hides secret-named arguments.
	Redactor *security.Redactor
	Logger   *slog.Logger
}

// Server is the MCP tool server.
type Server struct {
	registry  *action.Registry
	executor  *action.Executor
	files     FileReader
	prompts   assist.PromptExecutor
	optimizer assist.Optimizer
	vision    assist.VisionGenerator
	models    assist.ModelLister
	figma     assist.FigmaRenderer
	browser   assist.ScreenshotCapturer
	state     *assist.VisionState
	framework string

	limiter  *security.RateLimiter
	metrics  *telemetry.Metrics
	audit    *security.AuditLogger
	redactor *security.Redactor
	logger   *slog.Logger

	mcp   *server.MCPServer
	tools []server.ServerTool
}

// New builds a Server and registers every tool.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil || cfg.Executor == nil {
		return nil, ErrMissingWorkflow
	}
	s := &Server{
		registry:  cfg.Registry,
		executor:  cfg.Executor,
		files:     cfg.Files,
		prompts:   cfg.Prompts,
		optimizer: cfg.Optimizer,
		vision:    cfg.Vision,
		models:    cfg.Models,
		figma:     cfg.Figma,
		browser:   cfg.Browser,
		state:     cfg.VisionState,
		framework: cfg.Framework,
		limiter:   cfg.RateLimiter,
		metrics:   cfg.Metrics,
		audit:     cfg.Audit,
		redactor:  cfg.Redactor,
		logger:    cfg.Logger,
	}
	if s.state == nil {
		s.state = assist.NewVisionState("")
	}
	if s.redactor == nil {
		s.redactor = &security.Redactor{}
	}
	if s.framework == "" {
		s.framework = assist.DefaultFramework
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "mcpserver")

	name, version := cfg.Name, cfg.Version
	if name == "" {
		name = DefaultName
	}
	if version == "" {
		version = DefaultVersion
	}

	s.tools = slices.Concat(s.actionTools(), s.fileTools(), s.assistTools(), s.visionTools())
	s.mcp = server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.middleware),
	)
	s.mcp.AddTools(s.tools...)
	return s, nil
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for _, t := range s.tools {
		names = append(names, t.Tool.Name)
	}
	return names
}

// ServeStdio speaks MCP over in and out until ctx is cancelled or in is
// closed. Nothing else may write to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("serving MCP over stdio", "tools", len(s.tools))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
