package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/toolgate/internal/security"
)

// Tool call results recorded in metrics.
const (
	resultOK          = "ok"
	resultError       = "error"
	resultRateLimited = "rate_limited"
)

// bucketsFor returns the rate limit buckets a call to tool draws from,
// in the order they are checked.
func bucketsFor(tool string) []string {
	switch tool {
	case ToolProposeWriteFile, ToolProposeShellCommand:
		return []string{security.KindToolCall, security.KindProposal}
	case ToolOptimizePrompt, ToolExecuteModel, ToolSmartAsk,
		ToolListVisionModels, ToolImageToCode, ToolFigmaToCode, ToolScreenshotToCode:
		return []string{security.KindToolCall, security.KindModel}
	default:
		return []string{security.KindToolCall}
	}
}

// middleware wraps every tool handler with rate limiting, auditing,
// metrics and a debug log line.
func (s *Server) middleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tool := req.Params.Name

		if s.limiter != nil {
			for _, kind := range bucketsFor(tool) {
				if err := s.limiter.Allow(kind); err != nil {
					s.logger.Warn("tool call rate limited", "tool", tool, "bucket", kind)
					s.logAudit(security.EventRateLimit, tool, req, kind)
					s.metrics.ToolCalled(tool, resultRateLimited)
					return mcp.NewToolResultError(fmt.Sprintf("Error: %s (%s)", err, kind)), nil
				}
			}
		}

		s.logAudit(security.EventToolCall, tool, req, "")
		start := time.Now()
		res, err := next(ctx, req)

		result := resultOK
		if err != nil || (res != nil && res.IsError) {
			result = resultError
		}
		s.metrics.ToolCalled(tool, result)
		s.logger.Debug("tool call", "tool", tool, "result", result, "duration", time.Since(start))
		return res, err
	}
}

func (s *Server) logAudit(t security.EventType, tool string, req mcp.CallToolRequest, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(security.AuditEvent{
		Type:     t,
		Tool:     tool,
		Detail:   detail,
		Metadata: s.redactor.RedactArgs(req.GetArguments()),
	})
}
