package mcpserver

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/action/actiontest"
	"github.com/flemzord/toolgate/internal/assist/assisttest"
	"github.com/flemzord/toolgate/internal/files"
)

// harness is a Server wired to mocks.
type harness struct {
	srv       *Server
	registry  *action.Registry
	files     *actiontest.MockFileWriter
	shell     *actiontest.MockShellRunner
	prompts   *assisttest.MockExecutor
	optimizer *assisttest.MockOptimizer
	vision    *assisttest.MockVision
	figma     *assisttest.MockFigma
	browser   *assisttest.MockBrowser
}

// newHarness builds a Server with every collaborator mocked. mutate, if
// non-nil, adjusts the config before New.
func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	logger := discardLogger()
	h := &harness{
		files:     &actiontest.MockFileWriter{},
		shell:     &actiontest.MockShellRunner{},
		prompts:   &assisttest.MockExecutor{},
		optimizer: &assisttest.MockOptimizer{},
		vision:    &assisttest.MockVision{},
		figma:     &assisttest.MockFigma{},
		browser:   &assisttest.MockBrowser{},
	}
	h.registry = action.NewRegistry(action.RegistryConfig{Logger: logger})
	exec := action.NewExecutor(action.ExecutorConfig{
		Registry: h.registry,
		Files:    h.files,
		Shell:    h.shell,
		Logger:   logger,
	})

	cfg := Config{
		Registry:  h.registry,
		Executor:  exec,
		Files:     files.NewReader(0),
		Prompts:   h.prompts,
		Optimizer: h.optimizer,
		Vision:    h.vision,
		Models:    h.vision,
		Figma:     h.figma,
		Browser:   h.browser,
		Logger:    logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.srv = srv
	return h
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultText returns the text of the single content block of res.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil {
		t.Fatal("nil result")
	}
	if len(res.Content) != 1 {
		t.Fatalf("got %d content blocks, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

// proposedID extracts the id from a propose_* reply.
func proposedID(t *testing.T, text string) string {
	t.Helper()
	_, rest, ok := strings.Cut(text, "ID: ")
	if !ok {
		t.Fatalf("no id in %q", text)
	}
	id, _, _ := strings.Cut(rest, "\n")
	return id
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}
