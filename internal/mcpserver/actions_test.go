package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/flemzord/toolgate/internal/action"
)

func TestProposeWriteFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()

	res, err := h.srv.handleProposeWriteFile(ctx, callRequest(ToolProposeWriteFile, map[string]any{
		"path":    "/tmp/out.txt",
		"content": "hello",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	text := resultText(t, res)
	id := proposedID(t, text)
	want := fmt.Sprintf("Action Proposed: Write to /tmp/out.txt.\nID: %s\n\nPlease ask the user to approve this with 'approve_action(\"%s\")'.", id, id)
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if h.files.CallCount() != 0 {
		t.Error("proposal must not write the file")
	}
	if _, err := h.registry.Peek(ctx, id); err != nil {
		t.Errorf("Peek(%s): %v", id, err)
	}
}

func TestProposeShellCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	res, _ := h.srv.handleProposeShellCommand(context.Background(), callRequest(ToolProposeShellCommand, map[string]any{
		"command": "ls -la",
	}))

	text := resultText(t, res)
	id := proposedID(t, text)
	if !strings.HasPrefix(text, "Action Proposed: Run command 'ls -la'.\nID: "+id) {
		t.Errorf("unexpected reply %q", text)
	}
	if h.shell.CallCount() != 0 {
		t.Error("proposal must not run the command")
	}
}

func TestPropose_InvalidArguments(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() string
	}{
		{"missing path", func() string {
			res, _ := h.srv.handleProposeWriteFile(ctx, callRequest(ToolProposeWriteFile, map[string]any{"content": "x"}))
			return resultText(t, res)
		}},
		{"empty path", func() string {
			res, _ := h.srv.handleProposeWriteFile(ctx, callRequest(ToolProposeWriteFile, map[string]any{"path": " ", "content": "x"}))
			return resultText(t, res)
		}},
		{"empty command", func() string {
			res, _ := h.srv.handleProposeShellCommand(ctx, callRequest(ToolProposeShellCommand, map[string]any{"command": ""}))
			return resultText(t, res)
		}},
	}
	for _, tt := range tests {
		if got := tt.call(); !strings.HasPrefix(got, "Error") {
			t.Errorf("%s: got %q, want an error reply", tt.name, got)
		}
	}
	if n, _ := h.registry.Len(ctx); n != 0 {
		t.Errorf("got %d pending actions, want 0", n)
	}
}

func TestApproveAction_WritesOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()
	id, err := h.registry.ProposeFileWrite(ctx, "/tmp/a.txt", "data")
	if err != nil {
		t.Fatalf("ProposeFileWrite: %v", err)
	}

	res, _ := h.srv.handleApproveAction(ctx, callRequest(ToolApproveAction, map[string]any{"id": id}))
	if res.IsError {
		t.Fatalf("approve failed: %s", resultText(t, res))
	}
	if h.files.Writes["/tmp/a.txt"] != "data" {
		t.Errorf("got writes %v", h.files.Writes)
	}

	res, _ = h.srv.handleApproveAction(ctx, callRequest(ToolApproveAction, map[string]any{"id": id}))
	if !res.IsError {
		t.Error("second approve should fail")
	}
	want := "Error: No pending action found with ID " + id
	if got := resultText(t, res); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if h.files.CallCount() != 1 {
		t.Errorf("got %d writes, want 1", h.files.CallCount())
	}
}

func TestApproveAction_ShellOutput(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()
	id, _ := h.registry.ProposeShellCommand(ctx, "echo hi")

	res, _ := h.srv.handleApproveAction(ctx, callRequest(ToolApproveAction, map[string]any{"id": id}))
	text := resultText(t, res)
	if !strings.Contains(text, "Exit code: 0") || !strings.Contains(text, "echo hi") {
		t.Errorf("unexpected reply %q", text)
	}
}

func TestApproveAction_ConcurrentExecutesOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()
	id, _ := h.registry.ProposeShellCommand(ctx, "make build")

	const callers = 16
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := h.srv.handleApproveAction(ctx, callRequest(ToolApproveAction, map[string]any{"id": id}))
			if !res.IsError {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("got %d successful approvals, want 1", ok)
	}
	if h.shell.CallCount() != 1 {
		t.Errorf("got %d runs, want 1", h.shell.CallCount())
	}
}

func TestRejectAction(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()
	id, _ := h.registry.ProposeShellCommand(ctx, "rm -rf build")

	res, _ := h.srv.handleRejectAction(ctx, callRequest(ToolRejectAction, map[string]any{"id": id}))
	if res.IsError {
		t.Fatalf("reject failed: %s", resultText(t, res))
	}
	if got, want := resultText(t, res), fmt.Sprintf("Action %s rejected and removed.", id); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if h.shell.CallCount() != 0 {
		t.Error("rejected command must not run")
	}

	res, _ = h.srv.handleApproveAction(ctx, callRequest(ToolApproveAction, map[string]any{"id": id}))
	if !res.IsError {
		t.Error("approve after reject should fail")
	}
}

func TestRejectAction_Unknown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	res, _ := h.srv.handleRejectAction(context.Background(), callRequest(ToolRejectAction, map[string]any{"id": "deadbeef"}))
	if !res.IsError {
		t.Error("expected error result")
	}
}

func TestListPendingActions(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()

	res, _ := h.srv.handleListPendingActions(ctx, callRequest(ToolListPendingActions, nil))
	if got := resultText(t, res); got != action.NoPendingActions {
		t.Errorf("got %q, want %q", got, action.NoPendingActions)
	}

	w, _ := h.registry.ProposeFileWrite(ctx, "/tmp/x", "1")
	s, _ := h.registry.ProposeShellCommand(ctx, "ls")

	res, _ = h.srv.handleListPendingActions(ctx, callRequest(ToolListPendingActions, nil))
	want := fmt.Sprintf("[%s] Write to: /tmp/x\n[%s] Run command: ls", w, s)
	if got := resultText(t, res); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Listing never mutates.
	if n, _ := h.registry.Len(ctx); n != 2 {
		t.Errorf("got %d pending, want 2", n)
	}
}
