package action_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/action/actiontest"
	"github.com/flemzord/toolgate/internal/files"
	"github.com/flemzord/toolgate/internal/security"
	"github.com/flemzord/toolgate/internal/security/securitytest"
	"github.com/flemzord/toolgate/internal/shell"
)

type fixture struct {
	registry *action.Registry
	executor *action.Executor
	files    *actiontest.MockFileWriter
	shell    *actiontest.MockShellRunner
	observer *actiontest.RecordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		files:    &actiontest.MockFileWriter{},
		shell:    &actiontest.MockShellRunner{},
		observer: &actiontest.RecordingObserver{},
	}
	f.registry = action.NewRegistry(action.RegistryConfig{Observer: f.observer})
	f.executor = action.NewExecutor(action.ExecutorConfig{
		Registry: f.registry,
		Files:    f.files,
		Shell:    f.shell,
		Observer: f.observer,
	})
	return f
}

func TestExecutor_ApproveUnknownID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out := f.executor.Approve(context.Background(), "deadbeef")

	if out.Status != action.StatusNotFound {
		t.Errorf("status = %q, want %q", out.Status, action.StatusNotFound)
	}
	if out.Text != "Error: No pending action found with ID deadbeef" {
		t.Errorf("text = %q", out.Text)
	}
	if !errors.Is(out.Err, action.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", out.Err)
	}
	if f.files.CallCount()+f.shell.CallCount() != 0 {
		t.Error("side effect ran for unknown id")
	}
}

func TestExecutor_ApproveWritesFileOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	id, err := f.registry.ProposeFileWrite(ctx, "/tmp/out/report.txt", "done")
	if err != nil {
		t.Fatal(err)
	}

	out := f.executor.Approve(ctx, id)
	if out.Status != action.StatusExecuted {
		t.Fatalf("status = %q (%s), want executed", out.Status, out.Text)
	}
	if out.Text != "Successfully wrote to /tmp/out/report.txt" {
		t.Errorf("text = %q", out.Text)
	}
	if got := f.files.Writes["/tmp/out/report.txt"]; got != "done" {
		t.Errorf("written content = %q, want %q", got, "done")
	}

	again := f.executor.Approve(ctx, id)
	if again.Status != action.StatusNotFound {
		t.Errorf("second approve status = %q, want not_found", again.Status)
	}
	if got := f.files.CallCount(); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
	if strings.Contains(f.registry.ListText(ctx), id) {
		t.Error("approved id still listed")
	}
}

func TestExecutor_ApproveWritesRealFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := action.NewRegistry(action.RegistryConfig{})
	exec := action.NewExecutor(action.ExecutorConfig{
		Registry: registry,
		Files:    files.NewWriter(),
		Shell:    shell.NewHostRunner(shell.HostConfig{}),
	})

	target := filepath.Join(t.TempDir(), "out", "report.txt")
	id, err := registry.ProposeFileWrite(ctx, target, "done")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file exists before approval: %v", err)
	}

	out := exec.Approve(ctx, id)
	if !out.OK() {
		t.Fatalf("approve failed: %s", out.Text)
	}
	if out.Path != target {
		t.Errorf("path = %q, want %q", out.Path, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "done" {
		t.Errorf("content = %q, want %q", data, "done")
	}
}

func TestExecutor_ApproveRunsRealCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := action.NewRegistry(action.RegistryConfig{})
	exec := action.NewExecutor(action.ExecutorConfig{
		Registry: registry,
		Files:    files.NewWriter(),
		Shell:    shell.NewHostRunner(shell.HostConfig{}),
	})

	id, err := registry.ProposeShellCommand(ctx, "echo hi")
	if err != nil {
		t.Fatal(err)
	}
	if got := registry.ListText(ctx); !strings.Contains(got, "["+id+"] Run command: echo hi") {
		t.Errorf("ListText = %q", got)
	}

	out := exec.Approve(ctx, id)
	if out.Status != action.StatusExecuted {
		t.Fatalf("status = %q (%s)", out.Status, out.Text)
	}
	if out.Shell == nil || out.Shell.Stdout != "hi\n" {
		t.Errorf("shell result = %+v, want stdout %q", out.Shell, "hi\n")
	}
	if !strings.Contains(out.Text, "Stdout: hi") {
		t.Errorf("text = %q, want it to contain stdout", out.Text)
	}
}

func TestExecutor_RejectNeverRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	id, err := f.registry.ProposeShellCommand(ctx, "rm -rf /")
	if err != nil {
		t.Fatal(err)
	}

	out := f.executor.Reject(ctx, id)
	if out.Status != action.StatusRejected {
		t.Fatalf("status = %q, want rejected", out.Status)
	}
	if want := "Action " + id + " rejected and removed."; out.Text != want {
		t.Errorf("text = %q, want %q", out.Text, want)
	}

	approve := f.executor.Approve(ctx, id)
	if approve.Status != action.StatusNotFound {
		t.Errorf("approve after reject: status = %q, want not_found", approve.Status)
	}
	if f.shell.CallCount() != 0 {
		t.Error("rejected command was executed")
	}
	if got := f.registry.ListText(ctx); got != action.NoPendingActions {
		t.Errorf("ListText = %q, want %q", got, action.NoPendingActions)
	}
}

func TestExecutor_RejectUnknownID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out := f.executor.Reject(context.Background(), "00000000")
	if out.Status != action.StatusNotFound {
		t.Errorf("status = %q, want not_found", out.Status)
	}
	if out.Text != "Error: No pending action found with ID 00000000" {
		t.Errorf("text = %q", out.Text)
	}
}

func TestExecutor_ConcurrentApproveExecutesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.shell.RunFunc = func(context.Context, string) (action.ShellResult, error) {
		time.Sleep(10 * time.Millisecond)
		return action.ShellResult{Stdout: "ok"}, nil
	}
	id, err := f.registry.ProposeShellCommand(ctx, "deploy")
	if err != nil {
		t.Fatal(err)
	}

	const callers = 16
	outcomes := make(chan action.Outcome, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- f.executor.Approve(ctx, id)
		}()
	}
	wg.Wait()
	close(outcomes)

	executed, notFound := 0, 0
	for out := range outcomes {
		switch out.Status {
		case action.StatusExecuted:
			executed++
		case action.StatusNotFound:
			notFound++
		default:
			t.Errorf("unexpected status %q", out.Status)
		}
	}
	if executed != 1 || notFound != callers-1 {
		t.Errorf("executed=%d not_found=%d, want 1 and %d", executed, notFound, callers-1)
	}
	if got := f.shell.CallCount(); got != 1 {
		t.Errorf("command ran %d times, want 1", got)
	}
}

func TestExecutor_ApproveAndRejectRace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	id, err := f.registry.ProposeFileWrite(ctx, "/tmp/race.txt", "x")
	if err != nil {
		t.Fatal(err)
	}

	var approve, reject action.Outcome
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); approve = f.executor.Approve(ctx, id) }()
	go func() { defer wg.Done(); reject = f.executor.Reject(ctx, id) }()
	wg.Wait()

	resolved := 0
	if approve.OK() {
		resolved++
	}
	if reject.OK() {
		resolved++
	}
	if resolved != 1 {
		t.Errorf("approve=%q reject=%q, want exactly one to resolve", approve.Status, reject.Status)
	}
	if approve.OK() != (f.files.CallCount() == 1) {
		t.Errorf("write count %d does not match approve status %q", f.files.CallCount(), approve.Status)
	}
}

func TestExecutor_NonZeroExitIsExecuted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.shell.RunFunc = func(context.Context, string) (action.ShellResult, error) {
		return action.ShellResult{Stderr: "no such file", ExitCode: 2}, nil
	}
	id, _ := f.registry.ProposeShellCommand(ctx, "cat missing")

	out := f.executor.Approve(ctx, id)
	if out.Status != action.StatusExecuted {
		t.Fatalf("status = %q, want executed", out.Status)
	}
	if out.Failure != action.FailureNone {
		t.Errorf("failure = %q, want none", out.Failure)
	}
	want := "Command executed.\nExit code: 2\nStdout: \nStderr: no such file"
	if out.Text != want {
		t.Errorf("text = %q, want %q", out.Text, want)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	exec := action.NewExecutor(action.ExecutorConfig{
		Registry: f.registry,
		Files:    f.files,
		Shell:    f.shell,
		Timeout:  20 * time.Millisecond,
	})
	f.shell.RunFunc = func(ctx context.Context, _ string) (action.ShellResult, error) {
		<-ctx.Done()
		return action.ShellResult{Stdout: "partial"}, ctx.Err()
	}
	id, _ := f.registry.ProposeShellCommand(ctx, "sleep 600")

	out := exec.Approve(ctx, id)
	if out.Status != action.StatusFailed || out.Failure != action.FailureTimeout {
		t.Fatalf("status=%q failure=%q, want failed/timeout", out.Status, out.Failure)
	}
	if !errors.Is(out.Err, action.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", out.Err)
	}
	if !strings.HasPrefix(out.Text, "Error: command timed out after 20ms") || !strings.Contains(out.Text, "partial") {
		t.Errorf("text = %q", out.Text)
	}
	if _, err := f.registry.Peek(ctx, id); !errors.Is(err, action.ErrNotFound) {
		t.Error("timed-out action is still pending")
	}
}

func TestExecutor_SpawnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.shell.RunFunc = func(context.Context, string) (action.ShellResult, error) {
		return action.ShellResult{}, errors.New("exec: \"sh\": executable file not found")
	}
	id, _ := f.registry.ProposeShellCommand(ctx, "ls")

	out := f.executor.Approve(ctx, id)
	if out.Failure != action.FailureExecution {
		t.Errorf("failure = %q, want execution_failure", out.Failure)
	}
	if !strings.HasPrefix(out.Text, "Error executing command: ") {
		t.Errorf("text = %q", out.Text)
	}
}

func TestExecutor_WriteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.files.WriteFileFunc = func(context.Context, string, string) (string, error) {
		return "", os.ErrPermission
	}
	id, _ := f.registry.ProposeFileWrite(ctx, "/root/forbidden.txt", "x")

	out := f.executor.Approve(ctx, id)
	if out.Status != action.StatusFailed || out.Failure != action.FailureIO {
		t.Fatalf("status=%q failure=%q, want failed/io_failure", out.Status, out.Failure)
	}
	if !errors.Is(out.Err, os.ErrPermission) || !errors.Is(out.Err, action.ErrIO) {
		t.Errorf("err = %v, want ErrIO wrapping ErrPermission", out.Err)
	}
	if !strings.HasPrefix(out.Text, "Error writing file: ") {
		t.Errorf("text = %q", out.Text)
	}
	if _, err := f.registry.Peek(ctx, id); !errors.Is(err, action.ErrNotFound) {
		t.Error("failed action is still pending")
	}
}

func TestExecutor_EffectSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	id, _ := f.registry.ProposeShellCommand(ctx, "backup")

	f.shell.RunFunc = func(runCtx context.Context, _ string) (action.ShellResult, error) {
		cancel()
		select {
		case <-runCtx.Done():
			return action.ShellResult{}, runCtx.Err()
		case <-time.After(20 * time.Millisecond):
			return action.ShellResult{Stdout: "done"}, nil
		}
	}

	out := f.executor.Approve(ctx, id)
	if out.Status != action.StatusExecuted {
		t.Errorf("status = %q (%s), want executed", out.Status, out.Text)
	}
}

func TestExecutor_ListAcrossLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a, _ := f.registry.ProposeShellCommand(ctx, "one")
	b, _ := f.registry.ProposeShellCommand(ctx, "two")
	c, _ := f.registry.ProposeFileWrite(ctx, "/tmp/three", "3")

	f.executor.Approve(ctx, a)
	f.executor.Reject(ctx, c)

	list := f.registry.ListText(ctx)
	if strings.Contains(list, a) || strings.Contains(list, c) {
		t.Errorf("resolved ids still listed: %q", list)
	}
	if !strings.Contains(list, b) {
		t.Errorf("pending id %s missing from %q", b, list)
	}
}

func TestExecutor_ObserverAndAudit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	audit, events := securitytest.NewTestAuditLogger()
	observer := &actiontest.RecordingObserver{}
	registry := action.NewRegistry(action.RegistryConfig{Audit: audit, Observer: observer})
	exec := action.NewExecutor(action.ExecutorConfig{
		Registry: registry,
		Files:    &actiontest.MockFileWriter{},
		Shell:    &actiontest.MockShellRunner{},
		Audit:    audit,
		Observer: observer,
	})

	keep, _ := registry.ProposeShellCommand(ctx, "echo keep")
	drop, _ := registry.ProposeShellCommand(ctx, "echo drop")
	exec.Approve(ctx, keep)
	exec.Reject(ctx, drop)
	exec.Approve(ctx, "ffffffff")

	if got := observer.Proposed[action.KindShellCommand]; got != 2 {
		t.Errorf("proposed = %d, want 2", got)
	}
	for status, want := range map[action.Status]int{
		action.StatusExecuted: 1,
		action.StatusRejected: 1,
		action.StatusNotFound: 1,
	} {
		if got := observer.ResolvedCount(status); got != want {
			t.Errorf("resolved[%s] = %d, want %d", status, got, want)
		}
	}

	var types []security.EventType
	for _, e := range events() {
		types = append(types, e.Type)
	}
	want := []security.EventType{
		security.EventProposal, security.EventProposal,
		security.EventApproval, security.EventToolResult,
		security.EventRejection,
	}
	if len(types) != len(want) {
		t.Fatalf("audit types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("audit[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}
