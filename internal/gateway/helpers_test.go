package gateway

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/action/actiontest"
	"github.com/flemzord/toolgate/internal/core"
	"gopkg.in/yaml.v3"
)

// workflow bundles a registry and executor backed by mocks.
type workflow struct {
	registry *action.Registry
	executor *action.Executor
	files    *actiontest.MockFileWriter
	shell    *actiontest.MockShellRunner
}

func newWorkflow(t *testing.T, store action.Store) *workflow {
	t.Helper()
	logger := discardLogger()
	reg := action.NewRegistry(action.RegistryConfig{Store: store, Logger: logger})
	wf := &workflow{
		registry: reg,
		files:    &actiontest.MockFileWriter{},
		shell:    &actiontest.MockShellRunner{},
	}
	wf.executor = action.NewExecutor(action.ExecutorConfig{
		Registry: reg,
		Files:    wf.files,
		Shell:    wf.shell,
		Logger:   logger,
	})
	return wf
}

// newTestGateway returns a gateway with the workflow wired in, without a
// listening server.
func newTestGateway(t *testing.T, auth AuthConfig) (*Gateway, *workflow) {
	t.Helper()
	wf := newWorkflow(t, nil)
	g := &Gateway{
		config:   Config{Auth: auth},
		logger:   discardLogger(),
		registry: wf.registry,
		executor: wf.executor,
	}
	g.config.defaults()
	return g, wf
}

// newAppContext returns an AppContext with the workflow registered.
func newAppContext(t *testing.T) (*core.AppContext, *workflow) {
	t.Helper()
	appCtx := core.NewAppContext(discardLogger(), t.TempDir())
	wf := newWorkflow(t, nil)
	appCtx.RegisterService(action.RegistryService, wf.registry)
	appCtx.RegisterService(action.ExecutorService, wf.executor)
	return appCtx, wf
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var errStoreDown = errors.New("store down")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Put(context.Context, action.PendingAction) error { return errStoreDown }
func (brokenStore) Peek(context.Context, string) (action.PendingAction, error) {
	return nil, errStoreDown
}
func (brokenStore) Take(context.Context, string) (action.PendingAction, error) {
	return nil, errStoreDown
}
func (brokenStore) List(context.Context) ([]action.PendingAction, error) { return nil, errStoreDown }
func (brokenStore) Len(context.Context) (int, error)                     { return 0, errStoreDown }

// mustYAMLNode parses YAML text into a *yaml.Node for Configure calls.
func mustYAMLNode(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		t.Fatalf("YAML parse: %v", err)
	}
	if len(node.Content) > 0 {
		return node.Content[0]
	}
	return &node
}
