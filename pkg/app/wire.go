package app

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/assist"
	"github.com/flemzord/toolgate/internal/config"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/files"
	"github.com/flemzord/toolgate/internal/security"
	"github.com/flemzord/toolgate/internal/shell"
	"github.com/flemzord/toolgate/internal/telemetry"
)

// workflow is the approval workflow shared by the MCP server and the
// gateway.
type workflow struct {
	registry *action.Registry
	executor *action.Executor
	reader   *files.Reader
}

type workflowDeps struct {
	logger      *slog.Logger
	audit       *security.AuditLogger
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
	credentials *security.CredentialStore
}

// wireWorkflow builds the registry and executor on the store published by
// a store module, or on a MemoryStore, and registers them as services.
// Must be called after LoadModules and before Start.
func wireWorkflow(appCtx *core.AppContext, cfg *config.Config, deps workflowDeps) (*workflow, error) {
	store, ok := service[action.Store](appCtx, action.StoreService)
	if !ok {
		store = action.NewMemoryStore()
		deps.logger.Info("using in-memory action store")
	}

	registry := action.NewRegistry(action.RegistryConfig{
		Store:          store,
		MaxPayloadSize: cfg.Actions.MaxPayloadSize,
		Logger:         deps.logger,
		Audit:          deps.audit,
		Observer:       deps.metrics,
	})

	runner, err := shellRunner(cfg.Actions, deps)
	if err != nil {
		return nil, err
	}
	executor := action.NewExecutor(action.ExecutorConfig{
		Registry: registry,
		Files:    files.NewWriter(),
		Shell:    runner,
		Timeout:  cfg.Actions.Timeout,
		Logger:   deps.logger,
		Audit:    deps.audit,
		Observer: deps.metrics,
		Tracer:   deps.tracer,
	})

	// A durable store may already hold actions from an earlier run.
	if n, err := registry.Len(context.Background()); err == nil {
		deps.metrics.SetPending(n)
		if n > 0 {
			deps.logger.Info("pending actions restored", "count", n)
		}
	}

	appCtx.RegisterService(action.RegistryService, registry)
	appCtx.RegisterService(action.ExecutorService, executor)

	return &workflow{
		registry: registry,
		executor: executor,
		reader:   files.NewReader(cfg.Actions.MaxReadSize),
	}, nil
}

func shellRunner(cfg config.ActionsConfig, deps workflowDeps) (action.ShellRunner, error) {
	if !cfg.Sandbox.Enabled {
		return shell.NewHostRunner(shell.HostConfig{
			Shell:       cfg.Shell,
			Args:        cfg.ShellArgs,
			Dir:         cfg.Workdir,
			Credentials: deps.credentials,
		}), nil
	}

	if !shell.IsDockerAvailable() {
		return nil, errors.New("actions.sandbox is enabled but docker is not available")
	}
	deps.logger.Info("approved commands run in a docker sandbox", "image", cfg.Sandbox.Image)
	return shell.NewSandboxRunner(shell.SandboxConfig{
		Image:   cfg.Sandbox.Image,
		Limits:  cfg.Sandbox.Limits,
		Workdir: cfg.Workdir,
		Network: cfg.Sandbox.Network,
	}), nil
}

// assists holds the optional model-backed collaborators published by
// provider modules.
type assists struct {
	prompts   assist.PromptExecutor
	optimizer assist.Optimizer
	vision    assist.VisionGenerator
	models    assist.ModelLister
	figma     assist.FigmaRenderer
	browser   assist.ScreenshotCapturer
	state     *assist.VisionState
}

func resolveAssist(appCtx *core.AppContext) assists {
	a := assists{}
	a.prompts, _ = service[assist.PromptExecutor](appCtx, assist.ExecutorService)
	a.optimizer, _ = service[assist.Optimizer](appCtx, assist.OptimizerService)
	a.vision, _ = service[assist.VisionGenerator](appCtx, assist.VisionService)
	a.models, _ = service[assist.ModelLister](appCtx, assist.ModelsService)
	a.figma, _ = service[assist.FigmaRenderer](appCtx, assist.FigmaService)
	a.browser, _ = service[assist.ScreenshotCapturer](appCtx, assist.BrowserService)

	// A provider may preselect the vision model from its configuration.
	var preset string
	if d, ok := a.vision.(interface{ DefaultVisionModel() string }); ok {
		preset = d.DefaultVisionModel()
	}
	a.state = assist.NewVisionState(preset)
	return a
}

// service returns the service registered under name if it has type T.
func service[T any](appCtx *core.AppContext, name string) (T, bool) {
	var zero T
	svc, ok := appCtx.Service(name)
	if !ok {
		return zero, false
	}
	v, ok := svc.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
