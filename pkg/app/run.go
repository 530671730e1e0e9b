// Package app provides the entry point shared by the toolgate commands:
// it loads configuration, provisions modules, wires the approval workflow
// and serves MCP over stdio.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/flemzord/toolgate/internal/config"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/mcpserver"
	"github.com/flemzord/toolgate/internal/security"
	"github.com/flemzord/toolgate/internal/telemetry"
)

// pendingRefreshInterval is how often the pending gauge is re-read from the
// store. A shared SQLite store can be drained by another process.
const pendingRefreshInterval = 30 * time.Second

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, the standard locations are searched and built-in defaults
	// are used when none exists.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// Stdin and Stdout carry the MCP stream. Default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer

	// Stderr receives logs. Defaults to os.Stderr.
	Stderr io.Writer
}

func (p *RunParams) defaults() {
	if p.Stdin == nil {
		p.Stdin = os.Stdin
	}
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}
	if p.Version == "" {
		p.Version = mcpserver.DefaultVersion
	}
}

// Run loads configuration, starts all modules, and serves MCP on stdio
// until the client disconnects or a shutdown signal is received.
func Run(ctx context.Context, params RunParams) error {
	params.defaults()

	cfg, cfgPath, err := config.LoadOrDefault(params.ConfigPath)
	if err != nil {
		return err
	}

	// Security foundation: every log line passes the redactor.
	credStore := security.NewCredentialStore()
	redactor := security.NewRedactor()
	logger, err := NewLogger(cfg.Log, params.Stderr, redactor)
	if err != nil {
		return err
	}
	if cfgPath == "" {
		logger.Info("no configuration file found, using defaults")
	} else {
		logger.Info("configuration loaded", "path", cfgPath)
	}

	auditOut, closeAudit, err := openAuditLog(cfg.Security.AuditPath, params.Stderr)
	if err != nil {
		return err
	}
	defer closeAudit()
	auditLogger := security.NewAuditLogger(security.AuditLoggerConfig{
		Writer:   auditOut,
		Redactor: redactor,
	})
	rateLimiter := security.NewRateLimiter(cfg.Security.RateLimits)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.NewMetrics(promRegistry)
	if err != nil {
		return err
	}

	tracing, err := telemetry.NewTracerProvider(ctx, cfg.Tracing, params.Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	appCtx := core.NewAppContext(logger, cfg.DataDir).WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService(security.CredentialsService, credStore)
	appCtx.RegisterService(security.AuditService, auditLogger)
	appCtx.RegisterService(security.RateLimiterService, rateLimiter)
	appCtx.RegisterService(telemetry.MetricsService, metrics)
	appCtx.RegisterService(telemetry.GathererService, prometheus.Gatherer(promRegistry))

	application := core.NewApp(appCtx)
	if err := application.LoadModules(config.Resolve(cfg)); err != nil {
		return err
	}

	// The workflow must be registered between LoadModules and Start: the
	// store module publishes its store during Provision and the gateway
	// resolves the registry and executor during Start.
	wf, err := wireWorkflow(appCtx, cfg, workflowDeps{
		logger:      logger,
		audit:       auditLogger,
		metrics:     metrics,
		tracer:      tracing.Tracer(),
		credentials: credStore,
	})
	if err != nil {
		return err
	}

	if err := application.Start(); err != nil {
		return err
	}
	defer application.Stop()

	// Modules record their API keys during Provision.
	redactor.SyncCredentials(credStore)
	if names := credStore.Names(); len(names) > 0 {
		logger.Debug("credentials registered", "names", names)
	}

	assists := resolveAssist(appCtx)
	srv, err := mcpserver.New(mcpserver.Config{
		Name:        mcpserver.DefaultName,
		Version:     params.Version,
		Registry:    wf.registry,
		Executor:    wf.executor,
		Files:       wf.reader,
		Prompts:     assists.prompts,
		Optimizer:   assists.optimizer,
		Vision:      assists.vision,
		Models:      assists.models,
		Figma:       assists.figma,
		Browser:     assists.browser,
		VisionState: assists.state,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Audit:       auditLogger,
		Redactor:    redactor,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The client closing stdin ends the session.
		defer stop()
		return srv.ServeStdio(gctx, params.Stdin, params.Stdout)
	})
	g.Go(func() error {
		refreshPending(gctx, wf, metrics, logger)
		return nil
	})

	err = g.Wait()
	logger.Info("shutting down")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// refreshPending keeps the pending gauge in sync with the store until ctx
// is done.
func refreshPending(ctx context.Context, wf *workflow, metrics *telemetry.Metrics, logger *slog.Logger) {
	ticker := time.NewTicker(pendingRefreshInterval)
	defer ticker.Stop()
	for {
		n, err := wf.registry.Len(ctx)
		if err == nil {
			metrics.SetPending(n)
		} else if ctx.Err() == nil {
			logger.Warn("reading pending action count failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NewLogger builds the process logger: a text or JSON handler on w,
// wrapped so registered secrets never reach the output.
func NewLogger(cfg config.LogConfig, w io.Writer, redactor *security.Redactor) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}

// openAuditLog resolves the audit destination: nothing for an empty path,
// stderr for "-", otherwise an append-only file.
func openAuditLog(path string, stderr io.Writer) (io.Writer, func(), error) {
	switch path {
	case "":
		return nil, func() {}, nil
	case "-":
		return stderr, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
