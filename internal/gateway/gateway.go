// Package gateway provides the operator HTTP API: health, Prometheus
// metrics, and listing, previewing, approving and rejecting pending actions.
// It binds to loopback by default and follows the module system pattern.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/security"
	"github.com/flemzord/toolgate/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// ErrServiceMissing is returned by Start when the action workflow has not
// been registered in the AppContext.
var ErrServiceMissing = errors.New("gateway: required service not registered")

// Gateway is the HTTP gateway module. It is a leaf module: nothing imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	// Resolved at Start() via the service registry.
	registry    *action.Registry
	executor    *action.Executor
	metrics     *telemetry.Metrics
	gatherer    prometheus.Gatherer
	audit       *security.AuditLogger
	rateLimiter *security.RateLimiter
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, _, err := net.SplitHostPort(g.config.Bind); err != nil {
		return fmt.Errorf("gateway: bind %q: %w", g.config.Bind, err)
	}
	if !g.config.Auth.IsConfigured() && g.logger != nil {
		g.logger.Warn("gateway auth not configured, action API disabled")
	}
	return nil
}

// Start implements core.Starter. It resolves the action workflow from the
// service registry and starts the HTTP server.
func (g *Gateway) Start() error {
	if err := g.resolveServices(); err != nil {
		return err
	}
	writeTimeout, err := g.writeTimeout()
	if err != nil {
		return err
	}

	// Listen here so a taken port fails Start instead of a goroutine.
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	g.startedAt = time.Now()
	g.server = &http.Server{
		Handler:           g.buildRouter(),
		ReadTimeout:       g.config.ReadTimeout,
		ReadHeaderTimeout: g.config.ReadTimeout,
		WriteTimeout:      writeTimeout,
	}
	g.logger.Info("gateway listening", "addr", ln.Addr().String(), "action_api", g.config.Auth.IsConfigured())

	go func() {
		if err := g.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway stopped serving", "error", err)
		}
	}()
	return nil
}

// Stop implements core.Stopper. In-flight approvals get ShutdownTimeout
// to finish.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

// writeTimeout returns the server write timeout. A configured value must
// outlast the executor's timeout or approvals would lose their response.
func (g *Gateway) writeTimeout() (time.Duration, error) {
	effect := g.executor.Timeout()
	if g.config.WriteTimeout <= 0 {
		return effect + writeMargin, nil
	}
	if g.config.WriteTimeout <= effect {
		return 0, fmt.Errorf("gateway: write_timeout %s must exceed actions.timeout %s", g.config.WriteTimeout, effect)
	}
	return g.config.WriteTimeout, nil
}

func (g *Gateway) resolveServices() error {
	var ok bool
	if g.registry, ok = lookup[*action.Registry](g.appCtx, action.RegistryService); !ok {
		return fmt.Errorf("%w: %s", ErrServiceMissing, action.RegistryService)
	}
	if g.executor, ok = lookup[*action.Executor](g.appCtx, action.ExecutorService); !ok {
		return fmt.Errorf("%w: %s", ErrServiceMissing, action.ExecutorService)
	}

	// Optional: graceful degradation if missing.
	g.metrics, _ = lookup[*telemetry.Metrics](g.appCtx, telemetry.MetricsService)
	g.gatherer, _ = lookup[prometheus.Gatherer](g.appCtx, telemetry.GathererService)
	g.audit, _ = lookup[*security.AuditLogger](g.appCtx, security.AuditService)
	g.rateLimiter, _ = lookup[*security.RateLimiter](g.appCtx, security.RateLimiterService)
	return nil
}

func lookup[T any](ctx *core.AppContext, name string) (T, bool) {
	var zero T
	svc, ok := ctx.Service(name)
	if !ok {
		return zero, false
	}
	v, ok := svc.(T)
	return v, ok
}
