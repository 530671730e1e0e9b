package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownModule is returned when no compiled-in module has the ID.
var ErrUnknownModule = errors.New("unknown module")

// AppContext is what a module sees of the process: a scoped logger, the
// data directory, its own configuration section and the service table.
type AppContext struct {
	// Logger carries a "module" attribute inside ForModule contexts.
	Logger *slog.Logger

	// DataDir is where modules keep persistent state.
	DataDir string

	root     *slog.Logger
	sections map[string]yaml.Node
	services *services
}

// services is shared by every AppContext derived from one root, so a
// service registered by one module is visible to all.
type services struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewAppContext creates a root context. A nil logger uses slog.Default.
func NewAppContext(logger *slog.Logger, dataDir string) *AppContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppContext{
		Logger:   logger,
		DataDir:  dataDir,
		root:     logger,
		services: &services{m: make(map[string]any)},
	}
}

// WithModuleConfigs returns a copy of ctx holding the raw module sections
// keyed by module ID. Services stay shared with ctx.
func (ctx *AppContext) WithModuleConfigs(sections map[string]yaml.Node) *AppContext {
	cp := *ctx
	cp.sections = sections
	return &cp
}

// ForModule returns the context handed to module id.
func (ctx *AppContext) ForModule(id ModuleID) *AppContext {
	cp := *ctx
	cp.Logger = ctx.root.With("module", string(id))
	return &cp
}

// RegisterService publishes svc under name. A second registration under
// the same name replaces the first.
func (ctx *AppContext) RegisterService(name string, svc any) {
	ctx.services.mu.Lock()
	ctx.services.m[name] = svc
	ctx.services.mu.Unlock()
}

// Service looks up a value published with RegisterService.
func (ctx *AppContext) Service(name string) (any, bool) {
	ctx.services.mu.RLock()
	defer ctx.services.mu.RUnlock()
	svc, ok := ctx.services.m[name]
	return svc, ok
}

// LoadModule builds module id and takes it through Configure (only when
// the configuration has a section for it), Provision and Validate.
func (ctx *AppContext) LoadModule(id string) (Module, error) {
	info, ok := GetModule(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	mod := info.New()

	if c, ok := mod.(Configurable); ok {
		if section, ok := ctx.sections[id]; ok {
			if err := c.Configure(&section); err != nil {
				return nil, fmt.Errorf("configuring %s: %w", id, err)
			}
		}
	}
	if p, ok := mod.(Provisioner); ok {
		if err := p.Provision(ctx.ForModule(info.ID)); err != nil {
			return nil, fmt.Errorf("provisioning %s: %w", id, err)
		}
	}
	if v, ok := mod.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validating %s: %w", id, err)
		}
	}
	return mod, nil
}
