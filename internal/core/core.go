package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// stopTimeout bounds the whole shutdown sequence.
const stopTimeout = 30 * time.Second

// App drives a set of modules through load, start and stop.
type App struct {
	ctx    *AppContext
	logger *slog.Logger
	ids    []ModuleID
	mods   []Module
}

// NewApp creates an App whose modules share ctx.
func NewApp(ctx *AppContext) *App {
	return &App{ctx: ctx, logger: ctx.Logger.With("component", "core")}
}

// LoadModules configures, provisions and validates the modules named by
// ids, in order. On failure the modules loaded so far are stopped.
func (a *App) LoadModules(ids []string) error {
	for _, id := range ids {
		mod, err := a.ctx.LoadModule(id)
		if err != nil {
			a.Stop()
			return fmt.Errorf("loading module %s: %w", id, err)
		}
		a.ids = append(a.ids, mod.ModuleInfo().ID)
		a.mods = append(a.mods, mod)
		a.logger.Debug("module loaded", "module", id)
	}
	return nil
}

// Modules returns the loaded module IDs in load order.
func (a *App) Modules() []ModuleID {
	return append([]ModuleID(nil), a.ids...)
}

// Start runs Start on every Starter in load order. If one fails, every
// loaded module is stopped and the error returned.
func (a *App) Start() error {
	for i, mod := range a.mods {
		s, ok := mod.(Starter)
		if !ok {
			continue
		}
		if err := s.Start(); err != nil {
			a.logger.Error("module start failed", "module", string(a.ids[i]), "error", err)
			a.Stop()
			return fmt.Errorf("starting module %s: %w", a.ids[i], err)
		}
	}
	a.logger.Info("modules started", "count", len(a.mods))
	return nil
}

// Stop runs Stop on every Stopper in reverse load order, started or not:
// a provisioned module may already hold a database or a listener. Stop is
// safe to call more than once.
func (a *App) Stop() {
	if len(a.mods) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var errs []error
	for i := len(a.mods) - 1; i >= 0; i-- {
		s, ok := a.mods[i].(Stopper)
		if !ok {
			continue
		}
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ids[i], err))
		}
	}
	a.ids, a.mods = nil, nil

	if err := errors.Join(errs...); err != nil {
		a.logger.Error("module stop failed", "error", err)
	}
}
