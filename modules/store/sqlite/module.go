// Package sqlite implements the store.sqlite module: a durable action.Store
// backed by modernc.org/sqlite (pure Go, no CGO) in WAL mode. With it,
// pending actions survive a server restart and can be resolved from
// another process sharing the database.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/core"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module provides the SQLite action store as the action.StoreService service.
type Module struct {
	config Config
	logger *slog.Logger
	store  *Store
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	store, err := Open(context.TODO(), m.config.Path, m.config)
	if err != nil {
		return err
	}
	m.store = store
	ctx.RegisterService(action.StoreService, store)

	m.logger.Info("sqlite action store provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if err := m.store.Ping(context.TODO()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("sqlite action store stopping")
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// Store returns the provisioned store.
func (m *Module) Store() *Store {
	return m.store
}
