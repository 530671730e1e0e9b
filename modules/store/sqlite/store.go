package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flemzord/toolgate/internal/action"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Store implements action.Store on a SQLite table. Pending actions survive
// restarts; Take is a single DELETE ... RETURNING statement, so it is
// atomic across connections and processes sharing the file.
type Store struct {
	db *sql.DB
}

var _ action.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it.
// The caller must Close the returned store.
func Open(ctx context.Context, path string, cfg Config) (*Store, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	// One connection keeps PRAGMAs consistent; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if cfg.walEnabled() {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Put implements action.Store.
func (s *Store) Put(ctx context.Context, a action.PendingAction) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("sqlite: marshal action: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pending_actions (id, kind, payload) VALUES (?, ?, ?)`,
		a.ActionID(), string(a.Kind()), string(payload),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: insert action: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", action.ErrDuplicateID, a.ActionID())
	}
	return nil
}

// Peek implements action.Store.
func (s *Store) Peek(ctx context.Context, id string) (action.PendingAction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT kind, payload FROM pending_actions WHERE id = ?`, id)
	return scanAction(row, id)
}

// Take implements action.Store.
func (s *Store) Take(ctx context.Context, id string) (action.PendingAction, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM pending_actions WHERE id = ? RETURNING kind, payload`, id)
	return scanAction(row, id)
}

// List implements action.Store.
func (s *Store) List(ctx context.Context) ([]action.PendingAction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, payload FROM pending_actions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []action.PendingAction{}
	for rows.Next() {
		var id, kind, payload string
		if err := rows.Scan(&id, &kind, &payload); err != nil {
			return nil, fmt.Errorf("sqlite: scan action: %w", err)
		}
		a, err := decode(kind, payload)
		if err != nil {
			return nil, fmt.Errorf("sqlite: action %s: %w", id, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list actions: %w", err)
	}
	return out, nil
}

// Len implements action.Store.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pending_actions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count actions: %w", err)
	}
	return n, nil
}

func scanAction(row *sql.Row, id string) (action.PendingAction, error) {
	var kind, payload string
	if err := row.Scan(&kind, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", action.ErrNotFound, id)
		}
		return nil, fmt.Errorf("sqlite: read action %s: %w", id, err)
	}
	a, err := decode(kind, payload)
	if err != nil {
		return nil, fmt.Errorf("sqlite: action %s: %w", id, err)
	}
	return a, nil
}

// decode rebuilds the variant named by kind from its JSON payload.
func decode(kind, payload string) (action.PendingAction, error) {
	switch action.Kind(kind) {
	case action.KindFileWrite:
		var a action.FileWrite
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return a, nil
	case action.KindShellCommand:
		var a action.ShellCommand
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}
