// Package history implements the embedded history store (spec C4): a
// single SQLite database recording every dispatched exchange, shared
// across collections via a collections table, plus opaque UI-state
// scratch for an embedding view layer.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store is one opened SQLite file, shared by every collection on the
// host. It owns the schema and migrations; callers scope their reads and
// writes to one collection via Open, which returns a CollectionDatabase.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenStore opens (creating if absent) a SQLite database at path and
// applies every pending migration in fixed order, each inside its own
// transaction.
func OpenStore(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging history database %q: %w", path, err)
	}
	// Cascading deletes (collections -> requests_v2/ui_state_v2) rely on
	// foreign key enforcement, which SQLite disables by default per
	// connection.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enabling foreign keys on %q: %w", path, err)
	}

	// SQLite serializes writers regardless; pinning one connection avoids
	// per-connection PRAGMA drift and write-lock contention under the
	// pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history database %q: %w", path, err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// CollectionDatabase is a handle to the history store scoped to one
// canonical collection file path (§4.9): two handles opened against the
// same file, after symlink resolution, share storage. It implements
// exchange.Recorder so the dispatch package can record exchanges without
// importing this package directly.
type CollectionDatabase struct {
	store *Store
	id    uuid.UUID
}

// ID is the stable handle other tools (merge, delete) address this
// collection by.
func (c *CollectionDatabase) ID() uuid.UUID { return c.id }
