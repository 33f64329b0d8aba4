// Package sqlite implements the storage backend on SQLite via the pure
// Go driver modernc.org/sqlite, so the binary builds without CGo. Each
// entity kind gets its own table of (id, record) rows holding the JSON
// documents, alongside the schema_info version markers and the
// quarantine table for records the migration runner could not transform.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

var _ storage.Backend = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements storage.Backend.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and prepares the tables.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on
	// the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating tables: %w", err)
	}
	return db, nil
}

// Close closes the connection pool. Callers should defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the backend is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

func (db *DB) createTables() error {
	for _, kind := range storage.Kinds {
		_, err := db.conn.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id     TEXT PRIMARY KEY,
				record TEXT NOT NULL
			);
		`, kind))
		if err != nil {
			return fmt.Errorf("creating %s table: %w", kind, err)
		}
	}

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_info (
			component TEXT PRIMARY KEY,
			version   INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema_info table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS quarantine (
			kind           TEXT NOT NULL,
			id             TEXT NOT NULL,
			record         TEXT NOT NULL,
			reason         TEXT NOT NULL DEFAULT '',
			quarantined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (kind, id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating quarantine table: %w", err)
	}

	return nil
}

// validKind guards the table-name interpolation in the record queries.
// Kinds are a closed set, never caller input.
func validKind(kind storage.Kind) bool {
	for _, k := range storage.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
