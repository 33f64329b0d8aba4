package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

// resourceName turns a plural kind into the singular used in error
// messages ("technique not found with id ...").
func resourceName(kind storage.Kind) string {
	return strings.TrimSuffix(string(kind), "s")
}

// Get retrieves one record by id. Missing rows map to NotFound; any
// other database failure maps to StorageUnavailable.
func (db *DB) Get(ctx context.Context, kind storage.Kind, id string) (*storage.Record, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("sqlite: unknown kind %q", kind)
	}

	var data []byte
	err := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT record FROM %s WHERE id = ?`, kind),
		id,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound(resourceName(kind), id)
		}
		return nil, apperror.StorageUnavailable(fmt.Sprintf("get %s", kind), err)
	}

	return &storage.Record{ID: id, Data: data}, nil
}

// List returns every record of a kind, ordered by id for determinism.
// Callers sort domain-level after decoding.
func (db *DB) List(ctx context.Context, kind storage.Kind) ([]storage.Record, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("sqlite: unknown kind %q", kind)
	}

	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, record FROM %s ORDER BY id`, kind),
	)
	if err != nil {
		return nil, apperror.StorageUnavailable(fmt.Sprintf("list %s", kind), err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var rec storage.Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, apperror.StorageUnavailable(fmt.Sprintf("scan %s", kind), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageUnavailable(fmt.Sprintf("iterate %s", kind), err)
	}

	return records, nil
}

// Put stores a record, replacing any existing row with the same id.
// The write is committed before Put returns.
func (db *DB) Put(ctx context.Context, kind storage.Kind, rec *storage.Record) error {
	if !validKind(kind) {
		return fmt.Errorf("sqlite: unknown kind %q", kind)
	}
	if rec == nil || rec.ID == "" {
		return apperror.ValidationFailed("id", "record id is required")
	}

	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, record) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET record = excluded.record`, kind),
		rec.ID,
		string(rec.Data),
	)
	if err != nil {
		return apperror.StorageUnavailable(fmt.Sprintf("put %s", kind), err)
	}
	return nil
}

// Delete removes a record by id. RowsAffected distinguishes a missing
// row (NotFound) from a failed delete.
func (db *DB) Delete(ctx context.Context, kind storage.Kind, id string) error {
	if !validKind(kind) {
		return fmt.Errorf("sqlite: unknown kind %q", kind)
	}

	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, kind),
		id,
	)
	if err != nil {
		return apperror.StorageUnavailable(fmt.Sprintf("delete %s", kind), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.StorageUnavailable("checking rows affected", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resourceName(kind), id)
	}
	return nil
}

// ComponentVersion reads the schema version marker for a kind. A kind
// that has never been stamped reports version 0.
func (db *DB) ComponentVersion(ctx context.Context, kind storage.Kind) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx,
		`SELECT version FROM schema_info WHERE component = ?`,
		string(kind),
	).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, apperror.StorageUnavailable("reading schema version", err)
	}
	return version, nil
}

// SetComponentVersion stamps the schema version marker for a kind.
func (db *DB) SetComponentVersion(ctx context.Context, kind storage.Kind, version int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO schema_info (component, version) VALUES (?, ?)
			ON CONFLICT(component) DO UPDATE SET version = excluded.version`,
		string(kind),
		version,
	)
	if err != nil {
		return apperror.StorageUnavailable("writing schema version", err)
	}
	return nil
}

// Quarantine moves a record out of its live table, keeping the original
// bytes under (kind, id) so nothing is silently dropped. The move is
// transactional so the record is never visible in both places.
func (db *DB) Quarantine(ctx context.Context, kind storage.Kind, rec *storage.Record, reason string) error {
	if !validKind(kind) {
		return fmt.Errorf("sqlite: unknown kind %q", kind)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StorageUnavailable("beginning quarantine", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quarantine (kind, id, record, reason) VALUES (?, ?, ?, ?)
			ON CONFLICT(kind, id) DO UPDATE SET record = excluded.record, reason = excluded.reason`,
		string(kind),
		rec.ID,
		string(rec.Data),
		reason,
	)
	if err != nil {
		return apperror.StorageUnavailable("writing quarantine", err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, kind),
		rec.ID,
	)
	if err != nil {
		return apperror.StorageUnavailable("removing quarantined record", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.StorageUnavailable("committing quarantine", err)
	}
	return nil
}
