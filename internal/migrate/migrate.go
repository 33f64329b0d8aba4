// Package migrate upgrades persisted records from the legacy storage
// shape to the current one. The runner executes once at startup, before
// any repository read is served; partial migration is never observable.
package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

// CurrentSchemaVersion is the record shape this build reads and writes.
// Version 0 (no marker) means legacy, pre-versioned data.
const CurrentSchemaVersion = 1

// Summary reports what one component's migration pass did.
type Summary struct {
	Component   storage.Kind
	FromVersion int
	Migrated    int
	Quarantined int
}

// Runner performs the one-shot schema upgrade across every record store.
type Runner struct {
	backend storage.Backend
	logger  *slog.Logger
}

func NewRunner(backend storage.Backend, logger *slog.Logger) *Runner {
	return &Runner{
		backend: backend,
		logger:  logger,
	}
}

// Run upgrades every component to CurrentSchemaVersion. Already-current
// components are untouched, so a second run is a no-op. A record that
// cannot be transformed is logged and moved to quarantine rather than
// dropped; the version marker is stamped only when the pass finishes
// without a storage failure. Any storage failure aborts the whole run.
func (r *Runner) Run(ctx context.Context) ([]Summary, error) {
	summaries := make([]Summary, 0, len(storage.Kinds))
	for _, kind := range storage.Kinds {
		summary, err := r.runComponent(ctx, kind)
		if err != nil {
			return summaries, fmt.Errorf("migrate: upgrading %s: %w", kind, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *Runner) runComponent(ctx context.Context, kind storage.Kind) (Summary, error) {
	summary := Summary{Component: kind}

	version, err := r.backend.ComponentVersion(ctx, kind)
	if err != nil {
		return summary, err
	}
	summary.FromVersion = version

	if version == CurrentSchemaVersion {
		r.logger.Debug("schema already current", slog.String("component", string(kind)))
		return summary, nil
	}
	if version > CurrentSchemaVersion {
		return summary, &apperror.AppError{
			Err: apperror.ErrMigration,
			Message: fmt.Sprintf("%s schema version %d is newer than supported version %d",
				kind, version, CurrentSchemaVersion),
		}
	}

	records, err := r.backend.List(ctx, kind)
	if err != nil {
		return summary, err
	}

	for i := range records {
		rec := &records[i]
		migrated, changed, terr := transformRecord(kind, rec.Data)
		if terr != nil {
			// Log and skip: one corrupt legacy record must not block
			// the app. The original bytes stay recoverable in
			// quarantine under the record's id.
			r.logger.Warn("quarantining unmigratable record",
				slog.String("component", string(kind)),
				slog.String("id", rec.ID),
				slog.String("error", terr.Error()),
			)
			if qerr := r.backend.Quarantine(ctx, kind, rec, terr.Error()); qerr != nil {
				return summary, qerr
			}
			summary.Quarantined++
			continue
		}
		if !changed {
			continue
		}
		if err := r.backend.Put(ctx, kind, &storage.Record{ID: rec.ID, Data: migrated}); err != nil {
			return summary, err
		}
		summary.Migrated++
	}

	if err := r.backend.SetComponentVersion(ctx, kind, CurrentSchemaVersion); err != nil {
		return summary, err
	}

	r.logger.Info("component migrated",
		slog.String("component", string(kind)),
		slog.Int("from_version", version),
		slog.Int("to_version", CurrentSchemaVersion),
		slog.Int("migrated", summary.Migrated),
		slog.Int("quarantined", summary.Quarantined),
	)
	return summary, nil
}
