// Package exchange serializes the full data set to a single interchange
// document and restores it. The document is the manual-backup format; it
// is written to a file by the CLI and served verbatim over HTTP.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/repository"
)

// FormatVersion is the interchange document revision this build produces
// and accepts.
const FormatVersion = 1

// Document is the interchange envelope for a full backup.
type Document struct {
	FormatVersion int                     `json:"formatVersion"`
	ExportID      string                  `json:"exportId"`
	ExportedAt    time.Time               `json:"exportedAt"`
	Profile       *model.UserProfile      `json:"profile"`
	Techniques    []model.Technique       `json:"techniques"`
	Sessions      []model.TrainingSession `json:"sessions"`
	Tags          []model.Tag             `json:"tags"`
}

// ImportSummary reports the outcome of restoring a document. A bad record
// is counted and described without aborting the rest.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// Exchanger reads exports through the facade and writes imports through
// the repositories, so imported records get full validation and the tag
// registry rebuilds itself from technique adoption.
type Exchanger struct {
	svc        facade.Service
	techniques repository.TechniqueRepository
	sessions   repository.SessionRepository
	profile    repository.ProfileRepository
	logger     *slog.Logger
}

// New creates an Exchanger over the given facade and repositories.
func New(
	svc facade.Service,
	techniques repository.TechniqueRepository,
	sessions repository.SessionRepository,
	profile repository.ProfileRepository,
	logger *slog.Logger,
) *Exchanger {
	return &Exchanger{
		svc:        svc,
		techniques: techniques,
		sessions:   sessions,
		profile:    profile,
		logger:     logger,
	}
}

// Export assembles a full-dataset document.
func (e *Exchanger) Export(ctx context.Context) (*Document, error) {
	profile, err := e.svc.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange: reading profile: %w", err)
	}
	techniques, err := e.svc.GetTechniques(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange: reading techniques: %w", err)
	}
	sessions, err := e.svc.GetSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange: reading sessions: %w", err)
	}
	tags, err := e.svc.GetTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange: reading tags: %w", err)
	}

	doc := &Document{
		FormatVersion: FormatVersion,
		ExportID:      uuid.NewString(),
		ExportedAt:    time.Now().UTC(),
		Profile:       profile,
		Techniques:    techniques,
		Sessions:      sessions,
		Tags:          tags,
	}
	e.logger.Info("dataset exported",
		slog.String("exportId", doc.ExportID),
		slog.Int("techniques", len(doc.Techniques)),
		slog.Int("sessions", len(doc.Sessions)))
	return doc, nil
}

// Import restores a document record by record. The envelope must carry a
// supported format version; individual record failures are collected into
// the summary rather than aborting the run.
func (e *Exchanger) Import(ctx context.Context, doc *Document) (*ImportSummary, error) {
	if doc.FormatVersion != FormatVersion {
		return nil, apperror.ValidationFailed("formatVersion",
			fmt.Sprintf("unsupported format version %d, this build reads version %d", doc.FormatVersion, FormatVersion))
	}

	summary := &ImportSummary{Errors: []string{}}

	if doc.Profile != nil {
		profile := *doc.Profile
		if _, err := e.profile.Save(ctx, &profile); err != nil {
			summary.fail(fmt.Sprintf("profile: %v", err))
		} else {
			summary.Imported++
		}
	}

	for i := range doc.Techniques {
		technique := doc.Techniques[i]
		if _, err := e.techniques.Save(ctx, &technique); err != nil {
			summary.fail(fmt.Sprintf("technique %s: %v", describeID(technique.ID, technique.Name), err))
			continue
		}
		summary.Imported++
	}

	for i := range doc.Sessions {
		session := doc.Sessions[i]
		if _, err := e.sessions.Save(ctx, &session); err != nil {
			summary.fail(fmt.Sprintf("session %s: %v", describeID(session.ID, session.Location), err))
			continue
		}
		summary.Imported++
	}

	e.logger.Info("dataset imported",
		slog.String("exportId", doc.ExportID),
		slog.Int("imported", summary.Imported),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// WriteFile exports the data set to an indented JSON file.
func (e *Exchanger) WriteFile(ctx context.Context, path string) error {
	doc, err := e.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("exchange: encoding document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("exchange: writing %s: %w", path, err)
	}
	return nil
}

// ReadFile imports a previously exported JSON file.
func (e *Exchanger) ReadFile(ctx context.Context, path string) (*ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exchange: reading %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperror.ValidationFailed("document", fmt.Sprintf("not a valid interchange document: %v", err))
	}
	return e.Import(ctx, &doc)
}

func (s *ImportSummary) fail(msg string) {
	s.Failed++
	s.Errors = append(s.Errors, msg)
}

func describeID(id, fallback string) string {
	if id != "" {
		return id
	}
	if fallback != "" {
		return fmt.Sprintf("%q", fallback)
	}
	return "(no id)"
}
