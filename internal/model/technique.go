// Package model defines the domain entities and their invariants.
// Validation lives here so every caller (repositories, import, HTTP)
// enforces the same rules.
package model

import (
	"strings"
	"time"
)

// Category classifies a technique. Stored as its display string.
type Category string

const (
	CategorySubmission Category = "Submission"
	CategorySweep      Category = "Sweep"
	CategoryEscape     Category = "Escape"
	CategoryGuardPass  Category = "Guard Pass"
	CategoryTakedown   Category = "Takedown"
	CategoryDefense    Category = "Defense"
	CategoryOther      Category = "Other"
)

// Categories lists every valid technique category, in display order.
var Categories = []Category{
	CategorySubmission,
	CategorySweep,
	CategoryEscape,
	CategoryGuardPass,
	CategoryTakedown,
	CategoryDefense,
	CategoryOther,
}

func (c Category) Valid() bool {
	switch c {
	case CategorySubmission, CategorySweep, CategoryEscape, CategoryGuardPass,
		CategoryTakedown, CategoryDefense, CategoryOther:
		return true
	}
	return false
}

// Validation limits for Technique fields.
const (
	MaxTechniqueNameLength = 100
	MaxTagsPerTechnique    = 10
	MinTagLength           = 2
	MaxTagLength           = 25
	MaxNotesLength         = 2000
)

// Technique is a catalogued move. SessionID is a weak reference to the
// TrainingSession it was learned in; it carries no ownership and may
// point at a session that no longer exists until the next clean pass.
type Technique struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Category  Category  `json:"category" validate:"required,techniquecategory"`
	Tags      []string  `json:"tags" validate:"max=10,unique,dive,min=2,max=25"`
	Notes     string    `json:"notes" validate:"max=2000"`
	CreatedAt time.Time `json:"createdAt"`
	SessionID string    `json:"sessionId,omitempty"`
}

// Normalize trims whitespace and de-duplicates tags case-sensitively,
// preserving first-occurrence order.
func (t *Technique) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Notes = strings.TrimSpace(t.Notes)
	t.Tags = dedupeStrings(trimStrings(t.Tags))
}

// Validate checks every Technique invariant. Returns a validation
// AppError describing the first violation.
func (t *Technique) Validate() error {
	return validateStruct(t)
}
