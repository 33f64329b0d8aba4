package model

import (
	"strings"
	"time"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
)

// SessionType is the kind of training a session logged.
type SessionType string

const (
	SessionGi        SessionType = "gi"
	SessionNoGi      SessionType = "nogi"
	SessionOpenMat   SessionType = "open-mat"
	SessionWrestling SessionType = "wrestling"
)

// SessionTypes lists every valid session type.
var SessionTypes = []SessionType{SessionGi, SessionNoGi, SessionOpenMat, SessionWrestling}

func (s SessionType) Valid() bool {
	switch s {
	case SessionGi, SessionNoGi, SessionOpenMat, SessionWrestling:
		return true
	}
	return false
}

const (
	MaxLocationLength = 120
	MinSatisfaction   = 1
	MaxSatisfaction   = 5
)

// TrainingSession is one logged visit to the mats. Submissions is the
// ordered list as entered (repeats allowed); SubmissionCounts caches the
// per-name occurrence counts and must stay consistent with Submissions.
// TechniqueIDs are weak references and never imply ownership.
type TrainingSession struct {
	ID               string         `json:"id"`
	Date             time.Time      `json:"date" validate:"required"`
	Location         string         `json:"location" validate:"max=120"`
	Type             SessionType    `json:"type" validate:"required,sessiontype"`
	Submissions      []string       `json:"submissions"`
	SubmissionCounts map[string]int `json:"submissionCounts"`
	Notes            string         `json:"notes" validate:"max=2000"`
	Satisfaction     int            `json:"satisfaction" validate:"min=1,max=5"`
	TechniqueIDs     []string       `json:"techniqueIds"`
}

// NewSubmissionCounts derives the occurrence-count map for a submissions
// list. Callers building a session by hand should use this rather than
// assembling the map themselves.
func NewSubmissionCounts(submissions []string) map[string]int {
	if len(submissions) == 0 {
		return nil
	}
	counts := make(map[string]int, len(submissions))
	for _, name := range submissions {
		counts[name]++
	}
	return counts
}

// Normalize trims free-text fields and de-duplicates TechniqueIDs.
// Submissions keeps its repeats; only surrounding whitespace is removed.
func (s *TrainingSession) Normalize() {
	s.Location = strings.TrimSpace(s.Location)
	s.Notes = strings.TrimSpace(s.Notes)
	s.Submissions = trimStrings(s.Submissions)
	s.TechniqueIDs = dedupeStrings(s.TechniqueIDs)
}

// Validate checks the struct-level invariants, then the cross-field one:
// SubmissionCounts keys must be exactly the de-duplicated contents of
// Submissions, each mapped to its occurrence count.
func (s *TrainingSession) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	want := NewSubmissionCounts(s.Submissions)
	if len(s.SubmissionCounts) != len(want) {
		return apperror.ValidationFailed("submissionCounts",
			"submissionCounts keys must match the submissions list")
	}
	for name, n := range want {
		if s.SubmissionCounts[name] != n {
			return apperror.ValidationFailed("submissionCounts",
				"submissionCounts must reflect submission occurrence counts")
		}
	}
	return nil
}
