// Package facade defines the versioned access surface the rest of the
// application is written against. Consumers depend on the Service
// interface rather than the repositories so that calls can be routed to
// a remote backend later without touching caller code.
package facade

import (
	"context"

	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

const (
	// ProtocolVersion tags every call that crosses the facade boundary.
	ProtocolVersion = "v1"

	// ClientVersion identifies this build during compatibility negotiation.
	ClientVersion = "1.0.0"
)

// Health reports the state of whichever backend is currently serving calls.
type Health struct {
	Status  string `json:"status"`
	IsLocal bool   `json:"isLocal"`
	Version string `json:"version"`
}

// Compatibility is the outcome of protocol negotiation with a backend.
type Compatibility struct {
	Compatible      bool `json:"compatible"`
	UpgradeRequired bool `json:"upgradeRequired"`
}

// Service mirrors the repository operations plus health and compatibility
// checks. All implementations must map failures onto the apperror taxonomy.
type Service interface {
	GetTechniques(ctx context.Context) ([]model.Technique, error)
	SaveTechnique(ctx context.Context, technique *model.Technique) (*model.Technique, error)
	DeleteTechnique(ctx context.Context, id string) error

	GetSessions(ctx context.Context) ([]model.TrainingSession, error)
	SaveSession(ctx context.Context, session *model.TrainingSession) (*model.TrainingSession, error)
	DeleteSession(ctx context.Context, id string) error

	GetProfile(ctx context.Context) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error)

	GetTags(ctx context.Context) ([]model.Tag, error)

	HealthCheck(ctx context.Context) (*Health, error)
	CheckCompatibility(ctx context.Context) (*Compatibility, error)
}
