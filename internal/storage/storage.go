// Package storage defines the persistence backend contract: durable
// record storage keyed by entity kind and id. Implementations own the
// on-disk layout and the schema version markers the migration runner
// consults at startup.
package storage

import "context"

// Kind names one record store. Each kind is versioned independently.
type Kind string

const (
	KindTechniques Kind = "techniques"
	KindSessions   Kind = "sessions"
	KindProfile    Kind = "profile"
	KindTags       Kind = "tags"
)

// Kinds lists every record store, in migration order.
var Kinds = []Kind{KindTechniques, KindSessions, KindProfile, KindTags}

// ProfileRecordID is the fixed id of the singleton profile record.
const ProfileRecordID = "profile"

// Record is one stored document: an opaque JSON payload under a stable
// id. The backend never interprets Data.
type Record struct {
	ID   string
	Data []byte
}

// Backend is the durable record store. Writes are durable before Put
// returns; List reflects every previously successful Put and Delete from
// this process. Read/write failures surface as storage-unavailable
// errors, distinct from not-found. No atomicity across kinds.
type Backend interface {
	Get(ctx context.Context, kind Kind, id string) (*Record, error)
	List(ctx context.Context, kind Kind) ([]Record, error)
	Put(ctx context.Context, kind Kind, rec *Record) error
	Delete(ctx context.Context, kind Kind, id string) error

	// ComponentVersion reports the stored schema version for a kind.
	// A store that has never been stamped reports 0 (legacy).
	ComponentVersion(ctx context.Context, kind Kind) (int, error)
	SetComponentVersion(ctx context.Context, kind Kind, version int) error

	// Quarantine moves a record out of its live store, preserving the
	// original bytes under the original id for later recovery.
	Quarantine(ctx context.Context, kind Kind, rec *Record, reason string) error

	Ping(ctx context.Context) error
	Close() error
}
