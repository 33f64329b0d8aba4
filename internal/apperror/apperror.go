package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMigration          = errors.New("migration failed")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// StorageUnavailable wraps a backend read/write failure. Distinct from
// NotFound: the record may exist but the store cannot be reached.
func StorageUnavailable(op string, err error) *AppError {
	return &AppError{
		Err:     ErrStorageUnavailable,
		Message: fmt.Sprintf("storage unavailable during %s: %v", op, err),
	}
}

// MigrationFailed marks a legacy record that could not be transformed.
// Logged and quarantined by the migration runner, never returned from
// normal reads.
func MigrationFailed(component, id string, err error) *AppError {
	return &AppError{
		Err:     ErrMigration,
		Message: fmt.Sprintf("migrating %s record %s: %v", component, id, err),
	}
}
