package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

// decodeStrict unmarshals a stored record into v, failing closed on any
// shape mismatch: unknown fields, malformed values, trailing garbage.
// A record that does not match the current schema is a validation error,
// never a silently partial entity.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.ValidationFailed("",
			fmt.Sprintf("stored record does not match the current schema: %v", err))
	}
	if dec.More() {
		return apperror.ValidationFailed("", "stored record has trailing data")
	}
	return nil
}

// encodeRecord marshals a domain value into its stored record.
func encodeRecord(id string, v any) (*storage.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record %s: %w", id, err)
	}
	return &storage.Record{ID: id, Data: data}, nil
}
