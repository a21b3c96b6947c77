// Package apperr defines the error taxonomy shared across the service.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDefault is returned when a Thing has no configured default
	// value. Defaults are provisioned with the catalog; their absence is a
	// configuration problem, not a runtime one.
	ErrMissingDefault = errors.New("thing is missing a configured default value")

	// ErrValidation is returned for malformed client input, before any
	// storage access happens.
	ErrValidation = errors.New("invalid input")
)

// MappingError reports a stored row that cannot be coerced to its declared
// type. It carries the offending record's id for logging; the id is never
// sent to clients.
type MappingError struct {
	RecordID string
	Reason   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping record %s: %s", e.RecordID, e.Reason)
}

// StorageError reports a non-success response from the storage backend.
type StorageError struct {
	Status int
	Body   string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage backend returned %d: %s", e.Status, e.Body)
}
