// Package storage abstracts the tabular row store holding the tracker
// catalog and daily entries, and maps its loosely-shaped rows onto the
// domain types.
package storage

import (
	"context"

	"github.com/mkoster/daymark/internal/models"
)

// Row is one opaque storage row as decoded from the backend. Column naming
// drifted across schema generations, so rows stay loosely typed until the
// mapper resolves them.
type Row map[string]any

// EntryUpsert is the write-side shape of an entry row. ID is carried only
// when an existing row is being replaced, preserving storage-level identity.
// Value is the serialized string form; nil writes a NULL.
type EntryUpsert struct {
	ID      string  `json:"id,omitempty"`
	ThingID string  `json:"tracking_id"`
	Date    string  `json:"entry_date"`
	Value   *string `json:"value"`
}

// Provider is the row-store contract the core depends on. Implementations
// upsert on (tracking_id, entry_date); persisting an empty batch is a no-op.
type Provider interface {
	// ListThings returns the full tracker catalog, mapped to domain records.
	ListThings(ctx context.Context) ([]models.Thing, error)
	// ListEntriesForDate returns raw entry rows recorded on date.
	ListEntriesForDate(ctx context.Context, date string) ([]Row, error)
	// ListEntriesSince returns raw entry rows with date >= start, ascending.
	ListEntriesSince(ctx context.Context, start string) ([]Row, error)
	// PersistEntries batch-upserts entry rows, deduplicating on
	// (tracking_id, entry_date).
	PersistEntries(ctx context.Context, rows []EntryUpsert) error
}
