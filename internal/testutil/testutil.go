// Package testutil provides shared test helpers: an in-memory row store,
// a pinned clock, and a temporary SQLite database.
package testutil

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mkoster/daymark/internal/models"
	"github.com/mkoster/daymark/internal/storage"
)

// FixedTime is a stable reference instant: 2024-03-10 12:00 UTC, which is
// 2024-03-10 in US Eastern (the DST spring-forward day, deliberately).
var FixedTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// Clock returns a now-func pinned to FixedTime.
func Clock() func() time.Time {
	return func() time.Time { return FixedTime }
}

// MemStore is an in-memory storage.Provider with supabase-shaped rows and
// (tracking_id, entry_date) upsert semantics. Safe for concurrent use.
type MemStore struct {
	mu sync.Mutex

	ThingRows []storage.Row
	Entries   []storage.Row

	// Err, when set, is returned by every call.
	Err error

	// Call counters for asserting fetch/write behavior.
	ListThingsCalls  int
	ListForDateCalls int
	ListSinceCalls   int
	PersistCalls     int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// AddThing appends a catalog row.
func (m *MemStore) AddThing(row storage.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ThingRows = append(m.ThingRows, row)
}

// ListThings maps the catalog rows.
func (m *MemStore) ListThings(context.Context) ([]models.Thing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListThingsCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	things := make([]models.Thing, 0, len(m.ThingRows))
	for _, row := range m.ThingRows {
		t, err := storage.MapThing(row)
		if err != nil {
			return nil, err
		}
		things = append(things, t)
	}
	return things, nil
}

// ListEntriesForDate filters entries by exact date.
func (m *MemStore) ListEntriesForDate(_ context.Context, date string) ([]storage.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListForDateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []storage.Row
	for _, row := range m.Entries {
		if storage.EntryDate(row) == date {
			out = append(out, row)
		}
	}
	return out, nil
}

// ListEntriesSince filters entries by date >= start, ascending.
func (m *MemStore) ListEntriesSince(_ context.Context, start string) ([]storage.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListSinceCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []storage.Row
	for _, row := range m.Entries {
		if storage.EntryDate(row) >= start {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return storage.EntryDate(out[i]) < storage.EntryDate(out[j])
	})
	return out, nil
}

// PersistEntries upserts on (tracking_id, entry_date).
func (m *MemStore) PersistEntries(_ context.Context, upserts []storage.EntryUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if len(upserts) == 0 {
		return nil
	}
	m.PersistCalls++
	for _, u := range upserts {
		row := storage.Row{
			"tracking_id": u.ThingID,
			"entry_date":  u.Date,
		}
		if u.ID != "" {
			row["id"] = u.ID
		}
		if u.Value != nil {
			row["value"] = *u.Value
		}
		replaced := false
		for i, existing := range m.Entries {
			if storage.EntryThingID(existing) == u.ThingID && storage.EntryDate(existing) == u.Date {
				if id := storage.EntryRowID(existing); id != "" && u.ID == "" {
					row["id"] = id
				}
				m.Entries[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			m.Entries = append(m.Entries, row)
		}
	}
	return nil
}

// EntryCount returns the number of stored entry rows.
func (m *MemStore) EntryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

var _ storage.Provider = (*MemStore)(nil)

// TestDB creates a temporary SQLite-backed store that is cleaned up
// automatically.
func TestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "daymark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CheckboxThing returns a minimal checkbox catalog row.
func CheckboxThing(id string, def bool) storage.Row {
	return storage.Row{
		"id":            id,
		"label":         id,
		"type":          "checkbox",
		"default_value": def,
	}
}

// CounterThing returns a minimal counter catalog row with a target.
func CounterThing(id string, target, def float64) storage.Row {
	return storage.Row{
		"id":            id,
		"label":         id,
		"type":          "counter",
		"target":        target,
		"default_value": def,
	}
}
