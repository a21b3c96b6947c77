package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mkoster/daymark/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS things_to_track (
	id              TEXT PRIMARY KEY,
	label           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	icon            TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL,
	target          REAL,
	unit            TEXT NOT NULL DEFAULT '',
	min_value       REAL,
	max_value       REAL,
	step            REAL,
	default_value   TEXT,
	target_metadata TEXT
);

CREATE TABLE IF NOT EXISTS tracking_entries (
	id          TEXT PRIMARY KEY,
	tracking_id TEXT NOT NULL,
	entry_date  TEXT NOT NULL,
	value       TEXT,
	UNIQUE(tracking_id, entry_date)
);

CREATE INDEX IF NOT EXISTS idx_entries_date ON tracking_entries(entry_date);
`

// SQLite implements Provider against a local database file. The schema
// mirrors the hosted tables so the same row-mapping path applies to both
// backends.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the local database and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close releases the underlying connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// ListThings returns the mapped catalog, ordered by label for stable output.
func (s *SQLite) ListThings(ctx context.Context) ([]models.Thing, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, label, description, icon, type, target, unit,
		       min_value, max_value, step, default_value, target_metadata
		FROM things_to_track
		ORDER BY label
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list things: %w", err)
	}
	defer rows.Close()

	var things []models.Thing
	for rows.Next() {
		var (
			id, label, description, icon, kind string
			unit                               string
			target, minVal, maxVal, step       sql.NullFloat64
			defaultValue, metadata             sql.NullString
		)
		if err := rows.Scan(&id, &label, &description, &icon, &kind, &target,
			&unit, &minVal, &maxVal, &step, &defaultValue, &metadata); err != nil {
			return nil, fmt.Errorf("storage: scan thing: %w", err)
		}
		row := Row{
			"id":          id,
			"label":       label,
			"description": description,
			"icon":        icon,
			"type":        kind,
			"unit":        unit,
		}
		if target.Valid {
			row["target"] = target.Float64
		}
		if minVal.Valid {
			row["min_value"] = minVal.Float64
		}
		if maxVal.Valid {
			row["max_value"] = maxVal.Float64
		}
		if step.Valid {
			row["step"] = step.Float64
		}
		if defaultValue.Valid {
			row["default_value"] = defaultValue.String
		}
		if metadata.Valid && metadata.String != "" {
			row["target_metadata"] = metadata.String
		}
		t, err := MapThing(row)
		if err != nil {
			return nil, err
		}
		things = append(things, t)
	}
	return things, rows.Err()
}

// ListEntriesForDate returns raw entry rows recorded on date.
func (s *SQLite) ListEntriesForDate(ctx context.Context, date string) ([]Row, error) {
	return s.queryEntries(ctx, `
		SELECT id, tracking_id, entry_date, value
		FROM tracking_entries
		WHERE entry_date = ?
	`, date)
}

// ListEntriesSince returns raw entry rows with date >= start, ascending.
func (s *SQLite) ListEntriesSince(ctx context.Context, start string) ([]Row, error) {
	return s.queryEntries(ctx, `
		SELECT id, tracking_id, entry_date, value
		FROM tracking_entries
		WHERE entry_date >= ?
		ORDER BY entry_date ASC
	`, start)
}

func (s *SQLite) queryEntries(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list entries: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id, thingID, date string
		var value sql.NullString
		if err := rows.Scan(&id, &thingID, &date, &value); err != nil {
			return nil, fmt.Errorf("storage: scan entry: %w", err)
		}
		row := Row{
			"id":          id,
			"tracking_id": thingID,
			"entry_date":  date,
		}
		if value.Valid {
			row["value"] = value.String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PersistEntries batch-upserts entry rows in one transaction, deduplicating
// on (tracking_id, entry_date). New rows get generated ids.
func (s *SQLite) PersistEntries(ctx context.Context, upserts []EntryUpsert) error {
	if len(upserts) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracking_entries (id, tracking_id, entry_date, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tracking_id, entry_date) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("storage: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, u := range upserts {
		id := u.ID
		if id == "" {
			id = uuid.NewString()
		}
		var value any
		if u.Value != nil {
			value = *u.Value
		}
		if _, err := stmt.ExecContext(ctx, id, u.ThingID, u.Date, value); err != nil {
			return fmt.Errorf("storage: upsert entry %s/%s: %w", u.ThingID, u.Date, err)
		}
	}
	return tx.Commit()
}

// InsertThing provisions a catalog row. The core never calls this; it exists
// for local setup and tests, taking the same loose row shape the mapper reads.
func (s *SQLite) InsertThing(ctx context.Context, row Row) error {
	var metadata any
	if m, ok := row["target_metadata"]; ok {
		switch v := m.(type) {
		case string:
			metadata = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("storage: encode metadata: %w", err)
			}
			metadata = string(b)
		}
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO things_to_track
			(id, label, description, icon, type, target, unit,
			 min_value, max_value, step, default_value, target_metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label           = excluded.label,
			description     = excluded.description,
			icon            = excluded.icon,
			type            = excluded.type,
			target          = excluded.target,
			unit            = excluded.unit,
			min_value       = excluded.min_value,
			max_value       = excluded.max_value,
			step            = excluded.step,
			default_value   = excluded.default_value,
			target_metadata = excluded.target_metadata
	`,
		row["id"], row["label"], row["description"], row["icon"], row["type"],
		row["target"], row["unit"], row["min_value"], row["max_value"],
		row["step"], row["default_value"], metadata)
	if err != nil {
		return fmt.Errorf("storage: insert thing: %w", err)
	}
	return nil
}
