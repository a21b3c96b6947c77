// Package models defines the domain types for Daymark.
package models

import "fmt"

// Kind is the closed set of tracker types. Every Value Model decision
// (default, status, coercion, display) switches exhaustively on it.
type Kind string

const (
	KindCounter  Kind = "counter"
	KindCheckbox Kind = "checkbox"
	KindScale    Kind = "scale"
	KindText     Kind = "text"
)

// ParseKind validates a stored type tag against the closed Kind set.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCounter, KindCheckbox, KindScale, KindText:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown tracker type %q", s)
	}
}

// Status is the computed per-day outcome for a tracker. It is derived,
// never stored.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusMissed   Status = "missed"
)

// Thing is a user-defined trackable item. The catalog is created and edited
// externally; the core only reads it.
//
// DefaultValue is type-appropriate (bool for checkbox, string for text,
// float64 for counter/scale) and may legitimately be nil. HasDefault
// distinguishes "configured as null" from "never configured": the latter is
// a provisioning error surfaced as apperr.ErrMissingDefault when the default
// is needed.
type Thing struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Description  string   `json:"description"`
	Icon         string   `json:"icon"`
	Kind         Kind     `json:"type"`
	Target       *float64 `json:"target"`
	Unit         string   `json:"unit"`
	Min          *float64 `json:"min"`
	Max          *float64 `json:"max"`
	Step         float64  `json:"step"`
	DefaultValue any      `json:"defaultValue"`
	HasDefault   bool     `json:"-"`
}

// Entry is one recorded value for a Thing on a specific date. At most one
// entry exists per (ThingID, Date); that pair is the dedup key for upserts.
type Entry struct {
	ThingID string
	Date    string // ISO YYYY-MM-DD
	Value   any
}

// EntryUpdate is one client-submitted value for a Thing on the request date.
type EntryUpdate struct {
	ThingID string `json:"thingId"`
	Value   any    `json:"value"`
}
