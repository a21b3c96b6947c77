package api

import (
	"encoding/json"

	"github.com/mkoster/daymark/internal/snapshot"
)

// SaveDailyRequest is the request body for POST /trackers/daily. Updates is
// kept raw until its shape has been checked: a missing or non-array value is
// a 400, not a silent empty write.
type SaveDailyRequest struct {
	Date    string          `json:"date"`
	Updates json.RawMessage `json:"updates"`
}

// DailySnapshot is the daily payload (aliased from the engine).
type DailySnapshot = snapshot.DailySnapshot

// GlobalSnapshot is the rolling-history payload (aliased from the engine).
type GlobalSnapshot = snapshot.GlobalSnapshot
