// Package api implements the Daymark tracking REST API using chi.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkoster/daymark/internal/apperr"
	"github.com/mkoster/daymark/internal/models"
	"github.com/mkoster/daymark/internal/sse"
	"github.com/mkoster/daymark/internal/trackservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *trackservice.Service
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil; save notifications
// are then skipped.
func NewHandler(svc *trackservice.Service, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

// GetDaily handles GET /trackers/daily?date=YYYY-MM-DD. A missing or
// unparsable date falls back to the Eastern reference "today".
func (h *Handler) GetDaily(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.FetchDailySnapshot(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		logError("load daily snapshot failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to load daily snapshot.")
		return
	}
	writeData(w, snap)
}

// GetGlobal handles GET /trackers/global?days=N.
func (h *Handler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be a number.")
			return
		}
		days = n
	}
	snap, err := h.svc.FetchGlobalSnapshot(r.Context(), days)
	if err != nil {
		logError("load global snapshot failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to load global snapshot.")
		return
	}
	writeData(w, snap)
}

// PostDaily handles POST /trackers/daily. The body must carry an updates
// array; anything else is rejected before any storage access.
func (h *Handler) PostDaily(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SaveDailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	updates, err := decodeUpdates(req.Updates)
	if err != nil {
		writeError(w, http.StatusBadRequest, "updates must be an array.")
		return
	}

	snap, err := h.svc.PersistDailyEntries(r.Context(), req.Date, updates)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Invalid updates payload.")
			return
		}
		logError("save daily entries failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to save daily entries.")
		return
	}
	if h.broker != nil && len(updates) > 0 {
		h.broker.PublishEntriesSaved(snap.Date)
	}
	writeData(w, snap)
}

// decodeUpdates enforces the array shape of the updates field. A JSON null
// or absent field fails too, matching the transport contract.
func decodeUpdates(raw json.RawMessage) ([]models.EntryUpdate, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperr.ErrValidation
	}
	var updates []models.EntryUpdate
	if err := json.Unmarshal(trimmed, &updates); err != nil {
		return nil, apperr.ErrValidation
	}
	return updates, nil
}

// logError records failure context server-side. Mapping errors carry the
// offending record id; storage errors carry the backend status and body.
func logError(msg string, err error) {
	attrs := []any{slog.String("error", err.Error())}
	var mapErr *apperr.MappingError
	if errors.As(err, &mapErr) {
		attrs = append(attrs, slog.String("record_id", mapErr.RecordID))
	}
	var storeErr *apperr.StorageError
	if errors.As(err, &storeErr) {
		attrs = append(attrs, slog.Int("status", storeErr.Status))
	}
	slog.Error(msg, attrs...)
}
