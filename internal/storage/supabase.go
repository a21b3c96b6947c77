package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mkoster/daymark/internal/apperr"
	"github.com/mkoster/daymark/internal/models"
)

// Supabase implements Provider against a hosted PostgREST row store.
// The core performs no retries; a failed call propagates to the caller.
type Supabase struct {
	client       *http.Client
	baseURL      string
	key          string
	thingsTable  string
	entriesTable string
}

// NewSupabase creates a PostgREST-backed provider. URL and key are required;
// their absence is a startup-time configuration error, not a per-request one.
func NewSupabase(baseURL, key, thingsTable, entriesTable string) (*Supabase, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("storage: supabase url and service key are required")
	}
	return &Supabase{
		client:       &http.Client{},
		baseURL:      strings.TrimRight(baseURL, "/"),
		key:          key,
		thingsTable:  thingsTable,
		entriesTable: entriesTable,
	}, nil
}

func (s *Supabase) endpoint(table string, params url.Values) string {
	u := s.baseURL + "/rest/v1/" + table
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// doJSON issues a request with the PostgREST auth headers and decodes the
// JSON response into out (skipped when out is nil or the body is empty).
// Non-2xx statuses become a StorageError carrying status and body.
func (s *Supabase) doJSON(ctx context.Context, method, url string, body []byte, extra http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("storage: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.StorageError{Status: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("storage: decode response: %w", err)
	}
	return nil
}

// ListThings fetches and maps the full catalog.
func (s *Supabase) ListThings(ctx context.Context) ([]models.Thing, error) {
	params := url.Values{"select": {"*"}}
	var rows []Row
	if err := s.doJSON(ctx, http.MethodGet, s.endpoint(s.thingsTable, params), nil, nil, &rows); err != nil {
		return nil, err
	}
	things := make([]models.Thing, 0, len(rows))
	for _, row := range rows {
		t, err := MapThing(row)
		if err != nil {
			return nil, err
		}
		things = append(things, t)
	}
	return things, nil
}

// ListEntriesForDate returns raw entry rows recorded on date.
func (s *Supabase) ListEntriesForDate(ctx context.Context, date string) ([]Row, error) {
	params := url.Values{
		"select":     {"*"},
		"entry_date": {"eq." + date},
	}
	var rows []Row
	if err := s.doJSON(ctx, http.MethodGet, s.endpoint(s.entriesTable, params), nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEntriesSince returns raw entry rows with date >= start, ascending.
func (s *Supabase) ListEntriesSince(ctx context.Context, start string) ([]Row, error) {
	params := url.Values{
		"select":     {"*"},
		"entry_date": {"gte." + start},
		"order":      {"entry_date.asc"},
	}
	var rows []Row
	if err := s.doJSON(ctx, http.MethodGet, s.endpoint(s.entriesTable, params), nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// PersistEntries batch-upserts entry rows. PostgREST's merge-duplicates
// resolution dedups on the (tracking_id, entry_date) unique constraint.
func (s *Supabase) PersistEntries(ctx context.Context, rows []EntryUpsert) error {
	if len(rows) == 0 {
		return nil
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("storage: encode upsert: %w", err)
	}
	extra := http.Header{"Prefer": {"resolution=merge-duplicates"}}
	return s.doJSON(ctx, http.MethodPost, s.endpoint(s.entriesTable, nil), body, extra, nil)
}
