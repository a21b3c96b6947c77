package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkoster/daymark/internal/apperr"
)

func TestNewSupabase_RequiresCredentials(t *testing.T) {
	if _, err := NewSupabase("", "key", "things", "entries"); err == nil {
		t.Error("empty url should fail")
	}
	if _, err := NewSupabase("https://x.supabase.co", "  ", "things", "entries"); err == nil {
		t.Error("blank key should fail")
	}
}

func TestSupabase_ListThings(t *testing.T) {
	var gotAuth, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		if r.URL.Path != "/rest/v1/things_to_track" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("select") != "*" {
			t.Errorf("select = %s", r.URL.Query().Get("select"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "water", "label": "Water", "type": "counter", "target": 8, "default_value": 0},
		})
	}))
	defer srv.Close()

	sb, err := NewSupabase(srv.URL, "secret", "things_to_track", "tracking_entries")
	if err != nil {
		t.Fatal(err)
	}
	things, err := sb.ListThings(context.Background())
	if err != nil {
		t.Fatalf("ListThings: %v", err)
	}
	if gotAuth != "Bearer secret" || gotAPIKey != "secret" {
		t.Errorf("auth headers = %q / %q", gotAuth, gotAPIKey)
	}
	if len(things) != 1 || things[0].ID != "water" {
		t.Fatalf("things = %+v", things)
	}
	if things[0].Target == nil || *things[0].Target != 8 {
		t.Errorf("target = %v", things[0].Target)
	}
}

func TestSupabase_EntryFilters(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.String())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	sb, _ := NewSupabase(srv.URL, "k", "things_to_track", "tracking_entries")
	ctx := context.Background()

	if _, err := sb.ListEntriesForDate(ctx, "2024-03-10"); err != nil {
		t.Fatal(err)
	}
	if _, err := sb.ListEntriesSince(ctx, "2024-03-04"); err != nil {
		t.Fatal(err)
	}

	if len(paths) != 2 {
		t.Fatalf("requests = %d", len(paths))
	}
	forDate, since := paths[0], paths[1]
	if want := "entry_date=eq.2024-03-10"; !containsQuery(forDate, want) {
		t.Errorf("for-date url %q missing %q", forDate, want)
	}
	if want := "entry_date=gte.2024-03-04"; !containsQuery(since, want) {
		t.Errorf("since url %q missing %q", since, want)
	}
	if want := "order=entry_date.asc"; !containsQuery(since, want) {
		t.Errorf("since url %q missing %q", since, want)
	}
}

func TestSupabase_PersistEntries(t *testing.T) {
	var gotPrefer string
	var gotBody []EntryUpsert
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotPrefer = r.Header.Get("Prefer")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sb, _ := NewSupabase(srv.URL, "k", "things_to_track", "tracking_entries")
	ctx := context.Background()

	// Empty batch: no request at all.
	if err := sb.PersistEntries(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if requests != 0 {
		t.Fatalf("empty persist issued %d requests", requests)
	}

	v := "5"
	if err := sb.PersistEntries(ctx, []EntryUpsert{
		{ThingID: "water", Date: "2024-03-10", Value: &v},
	}); err != nil {
		t.Fatal(err)
	}
	if gotPrefer != "resolution=merge-duplicates" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
	if len(gotBody) != 1 || gotBody[0].ThingID != "water" || *gotBody[0].Value != "5" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestSupabase_NonSuccessIsStorageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	sb, _ := NewSupabase(srv.URL, "k", "things_to_track", "tracking_entries")
	_, err := sb.ListThings(context.Background())
	var storeErr *apperr.StorageError
	if !errors.As(err, &storeErr) {
		t.Fatalf("err = %v, want StorageError", err)
	}
	if storeErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", storeErr.Status)
	}
	if storeErr.Body == "" {
		t.Error("expected backend body to be captured")
	}
}

func containsQuery(url, fragment string) bool {
	return strings.Contains(url, fragment)
}
