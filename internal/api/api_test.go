package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkoster/daymark/internal/snapshot"
	"github.com/mkoster/daymark/internal/testutil"
	"github.com/mkoster/daymark/internal/trackservice"
)

// testEnv builds a router over an in-memory store with a pinned clock
// ("today" is 2024-03-10 Eastern).
func testEnv(t *testing.T) (*testutil.MemStore, http.Handler) {
	t.Helper()
	store := testutil.NewMemStore()
	store.AddThing(testutil.CounterThing("water", 8, 0))
	store.AddThing(testutil.CheckboxThing("gym", false))
	svc := trackservice.New(store, 30, testutil.Clock())
	return store, NewRouter(svc, nil, nil)
}

type dailyEnvelope struct {
	OK    bool                   `json:"ok"`
	Data  snapshot.DailySnapshot `json:"data"`
	Error string                 `json:"error"`
}

type globalEnvelope struct {
	OK   bool                    `json:"ok"`
	Data snapshot.GlobalSnapshot `json:"data"`
}

func TestGetDaily(t *testing.T) {
	_, router := testEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/trackers/daily?date=2024-03-10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp dailyEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK {
		t.Fatal("ok = false")
	}
	if resp.Data.Date != "2024-03-10" {
		t.Errorf("date = %q", resp.Data.Date)
	}
	if len(resp.Data.Trackers) != 2 {
		t.Fatalf("trackers = %d, want 2", len(resp.Data.Trackers))
	}
}

func TestGetDaily_DefaultsToToday(t *testing.T) {
	_, router := testEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/trackers/daily", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp dailyEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Date != "2024-03-10" {
		t.Errorf("date = %q, want pinned today", resp.Data.Date)
	}
}

func TestPostDaily_RoundTrip(t *testing.T) {
	_, router := testEnv(t)

	body, _ := json.Marshal(map[string]any{
		"date": "2024-03-10",
		"updates": []map[string]any{
			{"thingId": "water", "value": 5},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/trackers/daily", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// Fetch the snapshot again; the write must be observable.
	req = httptest.NewRequest(http.MethodGet, "/trackers/daily?date=2024-03-10", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dailyEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	found := false
	for _, tr := range resp.Data.Trackers {
		if tr.ID == "water" {
			found = true
			if tr.Value != 5.0 {
				t.Errorf("water value = %v, want 5", tr.Value)
			}
		}
	}
	if !found {
		t.Fatal("water tracker missing")
	}
}

func TestPostDaily_UpdatesMustBeArray(t *testing.T) {
	_, router := testEnv(t)

	for _, body := range []string{
		`{"date":"2024-03-10"}`,
		`{"date":"2024-03-10","updates":null}`,
		`{"date":"2024-03-10","updates":"water=5"}`,
		`{"date":"2024-03-10","updates":{"thingId":"water"}}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/trackers/daily", bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestPostDaily_InvalidJSON(t *testing.T) {
	_, router := testEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/trackers/daily", bytes.NewReader([]byte("{nope")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPostDaily_EmptyUpdatesIsARead(t *testing.T) {
	store, router := testEnv(t)

	// Seed the day first.
	req := httptest.NewRequest(http.MethodGet, "/trackers/daily?date=2024-03-10", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)
	writes := store.PersistCalls

	body := []byte(`{"date":"2024-03-10","updates":[]}`)
	req = httptest.NewRequest(http.MethodPost, "/trackers/daily", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if store.PersistCalls != writes {
		t.Errorf("empty updates issued a write")
	}
}

func TestGetGlobal(t *testing.T) {
	_, router := testEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/trackers/global?days=7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp globalEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Trackers) != 2 {
		t.Fatalf("trackers = %d", len(resp.Data.Trackers))
	}
	if len(resp.Data.Trackers[0].History) != 7 {
		t.Errorf("history = %d, want 7", len(resp.Data.Trackers[0].History))
	}
}

func TestGetGlobal_BadDays(t *testing.T) {
	_, router := testEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/trackers/global?days=soon", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStorageFailureIsSanitized(t *testing.T) {
	store, router := testEnv(t)
	store.Err = &failErr{}

	req := httptest.NewRequest(http.MethodGet, "/trackers/daily", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp dailyEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.OK {
		t.Error("ok should be false")
	}
	if resp.Error != "Failed to load daily snapshot." {
		t.Errorf("error = %q, internals must not leak", resp.Error)
	}
}

type failErr struct{}

func (*failErr) Error() string { return "connection refused to 10.0.0.3" }
