// Package snapshot reconciles the tracker catalog against sparse daily
// entries: it seeds missing days with defaults, computes per-day completion
// status, and rolls a history window up into a summary.
package snapshot

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkoster/daymark/internal/dates"
	"github.com/mkoster/daymark/internal/models"
	"github.com/mkoster/daymark/internal/storage"
	"github.com/mkoster/daymark/internal/tracker"
)

// recentWindow is the number of trailing history days counted as "recent"
// for the wins summary.
const recentWindow = 7

// DailySnapshot is the derived view for a single date. Not persisted.
type DailySnapshot struct {
	Date     string             `json:"date"`
	Trackers []TrackerDailyView `json:"trackers"`
}

// TrackerDailyView carries a Thing's display attributes plus its resolved
// value and default for the snapshot date.
type TrackerDailyView struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	Description  string      `json:"description"`
	Icon         string      `json:"icon"`
	Kind         models.Kind `json:"type"`
	Target       *float64    `json:"target"`
	Unit         string      `json:"unit"`
	Min          *float64    `json:"min"`
	Max          *float64    `json:"max"`
	Step         float64     `json:"step"`
	Value        any         `json:"value"`
	DefaultValue any         `json:"defaultValue"`
}

// GlobalSnapshot is the derived rolling-history view. Not persisted.
type GlobalSnapshot struct {
	Trackers []TrackerHistoryView `json:"trackers"`
}

// TrackerHistoryView carries one Thing's lookback history and summary.
type TrackerHistoryView struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Kind        models.Kind    `json:"type"`
	Target      *float64       `json:"target"`
	Unit        string         `json:"unit"`
	History     []HistoryPoint `json:"history"`
	Summary     Summary        `json:"summary"`
}

// HistoryPoint is one day in a tracker's history window.
type HistoryPoint struct {
	Date         string        `json:"date"`
	Status       models.Status `json:"status"`
	Value        any           `json:"value"`
	NumericValue *float64      `json:"numericValue"`
}

// Summary aggregates a tracker's history window.
type Summary struct {
	RecentWins     int `json:"recentWins"`
	CompletionRate int `json:"completionRate"`
}

// Engine computes snapshots over a storage provider. It holds no mutable
// state; each call is an independent read-reconcile-write pass.
type Engine struct {
	store storage.Provider
	now   func() time.Time
}

// New creates an Engine. now may be nil, in which case time.Now is used;
// tests inject a fixed instant to pin the Eastern reference date.
func New(store storage.Provider, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, now: now}
}

// Daily builds the payload for a single date. Things without an entry are
// seeded with their default value and persisted in one batch before the
// response is constructed; the (thingId, date) upsert key makes the seeding
// idempotent under repeated or concurrent calls.
func (e *Engine) Daily(ctx context.Context, date string) (*DailySnapshot, error) {
	var (
		things  []models.Thing
		entries []storage.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		things, err = e.store.ListThings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = e.store.ListEntriesForDate(gctx, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byThing := make(map[string]storage.Row, len(entries))
	for _, row := range entries {
		byThing[storage.EntryThingID(row)] = row
	}

	var seeds []storage.EntryUpsert
	for _, t := range things {
		if _, ok := byThing[t.ID]; ok {
			continue
		}
		value, err := tracker.DefaultValue(t)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, storage.EntryUpsert{
			ThingID: t.ID,
			Date:    date,
			Value:   serialize(value),
		})
	}
	if len(seeds) > 0 {
		if err := e.store.PersistEntries(ctx, seeds); err != nil {
			return nil, err
		}
		for _, seed := range seeds {
			row := storage.Row{"tracking_id": seed.ThingID, "entry_date": seed.Date}
			if seed.Value != nil {
				row["value"] = *seed.Value
			}
			byThing[seed.ThingID] = row
		}
	}

	views := make([]TrackerDailyView, 0, len(things))
	for _, t := range things {
		def, err := tracker.DefaultValue(t)
		if err != nil {
			return nil, err
		}
		value := def
		if row, ok := byThing[t.ID]; ok {
			value = storage.EntryValue(row, t)
		}
		views = append(views, TrackerDailyView{
			ID:           t.ID,
			Label:        t.Label,
			Description:  t.Description,
			Icon:         t.Icon,
			Kind:         t.Kind,
			Target:       t.Target,
			Unit:         t.Unit,
			Min:          t.Min,
			Max:          t.Max,
			Step:         t.Step,
			Value:        value,
			DefaultValue: def,
		})
	}
	return &DailySnapshot{Date: date, Trackers: views}, nil
}

type dayKey struct {
	thingID string
	date    string
}

// Global builds the rolling-history payload over a window of days ending
// today. Unlike the daily path it never seeds or persists anything: absent
// days stay null and count as missed.
func (e *Engine) Global(ctx context.Context, days int) (*GlobalSnapshot, error) {
	things, err := e.store.ListThings(ctx)
	if err != nil {
		return nil, err
	}
	if len(things) == 0 {
		return &GlobalSnapshot{Trackers: []TrackerHistoryView{}}, nil
	}

	window := dates.Range(days, e.now())
	entries, err := e.store.ListEntriesSince(ctx, window[0])
	if err != nil {
		return nil, err
	}
	byDay := make(map[dayKey]storage.Row, len(entries))
	for _, row := range entries {
		byDay[dayKey{storage.EntryThingID(row), storage.EntryDate(row)}] = row
	}

	views := make([]TrackerHistoryView, 0, len(things))
	for _, t := range things {
		history := make([]HistoryPoint, 0, len(window))
		complete := 0
		for _, date := range window {
			var value any
			if row, ok := byDay[dayKey{t.ID, date}]; ok {
				value = storage.EntryValue(row, t)
			}
			status := tracker.StatusOf(t, value)
			if status == models.StatusComplete {
				complete++
			}
			history = append(history, HistoryPoint{
				Date:         date,
				Status:       status,
				Value:        value,
				NumericValue: numeric(value),
			})
		}

		recent := history
		if len(recent) > recentWindow {
			recent = recent[len(recent)-recentWindow:]
		}
		wins := 0
		for _, p := range recent {
			if p.Status != models.StatusMissed {
				wins++
			}
		}

		views = append(views, TrackerHistoryView{
			ID:          t.ID,
			Label:       t.Label,
			Description: t.Description,
			Icon:        t.Icon,
			Kind:        t.Kind,
			Target:      t.Target,
			Unit:        t.Unit,
			History:     history,
			Summary: Summary{
				RecentWins:     wins,
				CompletionRate: int(math.Round(float64(complete) / float64(len(history)) * 100)),
			},
		})
	}
	return &GlobalSnapshot{Trackers: views}, nil
}

// SaveDaily applies client updates for a date and returns the recomputed
// daily snapshot. Read-after-write consistency comes from re-querying, not
// from trusting the write payload. An empty update list short-circuits to a
// plain Daily with no write issued.
func (e *Engine) SaveDaily(ctx context.Context, date string, updates []models.EntryUpdate) (*DailySnapshot, error) {
	if len(updates) == 0 {
		return e.Daily(ctx, date)
	}

	var (
		things  []models.Thing
		entries []storage.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		things, err = e.store.ListThings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = e.store.ListEntriesForDate(gctx, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	thingsByID := make(map[string]models.Thing, len(things))
	for _, t := range things {
		thingsByID[t.ID] = t
	}
	rowsByThing := make(map[string]storage.Row, len(entries))
	for _, row := range entries {
		rowsByThing[storage.EntryThingID(row)] = row
	}

	payload := make([]storage.EntryUpsert, 0, len(updates))
	for _, u := range updates {
		value := u.Value
		if value != nil {
			if t, ok := thingsByID[u.ThingID]; ok {
				coerced, err := tracker.CoerceInput(t, value)
				if err != nil {
					return nil, err
				}
				value = coerced
			}
		}
		upsert := storage.EntryUpsert{
			ThingID: u.ThingID,
			Date:    date,
			Value:   serialize(value),
		}
		if row, ok := rowsByThing[u.ThingID]; ok {
			upsert.ID = storage.EntryRowID(row)
		}
		payload = append(payload, upsert)
	}

	if err := e.store.PersistEntries(ctx, payload); err != nil {
		return nil, err
	}
	return e.Daily(ctx, date)
}

// serialize converts a resolved value into the string form the value column
// stores. nil passes through as a NULL write.
func serialize(v any) *string {
	if v == nil {
		return nil
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		if x {
			s = "true"
		} else {
			s = "false"
		}
	case float64:
		s = tracker.FormatNumber(x)
	default:
		s = fmt.Sprintf("%v", x)
	}
	return &s
}

// numeric extracts a float from a numeric value or a numeric-looking string.
func numeric(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		if x == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}
