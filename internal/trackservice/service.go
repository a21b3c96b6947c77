// Package trackservice binds configuration, the storage provider, and the
// snapshot engine into the three operations the transport layer consumes.
package trackservice

import (
	"context"
	"time"

	"github.com/mkoster/daymark/internal/dates"
	"github.com/mkoster/daymark/internal/models"
	"github.com/mkoster/daymark/internal/snapshot"
	"github.com/mkoster/daymark/internal/storage"
)

// Service is the tracking facade. It owns date normalization and lookback
// resolution; everything else is delegated to the snapshot engine.
type Service struct {
	engine   *snapshot.Engine
	now      func() time.Time
	lookback int
}

// New creates a Service. lookback is the configured default history window
// in days. now may be nil (time.Now); tests inject a fixed instant.
func New(store storage.Provider, lookback int, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:   snapshot.New(store, now),
		now:      now,
		lookback: lookback,
	}
}

// resolveDate normalizes a loose date input, falling back to the Eastern
// reference "today" when the input is empty or unparsable.
func (s *Service) resolveDate(input string) string {
	if d := dates.Normalize(input); d != "" {
		return d
	}
	return dates.Today(s.now())
}

// Lookback resolves the history window: an explicit positive override wins,
// clamped to at least one day; otherwise the configured default applies.
func (s *Service) Lookback(days int) int {
	if days > 0 {
		return days
	}
	return s.lookback
}

// FetchDailySnapshot returns the daily payload for the given date input,
// seeding defaults for things without an entry.
func (s *Service) FetchDailySnapshot(ctx context.Context, dateInput string) (*snapshot.DailySnapshot, error) {
	return s.engine.Daily(ctx, s.resolveDate(dateInput))
}

// FetchGlobalSnapshot returns the rolling-history payload.
func (s *Service) FetchGlobalSnapshot(ctx context.Context, days int) (*snapshot.GlobalSnapshot, error) {
	return s.engine.Global(ctx, s.Lookback(days))
}

// PersistDailyEntries applies updates for the given date input and returns
// the freshly recomputed daily snapshot. A nil update list is treated as
// empty, which makes the call a read.
func (s *Service) PersistDailyEntries(ctx context.Context, dateInput string, updates []models.EntryUpdate) (*snapshot.DailySnapshot, error) {
	if updates == nil {
		updates = []models.EntryUpdate{}
	}
	return s.engine.SaveDaily(ctx, s.resolveDate(dateInput), updates)
}
