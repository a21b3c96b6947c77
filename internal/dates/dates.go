// Package dates resolves day boundaries for the tracker. All "today"
// decisions are pinned to a single reference timezone (US Eastern, DST-aware)
// so seeding and default date selection behave the same regardless of where
// the server runs.
package dates

import (
	"sync"
	"time"
)

// ISO is the canonical date layout used everywhere in the service.
const ISO = "2006-01-02"

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// Eastern returns the reference location. Falls back to a fixed UTC-5 zone
// if the tz database is unavailable on the host.
func Eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		eastern = loc
	})
	return eastern
}

// Today formats the given instant as an ISO date in the reference timezone.
// Callers inject the instant (usually time.Now()) so tests can pin it.
func Today(now time.Time) string {
	return now.In(Eastern()).Format(ISO)
}

// Range returns days consecutive ISO dates ending at end (inclusive),
// oldest first. days must be >= 1; smaller values yield a single-day range.
func Range(days int, end time.Time) []string {
	if days < 1 {
		days = 1
	}
	e := end.In(Eastern())
	// Anchor at midnight so AddDate arithmetic never straddles a DST shift.
	e = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, Eastern())
	out := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		out = append(out, e.AddDate(0, 0, -i).Format(ISO))
	}
	return out
}

// Normalize parses a loosely-typed date input into canonical YYYY-MM-DD.
// Returns "" (not an error) on unparsable input so callers can fall back to
// Today.
func Normalize(input string) string {
	if input == "" {
		return ""
	}
	for _, layout := range []string{ISO, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, input); err == nil {
			return t.Format(ISO)
		}
	}
	return ""
}
