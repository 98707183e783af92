// Package generation orchestrates training plan generation: preconditions,
// prompt composition, model invocation, parsing, persistence, and side
// effects, executed on a bounded worker pool.
package generation

import (
	"log/slog"
	"time"

	"github.com/emmihealth/planpipe/internal/models"
)

// ComputeWindow determines the planning window from the plan's creation time
// in the user's timezone. Weeks run Monday through Sunday. The window ends on
// the Sunday of the week after the current one, so a plan requested on a
// Monday covers the rest of its week plus two full weeks.
func ComputeWindow(createdAt time.Time, tz string) models.Window {
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			slog.Warn("ComputeWindow: invalid timezone, falling back to UTC", "timezone", tz, "error", err)
		} else {
			loc = l
		}
	}

	local := createdAt.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	// Weekday index with Monday = 0 .. Sunday = 6.
	weekday := (int(local.Weekday()) + 6) % 7
	thisSunday := today.AddDate(0, 0, 6-weekday)
	upTo := thisSunday.AddDate(0, 0, 7)

	return models.Window{Today: today, UpTo: upTo}
}
