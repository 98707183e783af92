package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeWindow(t *testing.T) {
	cases := []struct {
		name      string
		createdAt time.Time
		tz        string
		today     string
		upTo      string
	}{
		{
			name:      "monday covers rest of week plus two",
			createdAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
			tz:        "UTC",
			today:     "2025-06-02",
			upTo:      "2025-06-15",
		},
		{
			name:      "midweek lands on same sunday",
			createdAt: time.Date(2025, 6, 4, 9, 30, 0, 0, time.UTC),
			tz:        "UTC",
			today:     "2025-06-04",
			upTo:      "2025-06-15",
		},
		{
			name:      "sunday is its own week end",
			createdAt: time.Date(2025, 6, 8, 23, 0, 0, 0, time.UTC),
			tz:        "UTC",
			today:     "2025-06-08",
			upTo:      "2025-06-15",
		},
		{
			name: "timezone shifts the local date",
			// 02:00 UTC on Tuesday is still Monday evening in New York.
			createdAt: time.Date(2025, 6, 3, 2, 0, 0, 0, time.UTC),
			tz:        "America/New_York",
			today:     "2025-06-02",
			upTo:      "2025-06-15",
		},
		{
			name:      "invalid timezone falls back to utc",
			createdAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
			tz:        "Mars/Olympus_Mons",
			today:     "2025-06-02",
			upTo:      "2025-06-15",
		},
		{
			name:      "empty timezone uses utc",
			createdAt: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), // a Monday
			tz:        "",
			today:     "2025-12-29",
			upTo:      "2026-01-11",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ComputeWindow(tc.createdAt, tc.tz)
			assert.Equal(t, tc.today, w.Today.Format("2006-01-02"))
			assert.Equal(t, tc.upTo, w.UpTo.Format("2006-01-02"))
		})
	}
}
