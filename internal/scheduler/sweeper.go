package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/emmihealth/planpipe/internal/store"
)

// Sweeper defaults.
const (
	// DefaultSweepSchedule runs the sweep every ten minutes.
	DefaultSweepSchedule = "*/10 * * * *"
	// DefaultStaleAfter is how long a generation may stay in progress
	// before the sweeper fails it. Generation normally finishes within
	// a few minutes; anything older was orphaned by a crash or restart.
	DefaultStaleAfter = 30 * time.Minute
)

// Sweeper fails plans whose generation started but never reached a terminal
// state, so users are not left staring at a spinner forever.
type Sweeper struct {
	store      store.Store
	staleAfter time.Duration
}

// NewSweeper creates a sweeper. Non-positive staleAfter falls back to the
// default.
func NewSweeper(st store.Store, staleAfter time.Duration) *Sweeper {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Sweeper{store: st, staleAfter: staleAfter}
}

// Sweep marks every sufficiently old in-progress plan as failed. It returns
// the number of plans swept.
func (s *Sweeper) Sweep() int {
	cutoff := time.Now().Add(-s.staleAfter)
	plans, err := s.store.ListStaleInProgressPlans(cutoff)
	if err != nil {
		slog.Error("Sweeper.Sweep: failed to list stale plans", "error", err)
		return 0
	}
	swept := 0
	for _, plan := range plans {
		message := fmt.Sprintf("generation timed out after %s", s.staleAfter)
		if err := s.store.MarkPlanError(plan.ID, message); err != nil {
			slog.Error("Sweeper.Sweep: failed to fail stale plan", "error", err, "plan_id", plan.ID)
			continue
		}
		slog.Warn("Sweeper.Sweep: failed stale plan", "plan_id", plan.ID, "user_id", plan.UserID, "created_at", plan.CreatedAt)
		swept++
	}
	if swept > 0 {
		slog.Info("Sweeper.Sweep: sweep complete", "swept", swept)
	}
	return swept
}

// Register schedules the sweep on the given scheduler.
func (s *Sweeper) Register(sched *Scheduler, expr string) error {
	if expr == "" {
		expr = DefaultSweepSchedule
	}
	return sched.AddJob(expr, func() { s.Sweep() })
}
