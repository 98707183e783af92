package scheduler

import (
	"testing"
	"time"

	"github.com/emmihealth/planpipe/internal/models"
	"github.com/emmihealth/planpipe/internal/store"
)

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	// Should add a valid cron job without error
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("Expected error adding invalid expression")
	}
}

func TestSweeperFailsStalePlans(t *testing.T) {
	st := store.NewInMemoryStore()
	stale := &models.Plan{ID: "stale", UserID: "u1", CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &models.Plan{ID: "fresh", UserID: "u1", CreatedAt: time.Now()}
	done := &models.Plan{ID: "done", UserID: "u1", CreatedAt: time.Now().Add(-time.Hour)}
	for _, p := range []*models.Plan{stale, fresh, done} {
		if err := st.CreatePlan(p); err != nil {
			t.Fatalf("CreatePlan: %v", err)
		}
	}
	if err := st.MarkPlanCompleted("done"); err != nil {
		t.Fatalf("MarkPlanCompleted: %v", err)
	}

	s := NewSweeper(st, 30*time.Minute)
	if swept := s.Sweep(); swept != 1 {
		t.Fatalf("Sweep: expected 1 swept plan, got %d", swept)
	}

	plan, err := st.GetPlan("stale")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan.Status() != models.GenerationError {
		t.Errorf("Expected stale plan in error state, got %s", plan.Status())
	}
	if plan.GenerationError == "" {
		t.Error("Expected a timeout message on the stale plan")
	}

	for _, id := range []string{"fresh", "done"} {
		plan, err := st.GetPlan(id)
		if err != nil {
			t.Fatalf("GetPlan(%s): %v", id, err)
		}
		if plan.Status() == models.GenerationError {
			t.Errorf("Plan %s should not have been swept", id)
		}
	}

	// A second sweep finds nothing.
	if swept := s.Sweep(); swept != 0 {
		t.Errorf("Sweep: expected 0 swept plans on second pass, got %d", swept)
	}
}
