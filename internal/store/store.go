// Package store provides storage backends for planpipe.
//
// It includes an in-memory store for tests and single-process use, plus
// SQLite and PostgreSQL backed stores for persistent deployments.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emmihealth/planpipe/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string. For SQLite this is a file
	// path; for Postgres a URL or key=value connection string.
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite".
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// Store defines persistence for profiles, plans, and workouts.
type Store interface {
	// SaveProfile inserts or replaces a user's profile.
	SaveProfile(p *models.Profile) error
	// GetProfile returns models.ErrProfileNotFound if no profile exists.
	GetProfile(userID string) (*models.Profile, error)

	// CreatePlan inserts a new plan row in the in-progress state.
	CreatePlan(plan *models.Plan) error
	GetPlan(id string) (*models.Plan, error)
	// ListPlansByUser returns the user's plans, newest first.
	ListPlansByUser(userID string) ([]*models.Plan, error)
	// HasActiveGeneration reports whether the user owns any plan other
	// than excludePlanID with neither a completion timestamp nor an error.
	HasActiveGeneration(userID, excludePlanID string) (bool, error)

	// SavePlanResult writes the plan summary and replaces the plan's
	// workout rows in a single transaction. Either everything is
	// persisted or nothing is.
	SavePlanResult(planID string, info *models.PlanInfo, workouts []models.Workout) error
	// MarkPlanCompleted sets the completion timestamp and clears any
	// previous generation error.
	MarkPlanCompleted(planID string) error
	// MarkPlanError records a generation failure. A plan that already
	// completed stays completed: models.ErrPlanAlreadyTerminal.
	MarkPlanError(planID, message string) error

	GetWorkoutsByPlan(planID string) ([]models.Workout, error)
	GetWorkout(id string) (*models.Workout, error)
	// UpdateWorkoutTracking overlays user tracking fields on a workout.
	// The generated workout_info is never touched.
	UpdateWorkoutTracking(workoutID string, tr models.WorkoutTracking) error

	// ListStaleInProgressPlans returns in-progress plans created before
	// the cutoff, for timeout sweeping.
	ListStaleInProgressPlans(cutoff time.Time) ([]*models.Plan, error)

	Close() error
}

// InMemoryStore is a mutex-guarded in-memory Store implementation.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	plans    map[string]models.Plan
	workouts map[string]models.Workout
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[string]models.Profile),
		plans:    make(map[string]models.Plan),
		workouts: make(map[string]models.Workout),
	}
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveProfile(p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = *p
	return nil
}

func (s *InMemoryStore) GetProfile(userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) CreatePlan(plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (s *InMemoryStore) GetPlan(id string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, models.ErrPlanNotFound
	}
	cp := clonePlan(&p)
	return &cp, nil
}

func (s *InMemoryStore) ListPlansByUser(userID string) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []*models.Plan
	for id := range s.plans {
		p := s.plans[id]
		if p.UserID == userID {
			cp := clonePlan(&p)
			plans = append(plans, &cp)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.After(plans[j].CreatedAt) })
	return plans, nil
}

func (s *InMemoryStore) HasActiveGeneration(userID, excludePlanID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.plans {
		if id == excludePlanID || p.UserID != userID {
			continue
		}
		if p.GenerationCompletedAt == nil && p.GenerationError == "" {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) SavePlanResult(planID string, info *models.PlanInfo, workouts []models.Workout) error {
	// Validate the batch before mutating anything so a bad batch leaves
	// the plan untouched, matching the SQL backends' transaction.
	seen := make(map[string]struct{}, len(workouts))
	for i := range workouts {
		if _, dup := seen[workouts[i].ID]; dup {
			return fmt.Errorf("duplicate workout id %s", workouts[i].ID)
		}
		seen[workouts[i].ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return models.ErrPlanNotFound
	}
	p.PlanInfo = info
	s.plans[planID] = p
	for id, w := range s.workouts {
		if w.PlanID == planID {
			delete(s.workouts, id)
		}
	}
	now := time.Now().UTC()
	for i := range workouts {
		w := workouts[i]
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.CompletionStatus == "" {
			w.CompletionStatus = models.CompletionNotCompleted
		}
		s.workouts[w.ID] = w
	}
	return nil
}

func (s *InMemoryStore) MarkPlanCompleted(planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return models.ErrPlanNotFound
	}
	now := time.Now().UTC()
	p.GenerationCompletedAt = &now
	p.GenerationError = ""
	s.plans[planID] = p
	return nil
}

func (s *InMemoryStore) MarkPlanError(planID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return models.ErrPlanNotFound
	}
	if p.GenerationCompletedAt != nil {
		return models.ErrPlanAlreadyTerminal
	}
	p.GenerationError = message
	s.plans[planID] = p
	return nil
}

func (s *InMemoryStore) GetWorkoutsByPlan(planID string) ([]models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var workouts []models.Workout
	for _, w := range s.workouts {
		if w.PlanID == planID {
			workouts = append(workouts, w)
		}
	}
	sort.Slice(workouts, func(i, j int) bool { return workouts[i].Date.Before(workouts[j].Date) })
	return workouts, nil
}

func (s *InMemoryStore) GetWorkout(id string) (*models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workouts[id]
	if !ok {
		return nil, models.ErrWorkoutNotFound
	}
	return &w, nil
}

func (s *InMemoryStore) UpdateWorkoutTracking(workoutID string, tr models.WorkoutTracking) error {
	if err := tr.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workouts[workoutID]
	if !ok {
		return models.ErrWorkoutNotFound
	}
	applyTracking(&w, tr)
	s.workouts[workoutID] = w
	return nil
}

func (s *InMemoryStore) ListStaleInProgressPlans(cutoff time.Time) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []*models.Plan
	for id := range s.plans {
		p := s.plans[id]
		if p.GenerationCompletedAt == nil && p.GenerationError == "" && p.CreatedAt.Before(cutoff) {
			cp := clonePlan(&p)
			stale = append(stale, &cp)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	return stale, nil
}

func (s *InMemoryStore) Close() error {
	slog.Debug("InMemoryStore.Close: closing store")
	return nil
}

func clonePlan(p *models.Plan) models.Plan {
	cp := *p
	if p.GenerationCompletedAt != nil {
		t := *p.GenerationCompletedAt
		cp.GenerationCompletedAt = &t
	}
	if p.PlanInfo != nil {
		info := *p.PlanInfo
		info.Weeks = append([]models.PlanInfoWeek(nil), p.PlanInfo.Weeks...)
		cp.PlanInfo = &info
	}
	return cp
}

// applyTracking overlays tracking fields on a workout, shared by all
// backends so the semantics cannot drift.
func applyTracking(w *models.Workout, tr models.WorkoutTracking) {
	w.CompletionStatus = tr.CompletionStatus
	if tr.Difficulty != nil {
		d := *tr.Difficulty
		w.Difficulty = &d
	} else {
		w.Difficulty = nil
	}
	w.Notes = tr.Notes
}
