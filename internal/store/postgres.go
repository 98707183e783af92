// Package store provides storage backends for planpipe.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/emmihealth/planpipe/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveProfile(p *models.Profile) error {
	data, err := encodeProfile(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO profiles (user_id, profile, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = EXCLUDED.updated_at`,
		p.UserID, data, time.Now().UTC())
	if err != nil {
		slog.Error("PostgresStore SaveProfile failed", "error", err, "user_id", p.UserID)
		return fmt.Errorf("failed to save profile for %s: %w", p.UserID, err)
	}
	slog.Debug("PostgresStore SaveProfile succeeded", "user_id", p.UserID)
	return nil
}

func (s *PostgresStore) GetProfile(userID string) (*models.Profile, error) {
	var data string
	err := s.db.QueryRow(`SELECT profile FROM profiles WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetProfile failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query profile for %s: %w", userID, err)
	}
	return decodeProfile(data)
}

func (s *PostgresStore) CreatePlan(plan *models.Plan) error {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO plans (id, user_id, created_at) VALUES ($1, $2, $3)`,
		plan.ID, plan.UserID, plan.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreatePlan failed", "error", err, "plan_id", plan.ID)
		return fmt.Errorf("failed to insert plan %s: %w", plan.ID, err)
	}
	slog.Debug("PostgresStore CreatePlan succeeded", "plan_id", plan.ID, "user_id", plan.UserID)
	return nil
}

func (s *PostgresStore) GetPlan(id string) (*models.Plan, error) {
	row := s.db.QueryRow(`SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPlanNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetPlan failed", "error", err, "plan_id", id)
		return nil, fmt.Errorf("failed to query plan %s: %w", id, err)
	}
	return plan, nil
}

func (s *PostgresStore) ListPlansByUser(userID string) ([]*models.Plan, error) {
	rows, err := s.db.Query(`SELECT `+planColumns+` FROM plans WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore ListPlansByUser query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query plans for %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan rows: %w", err)
	}
	return plans, nil
}

func (s *PostgresStore) HasActiveGeneration(userID, excludePlanID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(
		SELECT 1 FROM plans
		WHERE user_id = $1 AND id != $2
		  AND generation_completed_at IS NULL AND generation_error IS NULL)`,
		userID, excludePlanID).Scan(&exists)
	if err != nil {
		slog.Error("PostgresStore HasActiveGeneration failed", "error", err, "user_id", userID)
		return false, fmt.Errorf("failed to check active generation for %s: %w", userID, err)
	}
	return exists, nil
}

func (s *PostgresStore) SavePlanResult(planID string, info *models.PlanInfo, workouts []models.Workout) error {
	infoJSON, err := encodePlanInfo(info)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE plans SET plan_info = $1 WHERE id = $2`, infoJSON, planID)
	if err != nil {
		return fmt.Errorf("failed to update plan_info for %s: %w", planID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrPlanNotFound
	}

	if _, err := tx.Exec(`DELETE FROM workouts WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("failed to clear workouts for %s: %w", planID, err)
	}

	now := time.Now().UTC()
	for i := range workouts {
		w := &workouts[i]
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.CompletionStatus == "" {
			w.CompletionStatus = models.CompletionNotCompleted
		}
		wJSON, err := encodeWorkoutInfo(w.Info)
		if err != nil {
			return err
		}
		var difficulty interface{}
		if w.Difficulty != nil {
			difficulty = *w.Difficulty
		}
		if _, err := tx.Exec(`INSERT INTO workouts (id, plan_id, date, workout_info, completion_status, difficulty, additional_notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			w.ID, planID, w.Date, wJSON, w.CompletionStatus, difficulty, w.Notes, w.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert workout %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan result for %s: %w", planID, err)
	}
	slog.Debug("PostgresStore SavePlanResult succeeded", "plan_id", planID, "workouts", len(workouts))
	return nil
}

func (s *PostgresStore) MarkPlanCompleted(planID string) error {
	res, err := s.db.Exec(`UPDATE plans SET generation_completed_at = $1, generation_error = NULL WHERE id = $2`,
		time.Now().UTC(), planID)
	if err != nil {
		slog.Error("PostgresStore MarkPlanCompleted failed", "error", err, "plan_id", planID)
		return fmt.Errorf("failed to mark plan %s completed: %w", planID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrPlanNotFound
	}
	slog.Debug("PostgresStore MarkPlanCompleted succeeded", "plan_id", planID)
	return nil
}

func (s *PostgresStore) MarkPlanError(planID, message string) error {
	res, err := s.db.Exec(`UPDATE plans SET generation_error = $1 WHERE id = $2 AND generation_completed_at IS NULL`,
		nilIfEmpty(message), planID)
	if err != nil {
		slog.Error("PostgresStore MarkPlanError failed", "error", err, "plan_id", planID)
		return fmt.Errorf("failed to mark plan %s errored: %w", planID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM plans WHERE id = $1)`, planID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check plan %s: %w", planID, err)
		}
		if exists {
			return models.ErrPlanAlreadyTerminal
		}
		return models.ErrPlanNotFound
	}
	slog.Debug("PostgresStore MarkPlanError succeeded", "plan_id", planID)
	return nil
}

func (s *PostgresStore) GetWorkoutsByPlan(planID string) ([]models.Workout, error) {
	rows, err := s.db.Query(`SELECT `+workoutColumns+` FROM workouts WHERE plan_id = $1 ORDER BY date, id`, planID)
	if err != nil {
		slog.Error("PostgresStore GetWorkoutsByPlan query failed", "error", err, "plan_id", planID)
		return nil, fmt.Errorf("failed to query workouts for %s: %w", planID, err)
	}
	defer rows.Close()

	var workouts []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout row: %w", err)
		}
		workouts = append(workouts, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout rows: %w", err)
	}
	return workouts, nil
}

func (s *PostgresStore) GetWorkout(id string) (*models.Workout, error) {
	row := s.db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrWorkoutNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetWorkout failed", "error", err, "workout_id", id)
		return nil, fmt.Errorf("failed to query workout %s: %w", id, err)
	}
	return w, nil
}

func (s *PostgresStore) UpdateWorkoutTracking(workoutID string, tr models.WorkoutTracking) error {
	if err := tr.Validate(); err != nil {
		return err
	}
	var difficulty interface{}
	if tr.Difficulty != nil {
		difficulty = *tr.Difficulty
	}
	res, err := s.db.Exec(`UPDATE workouts SET completion_status = $1, difficulty = $2, additional_notes = $3 WHERE id = $4`,
		tr.CompletionStatus, difficulty, tr.Notes, workoutID)
	if err != nil {
		slog.Error("PostgresStore UpdateWorkoutTracking failed", "error", err, "workout_id", workoutID)
		return fmt.Errorf("failed to update tracking for workout %s: %w", workoutID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrWorkoutNotFound
	}
	slog.Debug("PostgresStore UpdateWorkoutTracking succeeded", "workout_id", workoutID, "status", tr.CompletionStatus)
	return nil
}

func (s *PostgresStore) ListStaleInProgressPlans(cutoff time.Time) ([]*models.Plan, error) {
	rows, err := s.db.Query(`SELECT `+planColumns+` FROM plans
		WHERE generation_completed_at IS NULL AND generation_error IS NULL AND created_at < $1
		ORDER BY created_at`, cutoff)
	if err != nil {
		slog.Error("PostgresStore ListStaleInProgressPlans query failed", "error", err)
		return nil, fmt.Errorf("failed to query stale plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale plan rows: %w", err)
	}
	return plans, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("PostgresStore.Close: closing database")
	return s.db.Close()
}
