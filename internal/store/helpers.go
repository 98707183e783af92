package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/emmihealth/planpipe/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

const planColumns = `id, user_id, created_at, generation_completed_at, generation_error, plan_info`

const workoutColumns = `id, plan_id, date, workout_info, completion_status, difficulty, additional_notes, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPlan scans a Plan from a sql.Row or sql.Rows.
func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	var completedAt sql.NullTime
	var genError, planInfoJSON sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.CreatedAt, &completedAt, &genError, &planInfoJSON); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.GenerationCompletedAt = &completedAt.Time
	}
	p.GenerationError = genError.String
	if planInfoJSON.Valid && planInfoJSON.String != "" {
		var info models.PlanInfo
		if err := json.Unmarshal([]byte(planInfoJSON.String), &info); err != nil {
			return nil, fmt.Errorf("failed to decode plan_info for plan %s: %w", p.ID, err)
		}
		p.PlanInfo = &info
	}
	return &p, nil
}

// scanWorkout scans a Workout from a sql.Row or sql.Rows.
func scanWorkout(row rowScanner) (*models.Workout, error) {
	var w models.Workout
	var infoJSON string
	var difficulty sql.NullInt64
	if err := row.Scan(&w.ID, &w.PlanID, &w.Date, &infoJSON, &w.CompletionStatus, &difficulty, &w.Notes, &w.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(infoJSON), &w.Info); err != nil {
		return nil, fmt.Errorf("failed to decode workout_info for workout %s: %w", w.ID, err)
	}
	if difficulty.Valid {
		d := int(difficulty.Int64)
		w.Difficulty = &d
	}
	return &w, nil
}

func encodePlanInfo(info *models.PlanInfo) (interface{}, error) {
	if info == nil {
		return nil, nil
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan_info: %w", err)
	}
	return string(data), nil
}

func encodeWorkoutInfo(info models.WorkoutInfo) (string, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to encode workout_info: %w", err)
	}
	return string(data), nil
}

func encodeProfile(p *models.Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	return string(data), nil
}

func decodeProfile(data string) (*models.Profile, error) {
	var p models.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}
