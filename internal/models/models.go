// Package models defines the core data structures for planpipe.
//
// It includes the persistent Plan and Workout records, the user profile
// snapshot consumed by the generation pipeline, and the structured plan
// document the model is expected to emit.
package models

import (
	"errors"
	"time"
)

// GenerationStatus describes the lifecycle state of a Plan.
type GenerationStatus string

const (
	// GenerationInProgress means the plan has been created but generation has
	// not yet finished (no completion timestamp, no error).
	GenerationInProgress GenerationStatus = "in_progress"
	// GenerationCompleted means generation succeeded and plan info is populated.
	GenerationCompleted GenerationStatus = "completed"
	// GenerationError means generation failed; GenerationError holds the detail.
	GenerationError GenerationStatus = "error"
)

// CompletionStatus describes how the user tracked a workout.
type CompletionStatus string

const (
	CompletionNotCompleted CompletionStatus = "not_completed"
	CompletionCompleted    CompletionStatus = "completed"
	CompletionModified     CompletionStatus = "modified"
	CompletionSkipped      CompletionStatus = "skipped"
)

// Difficulty bounds for the workout tracking overlay.
const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// Error variables for better error handling and testability
var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrWorkoutNotFound      = errors.New("workout not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrPlanAlreadyTerminal  = errors.New("plan is already in a terminal state")
	ErrInvalidDifficulty    = errors.New("difficulty must be between 1 and 10")
	ErrInvalidCompletion    = errors.New("invalid completion status")
	ErrPreconditionNotMet   = errors.New("user must have a name and a completed profile")
	ErrGenerationInProgress = errors.New("a plan generation is already in progress for this user")
)

// IsValidCompletionStatus checks if the given completion status is supported.
func IsValidCompletionStatus(cs CompletionStatus) bool {
	switch cs {
	case CompletionNotCompleted, CompletionCompleted, CompletionModified, CompletionSkipped:
		return true
	default:
		return false
	}
}

// Plan is a persisted training plan with a generation lifecycle.
// GenerationCompletedAt and GenerationError are the serialized form of the
// lifecycle; Status derives the explicit state from them. State transitions
// happen only through the store's MarkPlanCompleted and MarkPlanError.
type Plan struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"user_id"`
	CreatedAt             time.Time  `json:"created_at"`
	GenerationCompletedAt *time.Time `json:"generation_completed_at,omitempty"`
	GenerationError       string     `json:"generation_error,omitempty"`
	PlanInfo              *PlanInfo  `json:"plan_info,omitempty"`
}

// Status derives the explicit lifecycle state from the nullable fields.
// An error takes precedence over a completion timestamp.
func (p *Plan) Status() GenerationStatus {
	if p.GenerationError != "" {
		return GenerationError
	}
	if p.GenerationCompletedAt != nil {
		return GenerationCompleted
	}
	return GenerationInProgress
}

// PlanInfo is the plan-level summary stored on a completed Plan. It
// deliberately excludes day-by-day workout detail, which is normalized into
// Workout rows.
type PlanInfo struct {
	Reasoning  string         `json:"reasoning" yaml:"reasoning"`
	Goal       string         `json:"goal" yaml:"goal"`
	SMSMessage string         `json:"sms_message" yaml:"sms_message"`
	Weeks      []PlanInfoWeek `json:"weeks" yaml:"weeks"`
}

// PlanInfoWeek is a week summary without its workout detail.
type PlanInfoWeek struct {
	Goal          string `json:"goal" yaml:"goal"`
	WeekStartDate string `json:"week_start_date" yaml:"week_start_date"`
}

// Workout is one scheduled activity belonging to a Plan and a calendar date.
// Info and Date are written once by the generation pipeline; user edits are
// restricted to the tracking overlay (CompletionStatus, Difficulty, Notes).
type Workout struct {
	ID               string           `json:"id"`
	PlanID           string           `json:"plan_id"`
	Date             time.Time        `json:"date"`
	Info             WorkoutInfo      `json:"workout_info"`
	CreatedAt        time.Time        `json:"created_at"`
	CompletionStatus CompletionStatus `json:"completion_status"`
	Difficulty       *int             `json:"difficulty,omitempty"`
	Notes            string           `json:"additional_notes,omitempty"`
}

// WorkoutTracking is the user-editable overlay on a Workout.
type WorkoutTracking struct {
	CompletionStatus CompletionStatus `json:"completion_status"`
	Difficulty       *int             `json:"difficulty,omitempty"`
	Notes            string           `json:"additional_notes,omitempty"`
}

// Validate checks the tracking overlay bounds.
func (t *WorkoutTracking) Validate() error {
	if !IsValidCompletionStatus(t.CompletionStatus) {
		return ErrInvalidCompletion
	}
	if t.Difficulty != nil && (*t.Difficulty < MinDifficulty || *t.Difficulty > MaxDifficulty) {
		return ErrInvalidDifficulty
	}
	return nil
}

// Profile is the user profile snapshot consumed by the generation pipeline.
// Any subset of fields may be absent; the prompt composer renders missing
// values explicitly so the model does not fabricate them.
type Profile struct {
	UserID               string   `json:"user_id"`
	Name                 string   `json:"name,omitempty"`
	Timezone             string   `json:"timezone,omitempty"`
	PhoneNumber          string   `json:"phone_number,omitempty"`
	OnboardingComplete   bool     `json:"is_onboarding_complete"`
	Age                  *int     `json:"age,omitempty"`
	HeightFeet           *int     `json:"feet,omitempty"`
	HeightInches         *int     `json:"inches,omitempty"`
	WeightLbs            *int     `json:"weight_lbs,omitempty"`
	Goals                []string `json:"goals,omitempty"`
	GoalsDetails         string   `json:"goals_details,omitempty"`
	RaceName             string   `json:"race_name,omitempty"`
	RaceDate             string   `json:"race_date,omitempty"`
	RaceDistance         string   `json:"race_distance,omitempty"`
	TimeGoal             string   `json:"time_goal,omitempty"`
	RunningExperience    string   `json:"running_experience,omitempty"`
	RoutineDaysPerWeek   string   `json:"routine_days_per_week,omitempty"`
	RoutineMilesPerWeek  string   `json:"routine_miles_per_week,omitempty"`
	RoutineEasyPace      string   `json:"routine_easy_pace,omitempty"`
	RoutineLongestRun    string   `json:"routine_longest_run,omitempty"`
	RecentRaceResults    string   `json:"recent_race_results,omitempty"`
	ExtraTraining        []string `json:"extra_training,omitempty"`
	Diet                 []string `json:"diet,omitempty"`
	Injuries             string   `json:"injuries,omitempty"`
	PreferredLongRunDays []string `json:"preferred_long_run_days,omitempty"`
	PreferredWorkoutDays []string `json:"preferred_workout_days,omitempty"`
	PreferredRestDays    []string `json:"preferred_rest_days,omitempty"`
	OtherObligations     string   `json:"other_obligations,omitempty"`
	PastProblems         []string `json:"past_problems,omitempty"`
	MoreInfo             string   `json:"more_info,omitempty"`
}

// HasName reports whether the profile carries a usable first name.
func (p *Profile) HasName() bool {
	return p != nil && p.Name != ""
}

// Window is the date range a single generation covers: Today (the plan's
// creation date in the user's timezone) through UpTo (the Sunday ending two
// full calendar weeks out).
type Window struct {
	Today time.Time
	UpTo  time.Time
}
