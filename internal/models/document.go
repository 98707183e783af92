package models

import (
	"errors"
	"fmt"
	"time"
)

// PlanDocument is the structured document the model is expected to emit
// inside the fenced block: plan metadata plus weeks of dated workouts.
type PlanDocument struct {
	Reasoning  string     `yaml:"reasoning" json:"reasoning"`
	Goal       string     `yaml:"goal" json:"goal"`
	SMSMessage string     `yaml:"sms_message" json:"sms_message"`
	Weeks      []PlanWeek `yaml:"weeks" json:"weeks"`
}

// PlanWeek is one week of the generated plan.
type PlanWeek struct {
	Goal          string    `yaml:"goal" json:"goal"`
	WeekStartDate string    `yaml:"week_start_date" json:"week_start_date"`
	Dates         []PlanDay `yaml:"dates" json:"dates"`
}

// PlanDay groups the workouts scheduled for a single calendar date.
// A single date may carry multiple workouts (e.g., a run plus strength).
type PlanDay struct {
	Date     string        `yaml:"date" json:"date"`
	Workouts []WorkoutInfo `yaml:"workouts" json:"workouts"`
}

// WorkoutInfo is the structured payload of one workout as generated by the
// model. Effort is a string because the model emits either an RPE number or
// a rest marker ("Rest").
type WorkoutInfo struct {
	Type       string        `yaml:"type" json:"type"`
	Title      string        `yaml:"title" json:"title"`
	Summary    string        `yaml:"summary" json:"summary"`
	Notes      string        `yaml:"notes,omitempty" json:"notes,omitempty"`
	Duration   *int          `yaml:"duration" json:"duration"`
	Distance   *float64      `yaml:"distance" json:"distance"`
	Focus      *string       `yaml:"focus" json:"focus"`
	Effort     string        `yaml:"effort" json:"effort"`
	Activity   *string       `yaml:"activity" json:"activity"`
	Steps      []WorkoutStep `yaml:"steps" json:"steps"`
	BeforeTips []string      `yaml:"before_tips,omitempty" json:"before_tips,omitempty"`
	AfterTips  []string      `yaml:"after_tips,omitempty" json:"after_tips,omitempty"`
}

// WorkoutStep is one named step within a workout.
type WorkoutStep struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// ErrEmptyPlanDocument indicates a document with no usable content.
var ErrEmptyPlanDocument = errors.New("plan document is empty")

// DateLayout is the wire format for calendar dates in the plan document.
const DateLayout = "2006-01-02"

// Validate checks that the document carries at least one week and that every
// day parses to a valid ISO date.
func (d *PlanDocument) Validate() error {
	if d == nil || len(d.Weeks) == 0 {
		return ErrEmptyPlanDocument
	}
	for wi, week := range d.Weeks {
		for di, day := range week.Dates {
			if _, err := time.Parse(DateLayout, day.Date); err != nil {
				return fmt.Errorf("week %d day %d: invalid date %q: %w", wi, di, day.Date, err)
			}
		}
	}
	return nil
}

// Info strips the day-by-day detail, returning the plan-level summary that
// is persisted on the Plan record.
func (d *PlanDocument) Info() PlanInfo {
	info := PlanInfo{
		Reasoning:  d.Reasoning,
		Goal:       d.Goal,
		SMSMessage: d.SMSMessage,
	}
	for _, week := range d.Weeks {
		info.Weeks = append(info.Weeks, PlanInfoWeek{
			Goal:          week.Goal,
			WeekStartDate: week.WeekStartDate,
		})
	}
	return info
}
