package prompt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emmihealth/planpipe/internal/genai"
	"github.com/emmihealth/planpipe/internal/models"
)

// DefaultBaseURL is the public site the notification message links to.
const DefaultBaseURL = "https://emmi.com"

// Opts holds configuration options for the composer.
type Opts struct {
	BaseURL string
}

// Option configures the composer.
type Option func(*Opts)

// WithBaseURL sets the base URL used for plan links in the notification
// message.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = strings.TrimRight(u, "/") }
}

// Composer renders complete model requests for plan generation. Composition
// is deterministic: the same profile, window, and plan ID always produce the
// same request text.
type Composer struct {
	baseURL string
}

// NewComposer creates a Composer.
func NewComposer(options ...Option) *Composer {
	opts := Opts{BaseURL: DefaultBaseURL}
	for _, opt := range options {
		opt(&opts)
	}
	slog.Debug("Composer.NewComposer: created composer", "base_url", opts.BaseURL)
	return &Composer{baseURL: opts.BaseURL}
}

// Input carries everything the live request depends on.
type Input struct {
	Profile *models.Profile
	PlanID  string
	Window  models.Window
}

// Compose builds the one-shot request: the worked exemplar pair plus the live
// prompt for this user. Static material comes first so the model reads the
// persona, knowledge base, and guidelines before the user's profile and the
// task itself.
func (c *Composer) Compose(in Input) (genai.Request, error) {
	if in.Profile == nil {
		return genai.Request{}, fmt.Errorf("compose: profile is required")
	}

	profileJSON, err := renderProfile(in.Profile)
	if err != nil {
		return genai.Request{}, fmt.Errorf("compose: serialize profile: %w", err)
	}

	planURL := fmt.Sprintf("%s/plans/%s", c.baseURL, in.PlanID)
	prompt := render(
		in.Window.Today.Format(models.DateLayout),
		in.Window.UpTo.Format(models.DateLayout),
		planURL,
		profileJSON,
	)

	return genai.Request{
		ExemplarInput:  exemplarInput(),
		ExemplarOutput: exemplarOutput,
		Prompt:         prompt,
	}, nil
}

// render assembles the full prompt text from the static sections and the live
// request values.
func render(today, upTo, planURL, profileJSON string) string {
	sections := []string{
		systemPrompt,
		"# Knowledge base\n\n" + knowledgeBase,
		"# Guidelines for a good training plan\n\n" + guidelines,
		fmt.Sprintf("Today is %s. Each week begins on Monday and ends on Sunday. Write your plan starting from tomorrow to the end of this week and then for the next two weeks up to (%s).", today, upTo),
		"The following is the user's profile:\n" + profileJSON,
		"Write a training plan for the user.\n\n" + instructions + "\n\n" + strings.ReplaceAll(formatSection, "{plan_url}", planURL),
	}
	return strings.Join(sections, "\n\n===\n\n")
}

// profileView is the serialized shape of a profile inside the prompt. Unlike
// the storage model it never omits fields: a null value tells the model the
// information is missing, which reads differently than the field not existing.
type profileView struct {
	Name                 string   `json:"name"`
	Age                  *int     `json:"age"`
	Feet                 *int     `json:"feet"`
	Inches               *int     `json:"inches"`
	WeightLbs            *int     `json:"weight_lbs"`
	Goals                []string `json:"goals"`
	GoalsDetails         *string  `json:"goals_details"`
	RaceName             *string  `json:"race_name"`
	RaceDate             *string  `json:"race_date"`
	RaceDistance         *string  `json:"race_distance"`
	TimeGoal             *string  `json:"time_goal"`
	RunningExperience    *string  `json:"running_experience"`
	RoutineDaysPerWeek   *string  `json:"routine_days_per_week"`
	RoutineMilesPerWeek  *string  `json:"routine_miles_per_week"`
	RoutineEasyPace      *string  `json:"routine_easy_pace"`
	RoutineLongestRun    *string  `json:"routine_longest_run"`
	RecentRaceResults    *string  `json:"recent_race_results"`
	ExtraTraining        []string `json:"extra_training"`
	Diet                 []string `json:"diet"`
	Injuries             *string  `json:"injuries"`
	PreferredLongRunDays []string `json:"preferred_long_run_days"`
	PreferredWorkoutDays []string `json:"preferred_workout_days"`
	PreferredRestDays    []string `json:"preferred_rest_days"`
	OtherObligations     *string  `json:"other_obligations"`
	PastProblems         []string `json:"past_problems"`
	MoreInfo             *string  `json:"more_info"`
}

func renderProfile(p *models.Profile) (string, error) {
	view := profileView{
		Name:                 p.Name,
		Age:                  p.Age,
		Feet:                 p.HeightFeet,
		Inches:               p.HeightInches,
		WeightLbs:            p.WeightLbs,
		Goals:                emptyToNil(p.Goals),
		GoalsDetails:         blankToNil(p.GoalsDetails),
		RaceName:             blankToNil(p.RaceName),
		RaceDate:             blankToNil(p.RaceDate),
		RaceDistance:         blankToNil(p.RaceDistance),
		TimeGoal:             blankToNil(p.TimeGoal),
		RunningExperience:    blankToNil(p.RunningExperience),
		RoutineDaysPerWeek:   blankToNil(p.RoutineDaysPerWeek),
		RoutineMilesPerWeek:  blankToNil(p.RoutineMilesPerWeek),
		RoutineEasyPace:      blankToNil(p.RoutineEasyPace),
		RoutineLongestRun:    blankToNil(p.RoutineLongestRun),
		RecentRaceResults:    blankToNil(p.RecentRaceResults),
		ExtraTraining:        emptyToNil(p.ExtraTraining),
		Diet:                 emptyToNil(p.Diet),
		Injuries:             blankToNil(p.Injuries),
		PreferredLongRunDays: emptyToNil(p.PreferredLongRunDays),
		PreferredWorkoutDays: emptyToNil(p.PreferredWorkoutDays),
		PreferredRestDays:    emptyToNil(p.PreferredRestDays),
		OtherObligations:     blankToNil(p.OtherObligations),
		PastProblems:         emptyToNil(p.PastProblems),
		MoreInfo:             blankToNil(p.MoreInfo),
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func blankToNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func emptyToNil(xs []string) []string {
	if len(xs) == 0 {
		return nil
	}
	return xs
}
