package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/emmihealth/planpipe/internal/analytics"
	"github.com/emmihealth/planpipe/internal/genai"
	"github.com/emmihealth/planpipe/internal/messaging"
	"github.com/emmihealth/planpipe/internal/models"
	"github.com/emmihealth/planpipe/internal/parser"
	"github.com/emmihealth/planpipe/internal/prompt"
	"github.com/emmihealth/planpipe/internal/store"
)

// ModelClient is the slice of the model layer the generator depends on.
type ModelClient interface {
	Generate(ctx context.Context, req genai.Request, params genai.Params) (string, error)
	Reformat(ctx context.Context, text string, parseErr string) (string, error)
}

// Opts holds optional generator dependencies.
type Opts struct {
	Messaging       messaging.Service
	Tracker         analytics.Tracker
	MaxOutputTokens int64
}

// Option configures the generator.
type Option func(*Opts)

// WithMessaging sets the notification channel for completed plans.
func WithMessaging(s messaging.Service) Option {
	return func(o *Opts) { o.Messaging = s }
}

// WithTracker sets the analytics tracker.
func WithTracker(t analytics.Tracker) Option {
	return func(o *Opts) { o.Tracker = t }
}

// WithMaxOutputTokens overrides the response size limit for generation.
func WithMaxOutputTokens(n int64) Option {
	return func(o *Opts) { o.MaxOutputTokens = n }
}

// Generator runs the full plan generation pipeline for a single plan.
type Generator struct {
	store           store.Store
	composer        *prompt.Composer
	model           ModelClient
	msg             messaging.Service
	tracker         analytics.Tracker
	maxOutputTokens int64
}

// NewGenerator creates a Generator. Messaging and tracking default to no-ops.
func NewGenerator(st store.Store, composer *prompt.Composer, model ModelClient, options ...Option) *Generator {
	opts := Opts{
		Messaging:       messaging.NopService{},
		Tracker:         analytics.NopTracker{},
		MaxOutputTokens: genai.DefaultMaxOutputTokens,
	}
	for _, opt := range options {
		opt(&opts)
	}
	slog.Debug("Generator.NewGenerator: creating generator",
		"hasStore", st != nil,
		"hasComposer", composer != nil,
		"hasModel", model != nil,
		"max_output_tokens", opts.MaxOutputTokens)
	return &Generator{
		store:           st,
		composer:        composer,
		model:           model,
		msg:             opts.Messaging,
		tracker:         opts.Tracker,
		maxOutputTokens: opts.MaxOutputTokens,
	}
}

// Run generates the plan identified by planID. On success it returns the
// completed plan. It returns nil both when another generation for the same
// user is already in flight (a no-op) and when generation fails, in which
// case the failure is recorded on the plan row.
func (g *Generator) Run(ctx context.Context, planID string) *models.Plan {
	plan, err := g.store.GetPlan(planID)
	if err != nil {
		slog.Error("Generator.Run: failed to load plan", "error", err, "plan_id", planID)
		return nil
	}

	result, err := g.generate(ctx, plan)
	if err != nil {
		message := fmt.Sprintf("error generating training plan for user %s: %v", plan.UserID, err)
		// Panic errors already carry the stack from the panic site;
		// everything else gets the stack of the failed run appended.
		var pe *panicError
		if !errors.As(err, &pe) {
			message = fmt.Sprintf("%s\n\n%s", message, debug.Stack())
		}
		slog.Error("Generator.Run: generation failed", "error", err, "plan_id", planID, "user_id", plan.UserID)
		if markErr := g.store.MarkPlanError(planID, message); markErr != nil {
			slog.Error("Generator.Run: failed to record generation error", "error", markErr, "plan_id", planID)
		}
		return nil
	}
	return result
}

// generate executes the pipeline body. A nil, nil return means the run was
// skipped because the user already has a generation in flight.
func (g *Generator) generate(ctx context.Context, plan *models.Plan) (result *models.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	profile, err := g.store.GetProfile(plan.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPreconditionNotMet, err)
	}
	if !profile.HasName() || !profile.OnboardingComplete {
		return nil, fmt.Errorf("%w: user must have a first name and a completed onboarding", models.ErrPreconditionNotMet)
	}

	// Advisory guard: one in-flight generation per user.
	active, err := g.store.HasActiveGeneration(plan.UserID, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check in-flight generations: %w", err)
	}
	if active {
		slog.Info("Generator.generate: generation already in progress, skipping", "user_id", plan.UserID, "plan_id", plan.ID)
		return nil, nil
	}

	window := ComputeWindow(plan.CreatedAt, profile.Timezone)
	req, err := g.composer.Compose(prompt.Input{Profile: profile, PlanID: plan.ID, Window: window})
	if err != nil {
		return nil, err
	}

	raw, err := g.model.Generate(ctx, req, genai.Params{MaxOutputTokens: g.maxOutputTokens})
	if err != nil {
		return nil, err
	}

	doc, err := parser.New(g.model.Reformat).Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	workouts, err := buildWorkouts(plan.ID, doc)
	if err != nil {
		return nil, err
	}
	info := doc.Info()
	if err := g.store.SavePlanResult(plan.ID, &info, workouts); err != nil {
		return nil, err
	}
	if err := g.store.MarkPlanCompleted(plan.ID); err != nil {
		return nil, err
	}
	slog.Info("Generator.generate: plan generated", "plan_id", plan.ID, "user_id", plan.UserID, "workouts", len(workouts))

	// Side effects are best-effort: a failed notification or analytics
	// call never fails a completed generation.
	g.notify(ctx, profile, doc.SMSMessage, plan.ID)
	if err := g.tracker.Track(ctx, plan.UserID, "Training Plan Generated", map[string]interface{}{
		"plan_id": plan.ID,
	}); err != nil {
		slog.Error("Generator.generate: failed to track generation event", "error", err, "plan_id", plan.ID)
	}

	return g.store.GetPlan(plan.ID)
}

func (g *Generator) notify(ctx context.Context, profile *models.Profile, message, planID string) {
	if profile.PhoneNumber == "" {
		slog.Warn("Generator.notify: cannot send notification, no phone number", "plan_id", planID)
		return
	}
	if message == "" {
		slog.Warn("Generator.notify: cannot send notification, plan has no message", "plan_id", planID)
		return
	}
	if err := g.msg.SendMessage(ctx, profile.PhoneNumber, message); err != nil {
		slog.Error("Generator.notify: failed to send plan notification", "error", err, "plan_id", planID)
		return
	}
	slog.Info("Generator.notify: plan notification sent", "plan_id", planID)
}

// panicError carries the stack captured at the panic site so the recorded
// error points at the real failure, not the recovery handler.
type panicError struct {
	value interface{}
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.value, e.stack)
}

// buildWorkouts flattens the parsed document into workout rows.
func buildWorkouts(planID string, doc *models.PlanDocument) ([]models.Workout, error) {
	var workouts []models.Workout
	for _, week := range doc.Weeks {
		for _, day := range week.Dates {
			date, err := time.Parse(models.DateLayout, day.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid workout date %q: %w", day.Date, err)
			}
			for _, info := range day.Workouts {
				workouts = append(workouts, models.Workout{
					ID:               uuid.NewString(),
					PlanID:           planID,
					Date:             date,
					Info:             info,
					CompletionStatus: models.CompletionNotCompleted,
				})
			}
		}
	}
	return workouts, nil
}
