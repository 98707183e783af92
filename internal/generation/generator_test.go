package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmihealth/planpipe/internal/genai"
	"github.com/emmihealth/planpipe/internal/models"
	"github.com/emmihealth/planpipe/internal/prompt"
	"github.com/emmihealth/planpipe/internal/store"
)

const modelOutput = "Here is your plan.\n\n```yaml\n" + `reasoning: Dana is building toward a 10K with three run days per week.
goal: Build a consistent aerobic base for the 10K in August.
sms_message: "Your new training plan is ready! View it here: https://emmi.com/plans/plan-42"
weeks:
  - goal: Ease into the routine.
    week_start_date: "2025-06-02"
    dates:
      - date: "2025-06-03"
        workouts:
          - type: running
            title: Easy Run
            summary: 25 minutes at a conversational pace.
            duration: 25
            distance: null
            focus: null
            effort: "3"
            activity: null
            steps:
              - name: Warm-Up
                description: Walk briskly for 5 minutes.
              - name: Run
                description: Run 25 minutes easy.
      - date: "2025-06-05"
        workouts:
          - type: strength
            title: Core Circuit
            summary: Two rounds of core work.
            duration: 20
            distance: null
            focus: core
            effort: "4"
            activity: null
            steps:
              - name: Plank
                description: Hold 3 x 45 seconds.
  - goal: Add a little volume.
    week_start_date: "2025-06-09"
    dates:
      - date: "2025-06-10"
        workouts:
          - type: running
            title: Easy Run
            summary: 30 minutes at a conversational pace.
            duration: 30
            distance: null
            focus: null
            effort: "3"
            activity: null
            steps:
              - name: Run
                description: Run 30 minutes easy.
` + "```"

type fakeModel struct {
	mu sync.Mutex

	generateOut string
	generateErr error
	requests    []genai.Request

	reformatOut  string
	reformatErr  error
	reformatFn   func(text, parseErr string) (string, error)
	reformatCall int

	panics bool
}

func (m *fakeModel) Generate(ctx context.Context, req genai.Request, params genai.Params) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panics {
		panic("model blew up")
	}
	m.requests = append(m.requests, req)
	return m.generateOut, m.generateErr
}

func (m *fakeModel) Reformat(ctx context.Context, text string, parseErr string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reformatCall++
	if m.reformatFn != nil {
		return m.reformatFn(text, parseErr)
	}
	return m.reformatOut, m.reformatErr
}

type fakeMessaging struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

type sentMessage struct {
	to   string
	body string
}

func (m *fakeMessaging) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

func (m *fakeMessaging) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{to: to, body: body})
	return nil
}

type fakeTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

type trackedEvent struct {
	distinctID string
	event      string
	props      map[string]interface{}
}

func (t *fakeTracker) Track(ctx context.Context, distinctID, event string, props map[string]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, trackedEvent{distinctID: distinctID, event: event, props: props})
	return nil
}

func testProfile() *models.Profile {
	return &models.Profile{
		UserID:             "user-1",
		Name:               "Dana",
		Timezone:           "America/New_York",
		PhoneNumber:        "+15555550100",
		OnboardingComplete: true,
	}
}

// seedPlan creates the profile and an in-progress plan requested on Monday
// 2025-06-02 at noon Eastern.
func seedPlan(t *testing.T, st store.Store) *models.Plan {
	t.Helper()
	require.NoError(t, st.SaveProfile(testProfile()))
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	plan := &models.Plan{
		ID:        "plan-42",
		UserID:    "user-1",
		CreatedAt: time.Date(2025, 6, 2, 12, 0, 0, 0, loc),
	}
	require.NoError(t, st.CreatePlan(plan))
	return plan
}

func TestRunHappyPath(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	model := &fakeModel{generateOut: modelOutput}
	msg := &fakeMessaging{}
	tracker := &fakeTracker{}
	gen := NewGenerator(st, prompt.NewComposer(), model, WithMessaging(msg), WithTracker(tracker))

	result := gen.Run(context.Background(), "plan-42")
	require.NotNil(t, result)
	assert.Equal(t, models.GenerationCompleted, result.Status())
	require.NotNil(t, result.PlanInfo)
	assert.Equal(t, "Build a consistent aerobic base for the 10K in August.", result.PlanInfo.Goal)
	assert.Len(t, result.PlanInfo.Weeks, 2)

	// The prompt window covers the rest of this week plus two full weeks.
	require.Len(t, model.requests, 1)
	assert.Contains(t, model.requests[0].Prompt, "Today is 2025-06-02.")
	assert.Contains(t, model.requests[0].Prompt, "(2025-06-15)")
	assert.Contains(t, model.requests[0].Prompt, "https://emmi.com/plans/plan-42")
	assert.Contains(t, model.requests[0].Prompt, `"name": "Dana"`)

	workouts, err := st.GetWorkoutsByPlan("plan-42")
	require.NoError(t, err)
	require.Len(t, workouts, 3)
	for _, w := range workouts {
		assert.NotEmpty(t, w.ID)
		assert.Equal(t, "plan-42", w.PlanID)
		assert.Equal(t, models.CompletionNotCompleted, w.CompletionStatus)
	}
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), workouts[0].Date)

	require.Len(t, msg.sent, 1)
	assert.Equal(t, "+15555550100", msg.sent[0].to)
	assert.Contains(t, msg.sent[0].body, "Your new training plan is ready")

	require.Len(t, tracker.events, 1)
	assert.Equal(t, "user-1", tracker.events[0].distinctID)
	assert.Equal(t, "Training Plan Generated", tracker.events[0].event)
	assert.Equal(t, "plan-42", tracker.events[0].props["plan_id"])
}

func TestRunMalformedOutputRepaired(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	// An unterminated quote breaks the first parse; the repair call
	// returns the well-formed document.
	broken := "```yaml\nreasoning: \"unterminated\nweeks: []\n```"
	model := &fakeModel{generateOut: broken, reformatOut: modelOutput}
	gen := NewGenerator(st, prompt.NewComposer(), model)

	result := gen.Run(context.Background(), "plan-42")
	require.NotNil(t, result)
	assert.Equal(t, models.GenerationCompleted, result.Status())
	assert.Equal(t, 1, model.reformatCall)
}

func TestRunRepairExhaustedMarksError(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	broken := "```yaml\nreasoning: \"unterminated\nweeks: []\n```"
	model := &fakeModel{generateOut: broken, reformatOut: broken}
	gen := NewGenerator(st, prompt.NewComposer(), model)

	result := gen.Run(context.Background(), "plan-42")
	assert.Nil(t, result)

	plan, err := st.GetPlan("plan-42")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationError, plan.Status())
	assert.Contains(t, plan.GenerationError, "error generating training plan for user user-1")
}

func TestRunDuplicateRequestIsNoOp(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	// A second in-progress plan for the same user makes plan-42's run a
	// no-op without touching the model.
	require.NoError(t, st.CreatePlan(&models.Plan{
		ID:        "plan-43",
		UserID:    "user-1",
		CreatedAt: time.Now(),
	}))
	model := &fakeModel{generateOut: modelOutput}
	gen := NewGenerator(st, prompt.NewComposer(), model)

	result := gen.Run(context.Background(), "plan-42")
	assert.Nil(t, result)
	assert.Empty(t, model.requests)

	plan, err := st.GetPlan("plan-42")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationInProgress, plan.Status())
}

func TestRunPreconditionFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	profile := testProfile()
	profile.OnboardingComplete = false
	require.NoError(t, st.SaveProfile(profile))
	require.NoError(t, st.CreatePlan(&models.Plan{ID: "plan-42", UserID: "user-1", CreatedAt: time.Now()}))
	model := &fakeModel{generateOut: modelOutput}
	gen := NewGenerator(st, prompt.NewComposer(), model)

	result := gen.Run(context.Background(), "plan-42")
	assert.Nil(t, result)
	assert.Empty(t, model.requests)

	plan, err := st.GetPlan("plan-42")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationError, plan.Status())
	assert.Contains(t, plan.GenerationError, models.ErrPreconditionNotMet.Error())
}

func TestRunMissingProfileMarksError(t *testing.T) {
	st := store.NewInMemoryStore()
	require.NoError(t, st.CreatePlan(&models.Plan{ID: "plan-42", UserID: "user-1", CreatedAt: time.Now()}))
	gen := NewGenerator(st, prompt.NewComposer(), &fakeModel{generateOut: modelOutput})

	result := gen.Run(context.Background(), "plan-42")
	assert.Nil(t, result)

	plan, err := st.GetPlan("plan-42")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationError, plan.Status())
}

func TestRunNotificationFailureDoesNotFailPlan(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	model := &fakeModel{generateOut: modelOutput}
	msg := &fakeMessaging{sendErr: errors.New("twilio down")}
	gen := NewGenerator(st, prompt.NewComposer(), model, WithMessaging(msg))

	result := gen.Run(context.Background(), "plan-42")
	require.NotNil(t, result)
	assert.Equal(t, models.GenerationCompleted, result.Status())
}

func TestRunNoPhoneNumberSkipsNotification(t *testing.T) {
	st := store.NewInMemoryStore()
	profile := testProfile()
	profile.PhoneNumber = ""
	require.NoError(t, st.SaveProfile(profile))
	require.NoError(t, st.CreatePlan(&models.Plan{ID: "plan-42", UserID: "user-1", CreatedAt: time.Now()}))
	model := &fakeModel{generateOut: modelOutput}
	msg := &fakeMessaging{}
	gen := NewGenerator(st, prompt.NewComposer(), model, WithMessaging(msg))

	result := gen.Run(context.Background(), "plan-42")
	require.NotNil(t, result)
	assert.Equal(t, models.GenerationCompleted, result.Status())
	assert.Empty(t, msg.sent)
}

func TestRunModelErrorMarksPlanError(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	model := &fakeModel{generateErr: errors.New("api unavailable")}
	gen := NewGenerator(st, prompt.NewComposer(), model)

	result := gen.Run(context.Background(), "plan-42")
	assert.Nil(t, result)

	plan, err := st.GetPlan("plan-42")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationError, plan.Status())
	assert.Contains(t, plan.GenerationError, "api unavailable")
	// The recorded failure carries a stack trace alongside the message.
	assert.Contains(t, plan.GenerationError, "goroutine ")
}

func TestRunRecoversFromPanic(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPlan(t, st)
	model := &fakeModel{panics: true}
	gen := NewGenerator(st, prompt.NewComposer(), model)

	result := gen.Run(context.Background(), "plan-42")
	assert.Nil(t, result)

	plan, err := st.GetPlan("plan-42")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationError, plan.Status())
	assert.Contains(t, plan.GenerationError, "panic")
	assert.Contains(t, plan.GenerationError, "goroutine ")
}

func TestRunUnknownPlan(t *testing.T) {
	st := store.NewInMemoryStore()
	gen := NewGenerator(st, prompt.NewComposer(), &fakeModel{})
	assert.Nil(t, gen.Run(context.Background(), "missing"))
}

func TestBuildWorkoutsRejectsBadDate(t *testing.T) {
	doc := &models.PlanDocument{
		Weeks: []models.PlanWeek{{
			Dates: []models.PlanDay{{Date: "June 3rd", Workouts: []models.WorkoutInfo{{Title: "Run"}}}},
		}},
	}
	_, err := buildWorkouts("p1", doc)
	assert.Error(t, err)
}
