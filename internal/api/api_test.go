package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmihealth/planpipe/internal/genai"
	"github.com/emmihealth/planpipe/internal/generation"
	"github.com/emmihealth/planpipe/internal/models"
	"github.com/emmihealth/planpipe/internal/prompt"
	"github.com/emmihealth/planpipe/internal/store"
)

// stubModel fails every generation quickly so async runs reach a terminal
// state without talking to a real model.
type stubModel struct{}

func (stubModel) Generate(ctx context.Context, req genai.Request, params genai.Params) (string, error) {
	return "", errors.New("stub model")
}

func (stubModel) Reformat(ctx context.Context, text string, parseErr string) (string, error) {
	return "", errors.New("stub model")
}

type testServer struct {
	store   *store.InMemoryStore
	handler http.Handler
	pool    *generation.WorkerPool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewInMemoryStore()
	gen := generation.NewGenerator(st, prompt.NewComposer(), stubModel{})
	pool := generation.NewWorkerPool(1, 4)
	t.Cleanup(pool.Stop)
	srv := NewServer(st, gen, pool)
	return &testServer{store: st, handler: srv.Handler(), pool: pool}
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func readyProfile() *models.Profile {
	return &models.Profile{
		UserID:             "user-1",
		Name:               "Dana",
		Timezone:           "America/New_York",
		OnboardingComplete: true,
	}
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeResponse(t, rr).Status)
}

func TestProfileRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/users/user-1/profile", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(http.MethodPut, "/users/user-1/profile", readyProfile())
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(http.MethodGet, "/users/user-1/profile", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Dana", result["name"])
}

func TestSaveProfileUserIDComesFromPath(t *testing.T) {
	ts := newTestServer(t)
	profile := readyProfile()
	profile.UserID = "someone-else"
	rr := ts.do(http.MethodPut, "/users/user-1/profile", profile)
	assert.Equal(t, http.StatusOK, rr.Code)

	saved, err := ts.store.GetProfile("user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", saved.UserID)
}

func TestRequestPlanMissingProfile(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodPost, "/plans", planRequest{UserID: "user-1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestPlanPreconditionNotMet(t *testing.T) {
	ts := newTestServer(t)
	profile := readyProfile()
	profile.OnboardingComplete = false
	require.NoError(t, ts.store.SaveProfile(profile))

	rr := ts.do(http.MethodPost, "/plans", planRequest{UserID: "user-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRequestPlanConflict(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.SaveProfile(readyProfile()))
	require.NoError(t, ts.store.CreatePlan(&models.Plan{
		ID:        "in-flight",
		UserID:    "user-1",
		CreatedAt: time.Now(),
	}))

	rr := ts.do(http.MethodPost, "/plans", planRequest{UserID: "user-1"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRequestPlanAccepted(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.SaveProfile(readyProfile()))

	rr := ts.do(http.MethodPost, "/plans", planRequest{UserID: "user-1"})
	require.Equal(t, http.StatusAccepted, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, "accepted", resp.Status)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	planID, _ := result["id"].(string)
	require.NotEmpty(t, planID)

	// The stub model fails, so the queued run drives the plan to the
	// error state.
	assert.Eventually(t, func() bool {
		plan, err := ts.store.GetPlan(planID)
		return err == nil && plan.Status() == models.GenerationError
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRequestPlanInvalidBody(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/plans", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPlanNotFound(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetPlanIncludesStatus(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.CreatePlan(&models.Plan{
		ID:        "plan-1",
		UserID:    "user-1",
		CreatedAt: time.Now(),
	}))

	rr := ts.do(http.MethodGet, "/plans/plan-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	result, ok := decodeResponse(t, rr).Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.GenerationInProgress), result["status"])

	require.NoError(t, ts.store.MarkPlanCompleted("plan-1"))
	rr = ts.do(http.MethodGet, "/plans/plan-1", nil)
	result, ok = decodeResponse(t, rr).Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.GenerationCompleted), result["status"])
}

func TestListPlans(t *testing.T) {
	ts := newTestServer(t)
	base := time.Now()
	for i, id := range []string{"plan-1", "plan-2"} {
		require.NoError(t, ts.store.CreatePlan(&models.Plan{
			ID:        id,
			UserID:    "user-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rr := ts.do(http.MethodGet, "/users/user-1/plans", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	result, ok := decodeResponse(t, rr).Result.([]interface{})
	require.True(t, ok)
	require.Len(t, result, 2)
	first, _ := result[0].(map[string]interface{})
	assert.Equal(t, "plan-2", first["id"])
}

func TestListWorkouts(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.CreatePlan(&models.Plan{
		ID:        "plan-1",
		UserID:    "user-1",
		CreatedAt: time.Now(),
	}))
	info := models.PlanInfo{Goal: "base building"}
	workouts := []models.Workout{{
		ID:     "w1",
		PlanID: "plan-1",
		Date:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Info:   models.WorkoutInfo{Type: "running", Title: "Easy Run"},
	}}
	require.NoError(t, ts.store.SavePlanResult("plan-1", &info, workouts))

	rr := ts.do(http.MethodGet, "/plans/plan-1/workouts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	result, ok := decodeResponse(t, rr).Result.([]interface{})
	require.True(t, ok)
	assert.Len(t, result, 1)

	rr = ts.do(http.MethodGet, "/plans/missing/workouts", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrackWorkout(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.CreatePlan(&models.Plan{
		ID:        "plan-1",
		UserID:    "user-1",
		CreatedAt: time.Now(),
	}))
	info := models.PlanInfo{Goal: "base building"}
	workouts := []models.Workout{{
		ID:     "w1",
		PlanID: "plan-1",
		Date:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Info:   models.WorkoutInfo{Type: "running", Title: "Easy Run"},
	}}
	require.NoError(t, ts.store.SavePlanResult("plan-1", &info, workouts))

	difficulty := 7
	rr := ts.do(http.MethodPatch, "/workouts/w1", models.WorkoutTracking{
		CompletionStatus: models.CompletionCompleted,
		Difficulty:       &difficulty,
		Notes:            "felt strong",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	workout, err := ts.store.GetWorkout("w1")
	require.NoError(t, err)
	assert.Equal(t, models.CompletionCompleted, workout.CompletionStatus)
	require.NotNil(t, workout.Difficulty)
	assert.Equal(t, 7, *workout.Difficulty)
	assert.Equal(t, "felt strong", workout.Notes)

	// Invalid values are rejected.
	bad := 11
	rr = ts.do(http.MethodPatch, "/workouts/w1", models.WorkoutTracking{
		CompletionStatus: models.CompletionCompleted,
		Difficulty:       &bad,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodPatch, "/workouts/missing", models.WorkoutTracking{
		CompletionStatus: models.CompletionSkipped,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
