// Package api provides HTTP handlers for planpipe endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/emmihealth/planpipe/internal/models"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("planpipe is healthy", nil))
}

// planRequest is the body of POST /plans.
type planRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) requestPlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.requestPlanHandler: processing plan request", "method", r.Method, "path", r.URL.Path)

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.requestPlanHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.UserID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: user_id"))
		return
	}

	// Reject obviously doomed requests up front. The generator re-checks
	// both conditions when the run actually starts.
	profile, err := s.store.GetProfile(req.UserID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			slog.Warn("Server.requestPlanHandler: profile not found", "user_id", req.UserID)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Profile not found"))
			return
		}
		slog.Error("Server.requestPlanHandler: failed to load profile", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load profile"))
		return
	}
	if !profile.HasName() || !profile.OnboardingComplete {
		slog.Warn("Server.requestPlanHandler: preconditions not met", "user_id", req.UserID)
		writeJSONResponse(w, http.StatusUnprocessableEntity, models.Error("User must have a first name and a completed onboarding"))
		return
	}

	active, err := s.store.HasActiveGeneration(req.UserID, "")
	if err != nil {
		slog.Error("Server.requestPlanHandler: failed to check in-flight generations", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check in-flight generations"))
		return
	}
	if active {
		slog.Warn("Server.requestPlanHandler: generation already in progress", "user_id", req.UserID)
		writeJSONResponse(w, http.StatusConflict, models.Error("A plan generation is already in progress for this user"))
		return
	}

	plan := &models.Plan{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePlan(plan); err != nil {
		slog.Error("Server.requestPlanHandler: failed to create plan", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create plan"))
		return
	}

	planID := plan.ID
	submitted := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.generationTimeout)
		defer cancel()
		s.generator.Run(ctx, planID)
	})
	if !submitted {
		slog.Error("Server.requestPlanHandler: generation queue full", "plan_id", planID)
		if markErr := s.store.MarkPlanError(planID, "generation queue is full"); markErr != nil {
			slog.Error("Server.requestPlanHandler: failed to fail rejected plan", "error", markErr, "plan_id", planID)
		}
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Generation queue is full, try again later"))
		return
	}

	slog.Info("Server.requestPlanHandler: generation queued", "plan_id", planID, "user_id", req.UserID)
	writeJSONResponse(w, http.StatusAccepted, models.Accepted(planView(plan)))
}

func (s *Server) getPlanHandler(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("planID")
	plan, err := s.store.GetPlan(planID)
	if err != nil {
		if errors.Is(err, models.ErrPlanNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Plan not found"))
			return
		}
		slog.Error("Server.getPlanHandler: failed to load plan", "error", err, "plan_id", planID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load plan"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(planView(plan)))
}

func (s *Server) listPlansHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	plans, err := s.store.ListPlansByUser(userID)
	if err != nil {
		slog.Error("Server.listPlansHandler: failed to list plans", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list plans"))
		return
	}
	views := make([]map[string]interface{}, 0, len(plans))
	for _, plan := range plans {
		views = append(views, planView(plan))
	}
	writeJSONResponse(w, http.StatusOK, models.Success(views))
}

func (s *Server) listWorkoutsHandler(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("planID")
	if _, err := s.store.GetPlan(planID); err != nil {
		if errors.Is(err, models.ErrPlanNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Plan not found"))
			return
		}
		slog.Error("Server.listWorkoutsHandler: failed to load plan", "error", err, "plan_id", planID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load plan"))
		return
	}
	workouts, err := s.store.GetWorkoutsByPlan(planID)
	if err != nil {
		slog.Error("Server.listWorkoutsHandler: failed to list workouts", "error", err, "plan_id", planID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list workouts"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(workouts))
}

func (s *Server) getWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	workoutID := r.PathValue("workoutID")
	workout, err := s.store.GetWorkout(workoutID)
	if err != nil {
		if errors.Is(err, models.ErrWorkoutNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Workout not found"))
			return
		}
		slog.Error("Server.getWorkoutHandler: failed to load workout", "error", err, "workout_id", workoutID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load workout"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(workout))
}

func (s *Server) trackWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	workoutID := r.PathValue("workoutID")
	slog.Debug("Server.trackWorkoutHandler: processing tracking update", "workout_id", workoutID)

	var tracking models.WorkoutTracking
	if err := json.NewDecoder(r.Body).Decode(&tracking); err != nil {
		slog.Warn("Server.trackWorkoutHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := s.store.UpdateWorkoutTracking(workoutID, tracking); err != nil {
		switch {
		case errors.Is(err, models.ErrWorkoutNotFound):
			writeJSONResponse(w, http.StatusNotFound, models.Error("Workout not found"))
		case errors.Is(err, models.ErrInvalidCompletion), errors.Is(err, models.ErrInvalidDifficulty):
			slog.Warn("Server.trackWorkoutHandler: validation failed", "error", err, "workout_id", workoutID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		default:
			slog.Error("Server.trackWorkoutHandler: failed to update tracking", "error", err, "workout_id", workoutID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update workout"))
		}
		return
	}

	workout, err := s.store.GetWorkout(workoutID)
	if err != nil {
		slog.Error("Server.trackWorkoutHandler: failed to reload workout", "error", err, "workout_id", workoutID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reload workout"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Workout tracking updated", workout))
}

func (s *Server) saveProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	userID := r.PathValue("userID")
	slog.Debug("Server.saveProfileHandler: processing profile update", "user_id", userID)

	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		slog.Warn("Server.saveProfileHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	// The path, not the body, names the user.
	profile.UserID = userID

	if err := s.store.SaveProfile(&profile); err != nil {
		slog.Error("Server.saveProfileHandler: failed to save profile", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save profile"))
		return
	}
	slog.Info("Server.saveProfileHandler: profile saved", "user_id", userID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Profile saved", &profile))
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Profile not found"))
			return
		}
		slog.Error("Server.getProfileHandler: failed to load profile", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load profile"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(profile))
}

// planView augments the stored plan with its derived lifecycle status.
func planView(plan *models.Plan) map[string]interface{} {
	view := map[string]interface{}{
		"id":         plan.ID,
		"user_id":    plan.UserID,
		"created_at": plan.CreatedAt,
		"status":     plan.Status(),
	}
	if plan.GenerationCompletedAt != nil {
		view["generation_completed_at"] = plan.GenerationCompletedAt
	}
	if plan.GenerationError != "" {
		view["generation_error"] = plan.GenerationError
	}
	if plan.PlanInfo != nil {
		view["plan_info"] = plan.PlanInfo
	}
	return view
}
