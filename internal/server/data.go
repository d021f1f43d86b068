package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-personal-trainer/internal/goals"
)

type goalRequest struct {
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	TargetDate  *time.Time `json:"target_date"`
	IsCompleted *bool      `json:"is_completed"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondJSON(w, http.StatusOK, []goals.Goal{})
		return
	}
	list, err := s.goals.List(r.Context(), u.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []goals.Goal{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g := goals.Goal{
		UserID:      u.ID,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
		TargetDate:  req.TargetDate,
	}
	if req.IsCompleted != nil {
		g.IsCompleted = *req.IsCompleted
	}

	created, err := s.goals.Create(r.Context(), g)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	goalID, err := strconv.ParseInt(chi.URLParam(r, "goalID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var upd struct {
		Description *string    `json:"description"`
		Type        *string    `json:"type"`
		Status      *string    `json:"status"`
		TargetDate  *time.Time `json:"target_date"`
		IsCompleted *bool      `json:"is_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.goals.Update(r.Context(), u.ID, goalID, goals.GoalUpdate{
		Description: upd.Description,
		Type:        upd.Type,
		Status:      upd.Status,
		TargetDate:  upd.TargetDate,
		IsCompleted: upd.IsCompleted,
	})
	if err != nil {
		if errors.Is(err, goals.ErrGoalNotFound) {
			respondError(w, http.StatusNotFound, "Goal not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	goalID, err := strconv.ParseInt(chi.URLParam(r, "goalID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	if err := s.goals.Delete(r.Context(), u.ID, goalID); err != nil {
		if errors.Is(err, goals.ErrGoalNotFound) {
			respondError(w, http.StatusNotFound, "Goal not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Goal deleted"})
}

// --- Weekly schedule template (stored in user settings) ---

func (s *Server) handleGetWeeklyTemplate(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"schedule": map[string]any{}})
		return
	}
	saved, ok := u.Settings["schedule"].(map[string]any)
	if !ok {
		saved = map[string]any{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"schedule": saved})
}

func (s *Server) handleSaveWeeklyTemplate(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	var body struct {
		Schedule map[string]any `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := u.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	settings["schedule"] = body.Schedule
	if err := s.users.SaveSettings(r.Context(), u.ID, settings); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"schedule": body.Schedule})
}

// --- External service sync ---

func (s *Server) handleSyncStrava(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil || u.StravaAccessToken == "" {
		respondError(w, http.StatusUnauthorized, "User not authenticated with Strava")
		return
	}
	outcome, err := s.syncer.SyncStrava(r.Context(), u.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if outcome.Error != "" {
		respondError(w, http.StatusInternalServerError, outcome.Error)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Synced " + strconv.Itoa(outcome.Synced) + " new activities",
		"count":   outcome.Synced,
	})
}

func (s *Server) handleSyncWhoop(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil || u.WhoopAccessToken == "" {
		respondError(w, http.StatusUnauthorized, "User not authenticated with WHOOP")
		return
	}
	outcome, err := s.syncer.SyncWhoop(r.Context(), u.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if outcome.Error != "" {
		respondError(w, http.StatusInternalServerError, outcome.Error)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Synced " + strconv.Itoa(outcome.Synced) + " new records",
		"count":   outcome.Synced,
	})
}
