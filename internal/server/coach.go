package server

import (
	"encoding/json"
	"net/http"

	"ai-personal-trainer/internal/llm"
)

type editPlanRequest struct {
	Day      string         `json:"day"`
	Messages []llm.ChatTurn `json:"messages"`
}

func (s *Server) handleRollingPlan(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "No authenticated user found")
		return
	}

	result, err := s.coach.GetOrGenerateRollingPlan(r.Context(), u.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEditPlan(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "No authenticated user found")
		return
	}

	var req editPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		respondError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	result, err := s.coach.EditDayPlan(r.Context(), u.ID, req.Day, req.Messages)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
