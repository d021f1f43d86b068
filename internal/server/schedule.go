package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-personal-trainer/internal/schedule"
)

func (s *Server) handleInitSchedule(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	tmpl := schedule.TemplateFromSettings(u.Settings)
	blocks, err := s.schedule.InitWeek(r.Context(), u.ID, time.Now(), tmpl)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondJSON(w, http.StatusOK, []schedule.Block{})
		return
	}

	now := time.Now()
	start := now.Format("2006-01-02")
	end := now.AddDate(0, 0, 6).Format("2006-01-02")
	if v := r.URL.Query().Get("start"); v != "" {
		start = v
	}
	if v := r.URL.Query().Get("end"); v != "" {
		end = v
	}

	// Backfill the coming week from the weekly template so a fresh user sees a
	// populated schedule without an explicit init call.
	tmpl := schedule.TemplateFromSettings(u.Settings)
	if err := s.schedule.FillMissing(r.Context(), u.ID, now, tmpl); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	blocks, err := s.schedule.ListRange(r.Context(), u.ID, start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if blocks == nil {
		blocks = []schedule.Block{}
	}
	respondJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	blockID, err := strconv.ParseInt(chi.URLParam(r, "blockID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid block id")
		return
	}

	var req struct {
		Type            string `json:"type"`
		DurationMinutes int    `json:"planned_duration_minutes"`
		Notes           string `json:"notes"`
		IsCompleted     bool   `json:"is_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	block, err := s.schedule.Update(r.Context(), u.ID, blockID, req.Type, req.DurationMinutes, req.Notes, req.IsCompleted)
	if err != nil {
		if errors.Is(err, schedule.ErrBlockNotFound) {
			respondError(w, http.StatusNotFound, "Block not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, block)
}
