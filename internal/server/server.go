// Package server exposes the HTTP API: auth and OAuth flows, goal and
// schedule management, data sync, and the AI coach endpoints.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-personal-trainer/internal/coach"
	"ai-personal-trainer/internal/config"
	"ai-personal-trainer/internal/datasync"
	"ai-personal-trainer/internal/goals"
	"ai-personal-trainer/internal/schedule"
	"ai-personal-trainer/internal/strava"
	"ai-personal-trainer/internal/user"
	"ai-personal-trainer/internal/whoop"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	cfg       *config.Config
	users     *user.Repository
	goals     *goals.Repository
	schedule  *schedule.Repository
	coach     *coach.Coach
	syncer    *datasync.Service
	stravaAPI *strava.Client
	whoopAPI  *whoop.Client
}

// New creates a new Server.
func New(
	cfg *config.Config,
	users *user.Repository,
	goalRepo *goals.Repository,
	scheduleRepo *schedule.Repository,
	aiCoach *coach.Coach,
	syncer *datasync.Service,
	stravaAPI *strava.Client,
	whoopAPI *whoop.Client,
) *Server {
	return &Server{
		cfg:       cfg,
		users:     users,
		goals:     goalRepo,
		schedule:  scheduleRepo,
		coach:     aiCoach,
		syncer:    syncer,
		stravaAPI: stravaAPI,
		whoopAPI:  whoopAPI,
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Personal AI Trainer API is running"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/user", s.handleGetUser)
		r.Put("/user/settings", s.handleUpdateSettings)
		r.Get("/strava/login", s.handleStravaLogin)
		r.Get("/strava/callback", s.handleStravaCallback)
		r.Get("/whoop/login", s.handleWhoopLogin)
		r.Get("/whoop/callback", s.handleWhoopCallback)
	})

	r.Route("/data", func(r chi.Router) {
		r.Get("/goals", s.handleListGoals)
		r.Post("/goals", s.handleCreateGoal)
		r.Put("/goals/{goalID}", s.handleUpdateGoal)
		r.Delete("/goals/{goalID}", s.handleDeleteGoal)
		r.Get("/schedule", s.handleGetWeeklyTemplate)
		r.Put("/schedule", s.handleSaveWeeklyTemplate)
		r.Post("/sync/strava", s.handleSyncStrava)
		r.Post("/sync/whoop", s.handleSyncWhoop)
	})

	r.Route("/coach", func(r chi.Router) {
		r.Post("/plan", s.handleRollingPlan)
		r.Post("/edit-plan", s.handleEditPlan)
	})

	r.Route("/schedule", func(r chi.Router) {
		r.Post("/init", s.handleInitSchedule)
		r.Get("/", s.handleListBlocks)
		r.Put("/{blockID}", s.handleUpdateBlock)
	})

	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.FrontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser resolves the single deployment user.
func (s *Server) currentUser(ctx context.Context) (*user.User, error) {
	return s.users.First(ctx)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"detail": msg})
}
