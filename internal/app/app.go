// Package app wires the trainer's components together for the entrypoints.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"ai-personal-trainer/internal/coach"
	"ai-personal-trainer/internal/config"
	"ai-personal-trainer/internal/database"
	"ai-personal-trainer/internal/datasync"
	"ai-personal-trainer/internal/goals"
	"ai-personal-trainer/internal/llm"
	"ai-personal-trainer/internal/metrics"
	"ai-personal-trainer/internal/schedule"
	"ai-personal-trainer/internal/strava"
	"ai-personal-trainer/internal/user"
	"ai-personal-trainer/internal/whoop"
)

// App holds the fully wired application graph.
type App struct {
	Cfg *config.Config
	DB  *database.DB

	Users    *user.Repository
	Goals    *goals.Repository
	Schedule *schedule.Repository
	Metrics  *metrics.Store

	StravaAPI *strava.Client
	WhoopAPI  *whoop.Client
	Syncer    *datasync.Service
	Coach     *coach.Coach

	gemini *llm.GeminiClient
	cron   *cron.Cron
}

// New builds the application graph from configuration: database and
// migrations, repositories, API clients, the Gemini client, and the coach.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	users := user.NewRepository(db.SQL)
	goalRepo := goals.NewRepository(db.SQL)
	scheduleRepo := schedule.NewRepository(db.SQL)
	activityRepo := strava.NewRepository(db.SQL)
	recoveryRepo := whoop.NewRecoveryRepository(db.SQL)
	workoutRepo := whoop.NewWorkoutRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	var stravaAPI *strava.Client
	if cfg.StravaClientID != "" {
		stravaAPI = strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret)
	}
	var whoopAPI *whoop.Client
	if cfg.WhoopClientID != "" {
		redirectURI := "http://localhost" + cfg.HTTPAddr + "/auth/whoop/callback"
		whoopAPI = whoop.NewClient(cfg.WhoopClientID, cfg.WhoopClientSecret, redirectURI)
	}

	syncer := datasync.NewService(users, stravaAPI, activityRepo, whoopAPI, recoveryRepo, workoutRepo)
	contexts := coach.NewContextBuilder(users, activityRepo, recoveryRepo, workoutRepo, goalRepo)
	aiCoach := coach.NewCoach(gemini, gemini, scheduleRepo, users, contexts, syncer, metricsStore)

	return &App{
		Cfg:       cfg,
		DB:        db,
		Users:     users,
		Goals:     goalRepo,
		Schedule:  scheduleRepo,
		Metrics:   metricsStore,
		StravaAPI: stravaAPI,
		WhoopAPI:  whoopAPI,
		Syncer:    syncer,
		Coach:     aiCoach,
		gemini:    gemini,
	}, nil
}

// StartSyncCron schedules the daily external-data sync for the deployment
// user. No-op if already started.
func (a *App) StartSyncCron() error {
	if a.cron != nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(a.Cfg.SyncSchedule, func() {
		ctx := context.Background()
		u, err := a.Users.First(ctx)
		if err != nil {
			log.Printf("Sync cron: no user to sync: %v", err)
			return
		}
		summary := a.Syncer.SyncAll(ctx, u.ID)
		log.Printf("Sync cron: strava synced=%d err=%q whoop synced=%d err=%q",
			summary.Strava.Synced, summary.Strava.Error, summary.Whoop.Synced, summary.Whoop.Error)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync cron %q: %w", a.Cfg.SyncSchedule, err)
	}

	c.Start()
	a.cron = c
	log.Printf("Scheduled external-data sync: %s", a.Cfg.SyncSchedule)
	return nil
}

// Close releases all held resources.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.gemini != nil {
		a.gemini.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
