// Package datasync refreshes externally synced fitness data (Strava
// activities, WHOOP recoveries and workouts) ahead of plan generation.
package datasync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-personal-trainer/internal/coach"
	"ai-personal-trainer/internal/strava"
	"ai-personal-trainer/internal/user"
	"ai-personal-trainer/internal/whoop"
)

const fetchLimit = 30

// Service syncs external data into the local stores. Each provider is synced
// independently so one failure doesn't block the other; the two providers are
// read-only with respect to the plan cache and run concurrently.
type Service struct {
	users      *user.Repository
	stravaAPI  *strava.Client
	activities *strava.Repository
	whoopAPI   *whoop.Client
	recoveries *whoop.RecoveryRepository
	workouts   *whoop.WorkoutRepository
}

// NewService creates a new sync Service. Either API client may be nil when
// that integration is not configured.
func NewService(
	users *user.Repository,
	stravaAPI *strava.Client,
	activities *strava.Repository,
	whoopAPI *whoop.Client,
	recoveries *whoop.RecoveryRepository,
	workouts *whoop.WorkoutRepository,
) *Service {
	return &Service{
		users:      users,
		stravaAPI:  stravaAPI,
		activities: activities,
		whoopAPI:   whoopAPI,
		recoveries: recoveries,
		workouts:   workouts,
	}
}

// SyncAll syncs both providers and reports per-provider outcomes. It never
// returns an error: failures land in the summary. Implements coach.Syncer.
func (s *Service) SyncAll(ctx context.Context, userID int64) coach.SyncSummary {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		msg := err.Error()
		return coach.SyncSummary{
			Strava: coach.ServiceSync{Error: msg},
			Whoop:  coach.ServiceSync{Error: msg},
		}
	}

	var summary coach.SyncSummary
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		summary.Strava = s.syncStravaFor(ctx, u)
	}()
	go func() {
		defer wg.Done()
		summary.Whoop = s.syncWhoopFor(ctx, u)
	}()
	wg.Wait()

	return summary
}

// SyncStrava syncs only Strava activities.
func (s *Service) SyncStrava(ctx context.Context, userID int64) (coach.ServiceSync, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return coach.ServiceSync{}, err
	}
	return s.syncStravaFor(ctx, u), nil
}

// SyncWhoop syncs only WHOOP recoveries and workouts.
func (s *Service) SyncWhoop(ctx context.Context, userID int64) (coach.ServiceSync, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return coach.ServiceSync{}, err
	}
	return s.syncWhoopFor(ctx, u), nil
}

func (s *Service) syncStravaFor(ctx context.Context, u *user.User) coach.ServiceSync {
	if s.stravaAPI == nil || u.StravaAccessToken == "" {
		return coach.ServiceSync{Error: "Not connected"}
	}

	tokens := strava.Tokens{
		AccessToken:  u.StravaAccessToken,
		RefreshToken: u.StravaRefreshToken,
		ExpiresAt:    u.StravaExpiresAt,
	}
	if tokens.Expired(time.Now()) {
		fresh, err := s.stravaAPI.Refresh(ctx, tokens.RefreshToken)
		if err != nil {
			return coach.ServiceSync{Error: fmt.Sprintf("token refresh failed: %v", err)}
		}
		tokens = fresh
		if err := s.users.SaveStravaTokens(ctx, u.ID, fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAt); err != nil {
			return coach.ServiceSync{Error: err.Error()}
		}
	}

	activities, err := s.stravaAPI.FetchActivities(ctx, tokens.AccessToken, fetchLimit)
	if err != nil {
		return coach.ServiceSync{Error: err.Error()}
	}
	count, err := s.activities.InsertNew(ctx, u.ID, activities)
	if err != nil {
		return coach.ServiceSync{Synced: count, Error: err.Error()}
	}
	return coach.ServiceSync{Synced: count}
}

func (s *Service) syncWhoopFor(ctx context.Context, u *user.User) coach.ServiceSync {
	if s.whoopAPI == nil || u.WhoopAccessToken == "" {
		return coach.ServiceSync{Error: "Not connected"}
	}

	tokens := whoop.Tokens{
		AccessToken:  u.WhoopAccessToken,
		RefreshToken: u.WhoopRefreshToken,
		ExpiresAt:    u.WhoopExpiresAt,
	}
	if tokens.Expired(time.Now()) && tokens.RefreshToken != "" {
		fresh, err := s.whoopAPI.Refresh(ctx, tokens.RefreshToken)
		if err != nil {
			return coach.ServiceSync{Error: fmt.Sprintf("token refresh failed: %v", err)}
		}
		tokens = fresh
		if err := s.users.SaveWhoopTokens(ctx, u.ID, fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAt); err != nil {
			return coach.ServiceSync{Error: err.Error()}
		}
	}

	synced := 0
	recoveries, err := s.whoopAPI.FetchRecoveries(ctx, tokens.AccessToken, fetchLimit)
	if err != nil {
		return coach.ServiceSync{Error: err.Error()}
	}
	count, err := s.recoveries.InsertNew(ctx, u.ID, recoveries)
	if err != nil {
		return coach.ServiceSync{Synced: synced, Error: err.Error()}
	}
	synced += count

	workouts, err := s.whoopAPI.FetchWorkouts(ctx, tokens.AccessToken, fetchLimit)
	if err != nil {
		return coach.ServiceSync{Synced: synced, Error: err.Error()}
	}
	count, err = s.workouts.InsertNew(ctx, u.ID, workouts)
	if err != nil {
		return coach.ServiceSync{Synced: synced, Error: err.Error()}
	}
	synced += count

	return coach.ServiceSync{Synced: synced}
}
