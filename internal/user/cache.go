package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ai-personal-trainer/internal/coach"
)

// Load reads the user's rolling plan cache. Implements coach.CacheStore.
func (r *Repository) Load(ctx context.Context, userID int64) (coach.RollingCache, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT plan_today, plan_tomorrow, last_plan_date FROM users WHERE id = ?
	`, userID)

	var todayJSON, tomorrowJSON sql.NullString
	var cache coach.RollingCache
	err := row.Scan(&todayJSON, &tomorrowJSON, &cache.LastPlanDate)
	if err == sql.ErrNoRows {
		return coach.RollingCache{}, ErrUserNotFound
	}
	if err != nil {
		return coach.RollingCache{}, fmt.Errorf("failed to load plan cache for user %d: %w", userID, err)
	}

	if cache.PlanToday, err = decodePlan(todayJSON); err != nil {
		return coach.RollingCache{}, fmt.Errorf("failed to decode plan_today for user %d: %w", userID, err)
	}
	if cache.PlanTomorrow, err = decodePlan(tomorrowJSON); err != nil {
		return coach.RollingCache{}, fmt.Errorf("failed to decode plan_tomorrow for user %d: %w", userID, err)
	}
	return cache, nil
}

// Commit persists the rolling plan cache as a single UPDATE, so the two slots
// and last_plan_date change together or not at all.
func (r *Repository) Commit(ctx context.Context, userID int64, cache coach.RollingCache) error {
	todayJSON, err := encodePlan(cache.PlanToday)
	if err != nil {
		return fmt.Errorf("failed to encode plan_today: %w", err)
	}
	tomorrowJSON, err := encodePlan(cache.PlanTomorrow)
	if err != nil {
		return fmt.Errorf("failed to encode plan_tomorrow: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET plan_today = ?, plan_tomorrow = ?, last_plan_date = ? WHERE id = ?
	`, todayJSON, tomorrowJSON, cache.LastPlanDate, userID)
	if err != nil {
		return fmt.Errorf("failed to commit plan cache for user %d: %w", userID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Profile builds the read-only profile snapshot the coach feeds into prompt
// construction. Implements coach.ProfileSource.
func (r *Repository) Profile(ctx context.Context, userID int64) (coach.Profile, error) {
	u, err := r.Get(ctx, userID)
	if err != nil {
		return coach.Profile{}, err
	}
	return coach.Profile{
		Age:         u.Age,
		Gender:      u.Gender,
		Height:      u.HeightCM,
		Weight:      u.WeightKG,
		Units:       u.Units(),
		Preferences: u.Settings,
	}, nil
}

func decodePlan(raw sql.NullString) (*coach.DayPlan, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var plan coach.DayPlan
	if err := json.Unmarshal([]byte(raw.String), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func encodePlan(plan *coach.DayPlan) (any, error) {
	if plan == nil {
		return nil, nil
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
