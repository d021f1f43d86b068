package strava

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository is a database-backed store for synced activities.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertNew persists activities not yet stored, keyed by strava_id.
// Returns the number of newly inserted rows.
func (r *Repository) InsertNew(ctx context.Context, userID int64, activities []Activity) (int, error) {
	inserted := 0
	for _, a := range activities {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM strava_activities WHERE strava_id = ?`, a.StravaID).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return inserted, fmt.Errorf("failed to check activity %d: %w", a.StravaID, err)
		}

		_, err = r.db.ExecContext(ctx, `
			INSERT INTO strava_activities
				(user_id, strava_id, name, distance, moving_time, total_elevation_gain, type, start_date, average_heartrate, suffer_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, userID, a.StravaID, a.Name, a.Distance, a.MovingTime, a.ElevationGain, a.Type, a.StartDate, a.AverageHeartrate, a.SufferScore)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert activity %d: %w", a.StravaID, err)
		}
		inserted++
	}
	return inserted, nil
}

// ListSince returns the user's activities starting on or after since,
// ordered by start date.
func (r *Repository) ListSince(ctx context.Context, userID int64, since time.Time) ([]Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, strava_id, name, distance, moving_time, total_elevation_gain, type, start_date, average_heartrate, suffer_score
		FROM strava_activities
		WHERE user_id = ? AND start_date >= ?
		ORDER BY start_date
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.StravaID, &a.Name, &a.Distance, &a.MovingTime, &a.ElevationGain, &a.Type, &a.StartDate, &a.AverageHeartrate, &a.SufferScore); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
