package whoop

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecoveryRepository is a database-backed store for synced recoveries.
type RecoveryRepository struct {
	db *sql.DB
}

// NewRecoveryRepository creates a new RecoveryRepository.
func NewRecoveryRepository(db *sql.DB) *RecoveryRepository {
	return &RecoveryRepository{db: db}
}

// InsertNew persists recoveries not yet stored, keyed by whoop_id. A stored
// recovery missing sleep data is backfilled when the fetch now has it.
// Returns the number of newly inserted rows.
func (r *RecoveryRepository) InsertNew(ctx context.Context, userID int64, recoveries []Recovery) (int, error) {
	inserted := 0
	for _, rec := range recoveries {
		var id int64
		var sleep sql.NullInt64
		err := r.db.QueryRowContext(ctx, `SELECT id, sleep_performance FROM whoop_recoveries WHERE whoop_id = ?`, rec.WhoopID).Scan(&id, &sleep)
		if err == nil {
			if !sleep.Valid && rec.SleepPerformance != nil {
				if _, err := r.db.ExecContext(ctx, `UPDATE whoop_recoveries SET sleep_performance = ? WHERE id = ?`, *rec.SleepPerformance, id); err != nil {
					return inserted, fmt.Errorf("failed to backfill sleep for recovery %s: %w", rec.WhoopID, err)
				}
			}
			continue
		}
		if err != sql.ErrNoRows {
			return inserted, fmt.Errorf("failed to check recovery %s: %w", rec.WhoopID, err)
		}

		_, err = r.db.ExecContext(ctx, `
			INSERT INTO whoop_recoveries (user_id, whoop_id, date, recovery_score, resting_heart_rate, hrv, sleep_performance)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, userID, rec.WhoopID, rec.Date, rec.RecoveryScore, rec.RestingHeartRate, rec.HRV, nullableInt(rec.SleepPerformance))
		if err != nil {
			return inserted, fmt.Errorf("failed to insert recovery %s: %w", rec.WhoopID, err)
		}
		inserted++
	}
	return inserted, nil
}

// ListSince returns the user's recoveries dated on or after sinceDate,
// ordered by date.
func (r *RecoveryRepository) ListSince(ctx context.Context, userID int64, sinceDate string) ([]Recovery, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, whoop_id, date, recovery_score, resting_heart_rate, hrv, sleep_performance
		FROM whoop_recoveries
		WHERE user_id = ? AND date >= ?
		ORDER BY date
	`, userID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list recoveries: %w", err)
	}
	defer rows.Close()

	var recoveries []Recovery
	for rows.Next() {
		var rec Recovery
		var sleep sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.WhoopID, &rec.Date, &rec.RecoveryScore, &rec.RestingHeartRate, &rec.HRV, &sleep); err != nil {
			return nil, err
		}
		if sleep.Valid {
			v := int(sleep.Int64)
			rec.SleepPerformance = &v
		}
		recoveries = append(recoveries, rec)
	}
	return recoveries, rows.Err()
}

// WorkoutRepository is a database-backed store for synced workouts.
type WorkoutRepository struct {
	db *sql.DB
}

// NewWorkoutRepository creates a new WorkoutRepository.
func NewWorkoutRepository(db *sql.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// InsertNew persists workouts not yet stored, keyed by whoop_id.
// Returns the number of newly inserted rows.
func (r *WorkoutRepository) InsertNew(ctx context.Context, userID int64, workouts []Workout) (int, error) {
	inserted := 0
	for _, w := range workouts {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM whoop_workouts WHERE whoop_id = ?`, w.WhoopID).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return inserted, fmt.Errorf("failed to check workout %s: %w", w.WhoopID, err)
		}

		_, err = r.db.ExecContext(ctx, `
			INSERT INTO whoop_workouts (user_id, whoop_id, sport_name, start, "end", timezone_offset, strain, average_heart_rate, max_heart_rate, kilojoules)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, userID, w.WhoopID, w.SportName, w.Start, w.End, w.TimezoneOffset, w.Strain, w.AverageHeartRate, w.MaxHeartRate, w.Kilojoules)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert workout %s: %w", w.WhoopID, err)
		}
		inserted++
	}
	return inserted, nil
}

// ListSince returns the user's workouts starting on or after since,
// ordered by start time.
func (r *WorkoutRepository) ListSince(ctx context.Context, userID int64, since time.Time) ([]Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, whoop_id, sport_name, start, "end", timezone_offset, strain, average_heart_rate, max_heart_rate, kilojoules
		FROM whoop_workouts
		WHERE user_id = ? AND start >= ?
		ORDER BY start
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.WhoopID, &w.SportName, &w.Start, &w.End, &w.TimezoneOffset, &w.Strain, &w.AverageHeartRate, &w.MaxHeartRate, &w.Kilojoules); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
