package goals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrGoalNotFound is returned when operating on a goal that does not exist.
var ErrGoalNotFound = errors.New("goal not found")

// Repository is a database-backed store for goals.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new goals Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new goal and returns it with its assigned ID.
func (r *Repository) Create(ctx context.Context, g Goal) (Goal, error) {
	if g.Status == "" {
		g.Status = "active"
	}
	g.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, description, type, status, target_date, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.UserID, g.Description, g.Type, g.Status, nullableTime(g.TargetDate), g.IsCompleted, g.CreatedAt)
	if err != nil {
		return Goal{}, fmt.Errorf("failed to create goal: %w", err)
	}
	g.ID, _ = res.LastInsertId()
	return g, nil
}

// List returns all goals for a user.
func (r *Repository) List(ctx context.Context, userID int64) ([]Goal, error) {
	return r.list(ctx, `SELECT id, user_id, description, type, status, target_date, is_completed, created_at
		FROM goals WHERE user_id = ? ORDER BY created_at`, userID)
}

// ListActive returns the user's goals with active status.
func (r *Repository) ListActive(ctx context.Context, userID int64) ([]Goal, error) {
	return r.list(ctx, `SELECT id, user_id, description, type, status, target_date, is_completed, created_at
		FROM goals WHERE user_id = ? AND status = 'active' ORDER BY created_at`, userID)
}

func (r *Repository) list(ctx context.Context, query string, userID int64) ([]Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var result []Goal
	for rows.Next() {
		var g Goal
		var target sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.Description, &g.Type, &g.Status, &target, &g.IsCompleted, &g.CreatedAt); err != nil {
			return nil, err
		}
		if target.Valid {
			t := target.Time
			g.TargetDate = &t
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// GoalUpdate carries optional field updates for a goal.
type GoalUpdate struct {
	Description *string
	Type        *string
	Status      *string
	TargetDate  *time.Time
	IsCompleted *bool
}

// Update applies the non-nil fields of upd to the goal. Completing a goal also
// moves its status to completed, and vice versa.
func (r *Repository) Update(ctx context.Context, userID, goalID int64, upd GoalUpdate) (Goal, error) {
	g, err := r.get(ctx, userID, goalID)
	if err != nil {
		return Goal{}, err
	}

	if upd.Description != nil {
		g.Description = *upd.Description
	}
	if upd.Type != nil {
		g.Type = *upd.Type
	}
	if upd.Status != nil {
		g.Status = *upd.Status
	}
	if upd.TargetDate != nil {
		g.TargetDate = upd.TargetDate
	}
	if upd.IsCompleted != nil {
		g.IsCompleted = *upd.IsCompleted
		if g.IsCompleted {
			g.Status = "completed"
		} else {
			g.Status = "active"
		}
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE goals SET description = ?, type = ?, status = ?, target_date = ?, is_completed = ?
		WHERE id = ? AND user_id = ?
	`, g.Description, g.Type, g.Status, nullableTime(g.TargetDate), g.IsCompleted, goalID, userID)
	if err != nil {
		return Goal{}, fmt.Errorf("failed to update goal %d: %w", goalID, err)
	}
	return g, nil
}

// Delete removes a goal by ID.
func (r *Repository) Delete(ctx context.Context, userID, goalID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal %d: %w", goalID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *Repository) get(ctx context.Context, userID, goalID int64) (Goal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, type, status, target_date, is_completed, created_at
		FROM goals WHERE id = ? AND user_id = ?
	`, goalID, userID)

	var g Goal
	var target sql.NullTime
	err := row.Scan(&g.ID, &g.UserID, &g.Description, &g.Type, &g.Status, &target, &g.IsCompleted, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return Goal{}, err
	}
	if target.Valid {
		t := target.Time
		g.TargetDate = &t
	}
	return g, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
