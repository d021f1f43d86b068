package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrBlockNotFound is returned when updating a block that does not exist.
var ErrBlockNotFound = errors.New("block not found")

// Repository is a database-backed store for workout blocks.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new schedule Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// BlockFor resolves the planned block for a calendar date. Dates without a
// stored block resolve to the implicit rest default. Pure read.
func (r *Repository) BlockFor(ctx context.Context, userID int64, date string) (Block, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, type, planned_duration_minutes, notes, is_completed
		FROM workout_blocks
		WHERE user_id = ? AND date = ?
	`, userID, date)

	var b Block
	err := row.Scan(&b.ID, &b.UserID, &b.Date, &b.Type, &b.DurationMinutes, &b.Notes, &b.IsCompleted)
	if err == sql.ErrNoRows {
		return RestBlock(date), nil
	}
	if err != nil {
		return Block{}, fmt.Errorf("failed to look up block for %s: %w", date, err)
	}
	return b, nil
}

// ListRange returns all blocks for a user in [start, end], ordered by date.
func (r *Repository) ListRange(ctx context.Context, userID int64, start, end string) ([]Block, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, type, planned_duration_minutes, notes, is_completed
		FROM workout_blocks
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.UserID, &b.Date, &b.Type, &b.DurationMinutes, &b.Notes, &b.IsCompleted); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// InitWeek resets and recreates blocks for the 7 days starting at start,
// using the given weekly template.
func (r *Repository) InitWeek(ctx context.Context, userID int64, start time.Time, tmpl WeeklyTemplate) ([]Block, error) {
	if tmpl == nil {
		tmpl = DefaultWeeklyTemplate
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		slot := tmpl.SlotFor(day)

		if _, err := tx.ExecContext(ctx, `DELETE FROM workout_blocks WHERE user_id = ? AND date = ?`, userID, date); err != nil {
			return nil, fmt.Errorf("failed to clear block for %s: %w", date, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workout_blocks (user_id, date, type, planned_duration_minutes, is_completed)
			VALUES (?, ?, ?, ?, 0)
		`, userID, date, slot.Type, slot.Minutes); err != nil {
			return nil, fmt.Errorf("failed to insert block for %s: %w", date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedule init: %w", err)
	}

	end := start.AddDate(0, 0, 6).Format("2006-01-02")
	return r.ListRange(ctx, userID, start.Format("2006-01-02"), end)
}

// FillMissing creates blocks from the template for any of the next 7 days that
// have none, without touching existing blocks.
func (r *Repository) FillMissing(ctx context.Context, userID int64, start time.Time, tmpl WeeklyTemplate) error {
	if tmpl == nil {
		tmpl = DefaultWeeklyTemplate
	}

	end := start.AddDate(0, 0, 6).Format("2006-01-02")
	existing, err := r.ListRange(ctx, userID, start.Format("2006-01-02"), end)
	if err != nil {
		return err
	}
	existingDates := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		existingDates[b.Date] = struct{}{}
	}

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		if _, ok := existingDates[date]; ok {
			continue
		}
		slot := tmpl.SlotFor(day)
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO workout_blocks (user_id, date, type, planned_duration_minutes, is_completed)
			VALUES (?, ?, ?, ?, 0)
		`, userID, date, slot.Type, slot.Minutes); err != nil {
			return fmt.Errorf("failed to fill block for %s: %w", date, err)
		}
	}
	return nil
}

// Update overwrites a block's editable fields.
func (r *Repository) Update(ctx context.Context, userID, blockID int64, blockType string, minutes int, notes string, completed bool) (Block, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workout_blocks
		SET type = ?, planned_duration_minutes = ?, notes = ?, is_completed = ?
		WHERE id = ? AND user_id = ?
	`, blockType, minutes, notes, completed, blockID, userID)
	if err != nil {
		return Block{}, fmt.Errorf("failed to update block %d: %w", blockID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return Block{}, ErrBlockNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, type, planned_duration_minutes, notes, is_completed
		FROM workout_blocks WHERE id = ?
	`, blockID)
	var b Block
	if err := row.Scan(&b.ID, &b.UserID, &b.Date, &b.Type, &b.DurationMinutes, &b.Notes, &b.IsCompleted); err != nil {
		return Block{}, err
	}
	return b, nil
}
