package goals_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ai-personal-trainer/internal/database"
	"ai-personal-trainer/internal/goals"
	"ai-personal-trainer/internal/user"
)

func setupTestRepo(t *testing.T) (*goals.Repository, int64) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := user.NewRepository(db.SQL).Create(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return goals.NewRepository(db.SQL), u.ID
}

func TestCreateAndListGoals(t *testing.T) {
	repo, userID := setupTestRepo(t)
	ctx := context.Background()

	target := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, goals.Goal{
		UserID:      userID,
		Description: "Run a marathon",
		Type:        "event",
		TargetDate:  &target,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("Expected assigned ID")
	}
	if created.Status != "active" {
		t.Errorf("Expected default status active, got %q", created.Status)
	}

	list, err := repo.List(ctx, userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 goal, got %d", len(list))
	}
	if list[0].TargetDate == nil || !list[0].TargetDate.Equal(target) {
		t.Errorf("Target date did not roundtrip: %+v", list[0].TargetDate)
	}
}

func TestCompletingGoalUpdatesStatus(t *testing.T) {
	repo, userID := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, goals.Goal{UserID: userID, Description: "Stay lean", Type: "preference"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	done := true
	updated, err := repo.Update(ctx, userID, created.ID, goals.GoalUpdate{IsCompleted: &done})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != "completed" || !updated.IsCompleted {
		t.Errorf("Expected completed goal, got %+v", updated)
	}

	// Completed goals drop out of the active list fed to the coach.
	active, err := repo.ListActive(ctx, userID)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected no active goals, got %d", len(active))
	}

	undone := false
	updated, err = repo.Update(ctx, userID, created.ID, goals.GoalUpdate{IsCompleted: &undone})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != "active" {
		t.Errorf("Expected reactivated goal, got %+v", updated)
	}
}

func TestUpdateAndDeleteMissingGoal(t *testing.T) {
	repo, userID := setupTestRepo(t)
	ctx := context.Background()

	desc := "nope"
	if _, err := repo.Update(ctx, userID, 9999, goals.GoalUpdate{Description: &desc}); !errors.Is(err, goals.ErrGoalNotFound) {
		t.Errorf("Expected goals.ErrGoalNotFound on update, got %v", err)
	}
	if err := repo.Delete(ctx, userID, 9999); !errors.Is(err, goals.ErrGoalNotFound) {
		t.Errorf("Expected goals.ErrGoalNotFound on delete, got %v", err)
	}
}
