package user

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ai-personal-trainer/internal/coach"
	"ai-personal-trainer/internal/database"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestCacheRoundtrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A new user starts with an empty cache.
	cache, err := repo.Load(ctx, u.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cache.PlanToday != nil || cache.PlanTomorrow != nil || cache.LastPlanDate != "" {
		t.Errorf("Expected empty cache for new user, got %+v", cache)
	}

	want := coach.RollingCache{
		PlanToday:    &coach.DayPlan{Date: "2025-06-10", BlockType: "Running", Focus: "Tempo", Routine: "1. Run"},
		PlanTomorrow: &coach.DayPlan{Date: "2025-06-11", BlockType: "Rest", Notes: "Full rest"},
		LastPlanDate: "2025-06-10",
	}
	if err := repo.Commit(ctx, u.ID, want); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := repo.Load(ctx, u.ID)
	if err != nil {
		t.Fatalf("Load after commit failed: %v", err)
	}
	if got.LastPlanDate != "2025-06-10" {
		t.Errorf("Expected last plan date 2025-06-10, got %q", got.LastPlanDate)
	}
	if got.PlanToday == nil || *got.PlanToday != *want.PlanToday {
		t.Errorf("Today plan did not roundtrip: %+v", got.PlanToday)
	}
	if got.PlanTomorrow == nil || *got.PlanTomorrow != *want.PlanTomorrow {
		t.Errorf("Tomorrow plan did not roundtrip: %+v", got.PlanTomorrow)
	}
}

func TestCommitNilSlot(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	full := coach.RollingCache{
		PlanToday:    &coach.DayPlan{Date: "2025-06-10", BlockType: "Gym"},
		PlanTomorrow: &coach.DayPlan{Date: "2025-06-11", BlockType: "Rest"},
		LastPlanDate: "2025-06-10",
	}
	if err := repo.Commit(ctx, u.ID, full); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Committing a cache with a nil slot clears that column.
	partial := coach.RollingCache{
		PlanToday:    full.PlanToday,
		LastPlanDate: "2025-06-10",
	}
	if err := repo.Commit(ctx, u.ID, partial); err != nil {
		t.Fatalf("Partial commit failed: %v", err)
	}

	got, err := repo.Load(ctx, u.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.PlanTomorrow != nil {
		t.Errorf("Expected tomorrow slot cleared, got %+v", got.PlanTomorrow)
	}
	if got.PlanToday == nil {
		t.Error("Expected today slot preserved")
	}
}

func TestCommitUnknownUser(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Commit(context.Background(), 42, coach.RollingCache{LastPlanDate: "2025-06-10"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileFromUserRow(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	age := 35
	gender := "male"
	if _, err := repo.UpdateProfile(ctx, u.ID, ProfileUpdate{
		Age:      &age,
		Gender:   &gender,
		Settings: map[string]any{"units": "metric", "equipment": "dumbbells"},
	}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	profile, err := repo.Profile(ctx, u.ID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Age != 35 || profile.Gender != "male" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
	if profile.Units != "metric" {
		t.Errorf("Expected metric units, got %q", profile.Units)
	}
	if profile.Preferences["equipment"] != "dumbbells" {
		t.Errorf("Expected settings surfaced as preferences, got %+v", profile.Preferences)
	}
}
