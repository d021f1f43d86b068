package acceptance_tests

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ai-personal-trainer/internal/coach"
	"ai-personal-trainer/internal/database"
	"ai-personal-trainer/internal/goals"
	"ai-personal-trainer/internal/llm"
	"ai-personal-trainer/internal/schedule"
	"ai-personal-trainer/internal/strava"
	"ai-personal-trainer/internal/user"
	"ai-personal-trainer/internal/whoop"
)

// --- Mock LLM Client ---

type mockLLMClient struct {
	generateContentCalls int
	generateChatCalls    int
}

func (m *mockLLMClient) GenerateContent(_ context.Context, _ string) (llm.ContentResponse, error) {
	m.generateContentCalls++
	return llm.ContentResponse{
		Content: `{"intensity": "Medium", "focus": "General fitness", "routine": "1. Warm up 10 min\n2. Main set", "notes": "Stay hydrated"}`,
	}, nil
}

func (m *mockLLMClient) GenerateChat(_ context.Context, _ string, _ []llm.ChatTurn) (llm.ContentResponse, error) {
	m.generateChatCalls++
	return llm.ContentResponse{
		Content: `{"reply": "Done, swapped it.", "revised_plan": {"date": "1999-01-01", "block_type": "Bogus", "focus": "Revised focus", "routine": "1. New routine"}}`,
	}, nil
}

// --- Acceptance Test ---

// TestRollingPlanWorkflow drives the full stack against a real SQLite store:
// schedule init, first plan generation, a cache hit, and a conversational
// edit, with only the model mocked out.
func TestRollingPlanWorkflow(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "acceptance.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	users := user.NewRepository(db.SQL)
	goalRepo := goals.NewRepository(db.SQL)
	scheduleRepo := schedule.NewRepository(db.SQL)
	activityRepo := strava.NewRepository(db.SQL)
	recoveryRepo := whoop.NewRecoveryRepository(db.SQL)
	workoutRepo := whoop.NewWorkoutRepository(db.SQL)

	u, err := users.Create(ctx, "acceptance@example.com")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if _, err := scheduleRepo.InitWeek(ctx, u.ID, time.Now(), schedule.DefaultWeeklyTemplate); err != nil {
		t.Fatalf("Failed to init schedule: %v", err)
	}

	model := &mockLLMClient{}
	contexts := coach.NewContextBuilder(users, activityRepo, recoveryRepo, workoutRepo, goalRepo)
	trainer := coach.NewCoach(model, model, scheduleRepo, users, contexts, nil, nil)

	// 1. First invocation generates both days and commits the cache.
	first, err := trainer.GetOrGenerateRollingPlan(ctx, u.ID)
	if err != nil {
		t.Fatalf("First rolling plan failed: %v", err)
	}
	if model.generateContentCalls != 2 {
		t.Errorf("Expected 2 generation calls, got %d", model.generateContentCalls)
	}
	today := time.Now().Format("2006-01-02")
	if first.Today.Date != today {
		t.Errorf("Expected today plan dated %s, got %s", today, first.Today.Date)
	}
	scheduledBlock, err := scheduleRepo.BlockFor(ctx, u.ID, today)
	if err != nil {
		t.Fatalf("BlockFor failed: %v", err)
	}
	if first.Today.BlockType != scheduledBlock.Type {
		t.Errorf("Plan block type %q disagrees with schedule %q", first.Today.BlockType, scheduledBlock.Type)
	}

	// 2. Second invocation is a pure cache hit: no new model calls.
	second, err := trainer.GetOrGenerateRollingPlan(ctx, u.ID)
	if err != nil {
		t.Fatalf("Second rolling plan failed: %v", err)
	}
	if model.generateContentCalls != 2 {
		t.Errorf("Expected cache hit with no new calls, got %d total", model.generateContentCalls)
	}
	if second.Today != first.Today || second.Tomorrow != first.Tomorrow {
		t.Error("Cache hit returned different plans")
	}

	// 3. A conversational edit revises content but keeps the plan's identity.
	edit, err := trainer.EditDayPlan(ctx, u.ID, "today", []llm.ChatTurn{
		{Role: "user", Content: "Make it easier please"},
	})
	if err != nil {
		t.Fatalf("EditDayPlan failed: %v", err)
	}
	if model.generateChatCalls != 1 {
		t.Errorf("Expected 1 chat call, got %d", model.generateChatCalls)
	}
	if edit.Plan.Focus != "Revised focus" {
		t.Errorf("Expected revised focus, got %q", edit.Plan.Focus)
	}
	if edit.Plan.Date != first.Today.Date || edit.Plan.BlockType != first.Today.BlockType {
		t.Errorf("Edit changed identity fields: %+v", edit.Plan)
	}

	// 4. The revision is persisted and survives the next cache hit.
	third, err := trainer.GetOrGenerateRollingPlan(ctx, u.ID)
	if err != nil {
		t.Fatalf("Third rolling plan failed: %v", err)
	}
	if model.generateContentCalls != 2 {
		t.Errorf("Edited plan should still be a cache hit, got %d calls", model.generateContentCalls)
	}
	if third.Today.Focus != "Revised focus" {
		t.Errorf("Edit not persisted: %+v", third.Today)
	}
}
