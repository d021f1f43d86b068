package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-personal-trainer/internal/llm"
)

func editTurns() []llm.ChatTurn {
	return []llm.ChatTurn{{Role: "user", Content: "Swap squats for lunges"}}
}

func TestEditDayPlanPreservesDateAndBlockType(t *testing.T) {
	chatGen := &mockChatGen{content: `{
		"reply": "Swapped squats for lunges.",
		"revised_plan": {"date": "2099-12-31", "block_type": "Swimming", "focus": "Legs", "routine": "1. Lunges 3x10"}
	}`}
	cache := &mockCache{cache: validCache()}

	c := newTestCoach(&mockTextGen{}, chatGen, runningRestSchedule(), cache)
	result, err := c.EditDayPlan(context.Background(), 1, "today", editTurns())
	if err != nil {
		t.Fatalf("EditDayPlan failed: %v", err)
	}

	if result.Reply != "Swapped squats for lunges." {
		t.Errorf("Unexpected reply: %q", result.Reply)
	}
	// The model tried to move the plan to another date and block; both are
	// restored from the cached plan.
	if result.Plan.Date != "2025-06-10" || result.Plan.BlockType != "Running" {
		t.Errorf("Edit changed identity fields: %+v", result.Plan)
	}
	if result.Plan.Routine != "1. Lunges 3x10" {
		t.Errorf("Expected revised routine, got %q", result.Plan.Routine)
	}
	if cache.commits != 1 {
		t.Errorf("Expected 1 commit, got %d", cache.commits)
	}
	if cache.cache.PlanToday.Focus != "Legs" {
		t.Errorf("Revision not persisted: %+v", cache.cache.PlanToday)
	}
}

func TestEditDayPlanRejectsUnknownDay(t *testing.T) {
	c := newTestCoach(&mockTextGen{}, &mockChatGen{}, runningRestSchedule(), &mockCache{})
	_, err := c.EditDayPlan(context.Background(), 1, "yesterday", editTurns())
	if err == nil {
		t.Fatal("Expected error for unknown day key")
	}
}

func TestEditDayPlanEmptySlot(t *testing.T) {
	chatGen := &mockChatGen{}
	cache := &mockCache{cache: RollingCache{
		PlanToday:    &DayPlan{Date: "2025-06-10", BlockType: "Running"},
		LastPlanDate: "2025-06-10",
	}}

	c := newTestCoach(&mockTextGen{}, chatGen, runningRestSchedule(), cache)
	result, err := c.EditDayPlan(context.Background(), 1, "tomorrow", editTurns())
	if err != nil {
		t.Fatalf("EditDayPlan failed: %v", err)
	}

	if chatGen.calls != 0 {
		t.Errorf("Expected no model call for empty slot, got %d", chatGen.calls)
	}
	if cache.commits != 0 {
		t.Errorf("Expected no commit for empty slot, got %d", cache.commits)
	}
	if !strings.Contains(result.Reply, "No plan exists") {
		t.Errorf("Unexpected reply: %q", result.Reply)
	}
}

func TestEditDayPlanModelFailureFallsBack(t *testing.T) {
	chatGen := &mockChatGen{err: errors.New("model unavailable")}
	cache := &mockCache{cache: validCache()}

	c := newTestCoach(&mockTextGen{}, chatGen, runningRestSchedule(), cache)
	result, err := c.EditDayPlan(context.Background(), 1, "today", editTurns())
	if err != nil {
		t.Fatalf("Model failure should be non-fatal, got: %v", err)
	}

	if !strings.Contains(result.Reply, "Sorry") {
		t.Errorf("Expected apologetic reply, got %q", result.Reply)
	}
	if result.Plan == nil || result.Plan.Focus != "Cached today" {
		t.Errorf("Expected original plan returned, got %+v", result.Plan)
	}
	if cache.commits != 0 {
		t.Errorf("Expected no commit on failure, got %d", cache.commits)
	}
}

func TestEditDayPlanMalformedResponseFallsBack(t *testing.T) {
	chatGen := &mockChatGen{content: "sure, I'll update that for you!"}
	cache := &mockCache{cache: validCache()}

	c := newTestCoach(&mockTextGen{}, chatGen, runningRestSchedule(), cache)
	result, err := c.EditDayPlan(context.Background(), 1, "today", editTurns())
	if err != nil {
		t.Fatalf("Malformed response should be non-fatal, got: %v", err)
	}
	if !strings.Contains(result.Reply, "Sorry") {
		t.Errorf("Expected apologetic reply, got %q", result.Reply)
	}
	if cache.commits != 0 {
		t.Errorf("Expected no commit on parse failure, got %d", cache.commits)
	}
}

func TestEditDayPlanDefaultReply(t *testing.T) {
	chatGen := &mockChatGen{content: `{"revised_plan": {"focus": "Tempo"}}`}
	cache := &mockCache{cache: validCache()}

	c := newTestCoach(&mockTextGen{}, chatGen, runningRestSchedule(), cache)
	result, err := c.EditDayPlan(context.Background(), 1, "today", editTurns())
	if err != nil {
		t.Fatalf("EditDayPlan failed: %v", err)
	}
	if result.Reply != "Plan updated." {
		t.Errorf("Expected default reply, got %q", result.Reply)
	}
}
