package coach

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"ai-personal-trainer/internal/llm"
)

//go:embed edit_prompt.md
var editPrompt string

type editPromptData struct {
	PlanJSON       string
	Age            int
	Gender         string
	Units          string
	GoalsJSON      string
	RecoveriesJSON string
}

// EditResult is the outcome of a conversational plan edit.
type EditResult struct {
	Reply string   `json:"reply"`
	Plan  *DayPlan `json:"plan"`
}

type editModelResult struct {
	Reply       string          `json:"reply"`
	RevisedPlan json.RawMessage `json:"revised_plan"`
}

// EditDayPlan applies a multi-turn chat revision to one cached day. The
// editor may change only descriptive content: date and block type are
// restored from the pre-edit plan before the revision is persisted. Model
// failure is non-fatal and falls back to the pre-edit plan with an
// explanatory reply.
func (c *Coach) EditDayPlan(ctx context.Context, userID int64, dayKey string, turns []llm.ChatTurn) (EditResult, error) {
	if dayKey != "today" && dayKey != "tomorrow" {
		return EditResult{}, fmt.Errorf("day must be 'today' or 'tomorrow', got %q", dayKey)
	}

	defer c.lockUser(userID)()

	cache, err := c.cache.Load(ctx, userID)
	if err != nil {
		return EditResult{}, fmt.Errorf("failed to load plan cache: %w", err)
	}

	current := cache.PlanToday
	if dayKey == "tomorrow" {
		current = cache.PlanTomorrow
	}
	if current == nil {
		return EditResult{Reply: "No plan exists for this day yet. Generate a plan first."}, nil
	}

	cctx := c.contexts.Build(ctx, userID, c.now())

	system, err := renderPrompt("edit", editPrompt, editPromptData{
		PlanJSON:       mustJSONIndent(current),
		Age:            cctx.Profile.Age,
		Gender:         cctx.Profile.Gender,
		Units:          cctx.Profile.Units,
		GoalsJSON:      mustJSON(cctx.Goals.Preferences),
		RecoveriesJSON: mustJSON(lastN(cctx.Recoveries, 2)),
	})
	if err != nil {
		return EditResult{}, err
	}

	start := time.Now()
	resp, err := c.chatGen.GenerateChat(ctx, system, turns)
	if err != nil {
		return EditResult{Reply: fmt.Sprintf("Sorry, I couldn't process that: %v", err), Plan: current}, nil
	}
	c.recordUsage("Editor", resp.Usage, time.Since(start))

	var modelResult editModelResult
	if err := json.Unmarshal([]byte(resp.Content), &modelResult); err != nil {
		return EditResult{Reply: fmt.Sprintf("Sorry, I couldn't process that: %v", err), Plan: current}, nil
	}

	revised, err := parseDayPlan(string(modelResult.RevisedPlan))
	if err != nil {
		return EditResult{Reply: fmt.Sprintf("Sorry, I couldn't process that: %v", err), Plan: current}, nil
	}

	// The edit may never change which date or schedule block it addresses.
	revised.Date = current.Date
	revised.BlockType = current.BlockType

	if dayKey == "today" {
		cache.PlanToday = &revised
	} else {
		cache.PlanTomorrow = &revised
	}
	if err := c.cache.Commit(ctx, userID, cache); err != nil {
		return EditResult{}, fmt.Errorf("failed to commit plan cache: %w", err)
	}

	reply := modelResult.Reply
	if reply == "" {
		reply = "Plan updated."
	}
	return EditResult{Reply: reply, Plan: &revised}, nil
}
