package coach

import (
	"context"
	_ "embed"
	"log"
	"time"
)

//go:embed refine_prompt.md
var refinePrompt string

type refinePromptData struct {
	PlanJSON     string
	Age          int
	Gender       string
	Units        string
	RecoveryJSON string
}

// refineDay adjusts an existing plan's intensity and notes based on the
// latest recovery sample, preserving its structural fields. Refinement
// failure is non-fatal: a slightly stale plan beats no plan, so any model
// or parse error falls back to the original unmodified plan.
func (c *Coach) refineDay(ctx context.Context, plan DayPlan, cctx Context) DayPlan {
	recoveryJSON := `"No Data"`
	if latest := cctx.LatestRecovery(); latest != nil {
		recoveryJSON = mustJSON([]RecoverySummary{*latest})
	}

	prompt, err := renderPrompt("refine", refinePrompt, refinePromptData{
		PlanJSON:     mustJSON(plan),
		Age:          cctx.Profile.Age,
		Gender:       cctx.Profile.Gender,
		Units:        cctx.Profile.Units,
		RecoveryJSON: recoveryJSON,
	})
	if err != nil {
		log.Printf("Refinement failed: %v", err)
		return plan
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		log.Printf("Refinement failed: %v", err)
		return plan
	}
	c.recordUsage("Refiner", resp.Usage, time.Since(start))

	refined, err := parseDayPlan(resp.Content)
	if err != nil {
		log.Printf("Refinement failed: %v", err)
		return plan
	}

	// Refinement may only touch intensity and notes framing; the plan keeps
	// addressing the same date and schedule block.
	refined.Date = plan.Date
	refined.BlockType = plan.BlockType
	return refined
}
