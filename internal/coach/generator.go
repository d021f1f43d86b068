package coach

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"ai-personal-trainer/internal/schedule"
)

//go:embed generate_prompt.md
var generatePrompt string

type generatePromptData struct {
	Date           string
	Age            int
	Gender         string
	Units          string
	GoalsJSON      string
	BlockJSON      string
	RecoveriesJSON string
	ActivitiesJSON string
}

// generateDay produces a fresh plan for one date. The scheduled block's type
// and duration are stated as hard constraints in the prompt, and the block
// type is force-overwritten afterwards: the schedule is authoritative, not
// the model. Model or parse failures are fatal for this date.
func (c *Coach) generateDay(ctx context.Context, userID int64, date string, cctx Context) (DayPlan, error) {
	block, err := c.schedule.BlockFor(ctx, userID, date)
	if err != nil {
		return DayPlan{}, fmt.Errorf("failed to resolve schedule block for %s: %w", date, err)
	}

	prompt, err := buildGeneratePrompt(date, block, cctx)
	if err != nil {
		return DayPlan{}, err
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return DayPlan{}, fmt.Errorf("failed to generate plan for %s: %w", date, err)
	}
	c.recordUsage("Generator", resp.Usage, time.Since(start))

	plan, err := parseDayPlan(resp.Content)
	if err != nil {
		return DayPlan{}, err
	}

	plan.Date = date
	plan.BlockType = block.Type
	return plan, nil
}

func buildGeneratePrompt(date string, block schedule.Block, cctx Context) (string, error) {
	notes := block.Notes
	if notes == "" {
		notes = "No planned block"
	}
	blockInfo := map[string]any{
		"date":     date,
		"type":     block.Type,
		"duration": block.DurationMinutes,
		"notes":    notes,
	}

	return renderPrompt("generate", generatePrompt, generatePromptData{
		Date:           date,
		Age:            cctx.Profile.Age,
		Gender:         cctx.Profile.Gender,
		Units:          cctx.Profile.Units,
		GoalsJSON:      mustJSONIndent(cctx.Goals.Preferences),
		BlockJSON:      mustJSON(blockInfo),
		RecoveriesJSON: mustJSONIndent(lastN(cctx.Recoveries, 3)),
		ActivitiesJSON: mustJSONIndent(lastN(cctx.Activities, 3)),
	})
}

func renderPrompt(name, tmplText string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(tmplText)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func mustJSONIndent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}
