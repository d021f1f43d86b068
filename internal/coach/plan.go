package coach

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const dateLayout = "2006-01-02"

// DayPlan is the generated description of a single day's workout. Every field
// except Date and BlockType is free text produced by the model; all of them are
// flat strings after normalization.
type DayPlan struct {
	Date      string `json:"date"`
	BlockType string `json:"block_type"`
	Intensity string `json:"intensity"` // Low/Medium/High
	Focus     string `json:"focus"`
	Routine   string `json:"routine"` // numbered steps separated by newlines
	Notes     string `json:"notes"`
}

// RollingCache is the persisted two-slot plan window plus the date on which it
// was last fully validated.
type RollingCache struct {
	PlanToday    *DayPlan `json:"plan_today"`
	PlanTomorrow *DayPlan `json:"plan_tomorrow"`
	LastPlanDate string   `json:"last_plan_date"`
}

// parseDayPlan decodes a model response into a DayPlan, flattening any nested
// values the model produced despite being told not to.
func parseDayPlan(raw string) (DayPlan, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return DayPlan{}, fmt.Errorf("failed to parse day plan %w. Response: %s", err, raw)
	}
	return dayPlanFromFields(fields), nil
}

func dayPlanFromFields(fields map[string]any) DayPlan {
	return DayPlan{
		Date:      flattenValue(fields["date"]),
		BlockType: flattenValue(fields["block_type"]),
		Intensity: flattenValue(fields["intensity"]),
		Focus:     flattenValue(fields["focus"]),
		Routine:   flattenValue(fields["routine"]),
		Notes:     flattenValue(fields["notes"]),
	}
}

// flattenValue renders any JSON value as a single flat string. Lists are
// joined with spaces, maps become "key: value" pairs. Flattening an already
// flat string returns it unchanged, so the operation is idempotent.
func flattenValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, flattenValue(val[k])))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(val)
	}
}
