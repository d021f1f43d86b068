package schedule

import (
	"fmt"
	"time"
)

// Block is the externally authoritative planned activity for one calendar date.
// At most one block exists per user per date; absence means a rest day.
type Block struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	Date            string `json:"date"` // YYYY-MM-DD
	Type            string `json:"type"` // Gym, Running, Ultimate, Recovery, Rest, ...
	DurationMinutes int    `json:"planned_duration_minutes"`
	Notes           string `json:"notes"`
	IsCompleted     bool   `json:"is_completed"`
}

// RestBlock is the implicit default for dates with no scheduled block.
func RestBlock(date string) Block {
	return Block{Date: date, Type: "Rest", DurationMinutes: 0}
}

// Slot is one day of a weekly schedule template.
type Slot struct {
	Type    string
	Minutes int
}

// WeeklyTemplate maps a weekday (Monday = 0, matching the stored settings
// format) to its planned slot.
type WeeklyTemplate map[int]Slot

// DefaultWeeklyTemplate is the fallback schedule used when the user has not
// saved one in their settings.
var DefaultWeeklyTemplate = WeeklyTemplate{
	0: {Type: "Gym", Minutes: 60},
	1: {Type: "Ultimate", Minutes: 120},
	2: {Type: "Running", Minutes: 45},
	3: {Type: "Gym", Minutes: 60},
	4: {Type: "Running", Minutes: 45},
	5: {Type: "Running", Minutes: 60},
	6: {Type: "Ultimate", Minutes: 120},
}

// TemplateFromSettings parses the weekly schedule template stored in user
// settings under the "schedule" key, shaped as {"0": ["Gym", 60], ...}.
// Returns nil when no usable template is saved.
func TemplateFromSettings(settings map[string]any) WeeklyTemplate {
	raw, ok := settings["schedule"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	tmpl := WeeklyTemplate{}
	for key, val := range raw {
		var weekday int
		if _, err := fmt.Sscanf(key, "%d", &weekday); err != nil || weekday < 0 || weekday > 6 {
			continue
		}
		pair, ok := val.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		blockType, ok := pair[0].(string)
		if !ok {
			continue
		}
		minutes := 0
		switch m := pair[1].(type) {
		case float64:
			minutes = int(m)
		case string:
			fmt.Sscanf(m, "%d", &minutes)
		}
		tmpl[weekday] = Slot{Type: blockType, Minutes: minutes}
	}

	if len(tmpl) == 0 {
		return nil
	}
	return tmpl
}

// SlotFor resolves the template slot for a calendar date, defaulting to rest.
func (t WeeklyTemplate) SlotFor(date time.Time) Slot {
	// time.Weekday counts from Sunday, the template from Monday.
	weekday := (int(date.Weekday()) + 6) % 7
	if slot, ok := t[weekday]; ok {
		return slot
	}
	return Slot{Type: "Rest", Minutes: 0}
}
