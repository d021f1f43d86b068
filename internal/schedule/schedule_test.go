package schedule

import (
	"testing"
	"time"
)

func TestTemplateFromSettings(t *testing.T) {
	settings := map[string]any{
		"schedule": map[string]any{
			"0": []any{"Gym", float64(60)},
			"2": []any{"Running", float64(45)},
			"9": []any{"Invalid", float64(30)}, // out of range, skipped
		},
	}

	tmpl := TemplateFromSettings(settings)
	if tmpl == nil {
		t.Fatal("Expected a template")
	}
	if len(tmpl) != 2 {
		t.Errorf("Expected 2 slots, got %d", len(tmpl))
	}
	if tmpl[0].Type != "Gym" || tmpl[0].Minutes != 60 {
		t.Errorf("Unexpected Monday slot: %+v", tmpl[0])
	}
	if tmpl[2].Type != "Running" || tmpl[2].Minutes != 45 {
		t.Errorf("Unexpected Wednesday slot: %+v", tmpl[2])
	}
}

func TestTemplateFromSettingsEmpty(t *testing.T) {
	if tmpl := TemplateFromSettings(nil); tmpl != nil {
		t.Errorf("Expected nil for missing settings, got %+v", tmpl)
	}
	if tmpl := TemplateFromSettings(map[string]any{"schedule": map[string]any{}}); tmpl != nil {
		t.Errorf("Expected nil for empty schedule, got %+v", tmpl)
	}
	if tmpl := TemplateFromSettings(map[string]any{"schedule": "garbage"}); tmpl != nil {
		t.Errorf("Expected nil for malformed schedule, got %+v", tmpl)
	}
}

func TestSlotForWeekdayMapping(t *testing.T) {
	tmpl := WeeklyTemplate{
		0: {Type: "Gym", Minutes: 60},     // Monday
		6: {Type: "Ultimate", Minutes: 120}, // Sunday
	}

	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if slot := tmpl.SlotFor(monday); slot.Type != "Gym" {
		t.Errorf("Expected Gym on Monday, got %+v", slot)
	}

	sunday := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	if slot := tmpl.SlotFor(sunday); slot.Type != "Ultimate" {
		t.Errorf("Expected Ultimate on Sunday, got %+v", slot)
	}

	// No slot defined for Tuesday: rest.
	tuesday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if slot := tmpl.SlotFor(tuesday); slot.Type != "Rest" || slot.Minutes != 0 {
		t.Errorf("Expected rest default, got %+v", slot)
	}
}

func TestDefaultWeeklyTemplateCoversAllDays(t *testing.T) {
	for day := 0; day < 7; day++ {
		if _, ok := DefaultWeeklyTemplate[day]; !ok {
			t.Errorf("Default template missing weekday %d", day)
		}
	}
}

func TestRestBlock(t *testing.T) {
	b := RestBlock("2025-06-10")
	if b.Type != "Rest" || b.DurationMinutes != 0 || b.Date != "2025-06-10" {
		t.Errorf("Unexpected rest block: %+v", b)
	}
}
