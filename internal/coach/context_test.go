package coach

import (
	"context"
	"testing"
	"time"

	"ai-personal-trainer/internal/goals"
	"ai-personal-trainer/internal/strava"
	"ai-personal-trainer/internal/whoop"
)

type stubProfiles struct {
	profile Profile
	err     error
}

func (s stubProfiles) Profile(_ context.Context, _ int64) (Profile, error) {
	return s.profile, s.err
}

type stubActivities struct {
	items []strava.Activity
	err   error
}

func (s stubActivities) ListSince(_ context.Context, _ int64, _ time.Time) ([]strava.Activity, error) {
	return s.items, s.err
}

type stubRecoveries struct {
	items []whoop.Recovery
	err   error
}

func (s stubRecoveries) ListSince(_ context.Context, _ int64, _ string) ([]whoop.Recovery, error) {
	return s.items, s.err
}

type stubWorkouts struct {
	items []whoop.Workout
	err   error
}

func (s stubWorkouts) ListSince(_ context.Context, _ int64, _ time.Time) ([]whoop.Workout, error) {
	return s.items, s.err
}

type stubGoals struct {
	items []goals.Goal
	err   error
}

func (s stubGoals) ListActive(_ context.Context, _ int64) ([]goals.Goal, error) {
	return s.items, s.err
}

func TestConvertDistance(t *testing.T) {
	if got := convertDistance(1609.34, "imperial"); got != "1.00 mi" {
		t.Errorf("Expected 1.00 mi, got %q", got)
	}
	if got := convertDistance(5000, "metric"); got != "5.00 km" {
		t.Errorf("Expected 5.00 km, got %q", got)
	}
	// Unknown unit preference falls back to imperial.
	if got := convertDistance(1609.34, ""); got != "1.00 mi" {
		t.Errorf("Expected imperial fallback, got %q", got)
	}
}

func TestBuildDegradesOnSourceErrors(t *testing.T) {
	boom := context.DeadlineExceeded
	b := NewContextBuilder(
		stubProfiles{err: boom},
		stubActivities{err: boom},
		stubRecoveries{err: boom},
		stubWorkouts{err: boom},
		stubGoals{err: boom},
	)

	snapshot := b.Build(context.Background(), 1, time.Now())

	if snapshot.Profile.Units != "imperial" {
		t.Errorf("Expected imperial default on profile failure, got %q", snapshot.Profile.Units)
	}
	if len(snapshot.Activities) != 0 || len(snapshot.Recoveries) != 0 || len(snapshot.Workouts) != 0 {
		t.Errorf("Expected empty sections on source failure: %+v", snapshot)
	}
	if snapshot.Goals.Events == nil || snapshot.Goals.Preferences == nil {
		t.Error("Goal sections should be empty slices, not nil")
	}
}

func TestBuildSplitsAndSortsGoals(t *testing.T) {
	later := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	b := NewContextBuilder(
		stubProfiles{profile: Profile{Units: "imperial"}},
		stubActivities{},
		stubRecoveries{},
		stubWorkouts{},
		stubGoals{items: []goals.Goal{
			{Description: "Marathon", Type: "event", TargetDate: &later},
			{Description: "Stay lean", Type: "preference"},
			{Description: "10k race", Type: "event", TargetDate: &sooner},
		}},
	)

	snapshot := b.Build(context.Background(), 1, time.Now())

	if len(snapshot.Goals.Events) != 2 {
		t.Fatalf("Expected 2 dated goals, got %d", len(snapshot.Goals.Events))
	}
	if snapshot.Goals.Events[0].Description != "10k race" {
		t.Errorf("Expected dated goals sorted by date ascending, got %q first", snapshot.Goals.Events[0].Description)
	}
	if len(snapshot.Goals.Preferences) != 1 || snapshot.Goals.Preferences[0].Description != "Stay lean" {
		t.Errorf("Expected undated goal in preferences, got %+v", snapshot.Goals.Preferences)
	}
}

func TestBuildConvertsActivityDistances(t *testing.T) {
	b := NewContextBuilder(
		stubProfiles{profile: Profile{Units: "metric"}},
		stubActivities{items: []strava.Activity{
			{Type: "Run", Distance: 10000, StartDate: time.Date(2025, 6, 8, 7, 0, 0, 0, time.UTC), SufferScore: 55},
		}},
		stubRecoveries{},
		stubWorkouts{},
		stubGoals{},
	)

	snapshot := b.Build(context.Background(), 1, time.Now())

	if len(snapshot.Activities) != 1 {
		t.Fatalf("Expected 1 activity, got %d", len(snapshot.Activities))
	}
	act := snapshot.Activities[0]
	if act.Distance != "10.00 km" {
		t.Errorf("Expected 10.00 km, got %q", act.Distance)
	}
	if act.Date != "2025-06-08" {
		t.Errorf("Expected date 2025-06-08, got %q", act.Date)
	}
}

func TestLatestRecoveryPicksNewest(t *testing.T) {
	b := NewContextBuilder(
		stubProfiles{},
		stubActivities{},
		stubRecoveries{items: []whoop.Recovery{
			{Date: "2025-06-09", RecoveryScore: 80},
			{Date: "2025-06-07", RecoveryScore: 40},
		}},
		stubWorkouts{},
		stubGoals{},
	)

	snapshot := b.Build(context.Background(), 1, time.Now())

	latest := snapshot.LatestRecovery()
	if latest == nil {
		t.Fatal("Expected a latest recovery")
	}
	if latest.Date != "2025-06-09" || latest.RecoveryScore != 80 {
		t.Errorf("Expected newest recovery, got %+v", latest)
	}

	empty := Context{}
	if empty.LatestRecovery() != nil {
		t.Error("Expected nil latest recovery for empty context")
	}
}

func TestLastN(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	got := lastN(items, 3)
	if len(got) != 3 || got[0] != 3 {
		t.Errorf("Expected last 3 elements, got %v", got)
	}
	if len(lastN(items, 10)) != 5 {
		t.Error("Expected whole slice when n exceeds length")
	}
}
