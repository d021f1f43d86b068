package coach

import (
	"context"
	"log"
	"sort"
	"strconv"
	"time"

	"ai-personal-trainer/internal/goals"
	"ai-personal-trainer/internal/strava"
	"ai-personal-trainer/internal/whoop"
)

// Data windows for context assembly.
const (
	activityWindowDays = 28
	recoveryWindowDays = 7
	workoutWindowDays  = 14
)

// ProfileSource supplies the user's profile snapshot.
type ProfileSource interface {
	Profile(ctx context.Context, userID int64) (Profile, error)
}

// ActivitySource supplies synced activities.
type ActivitySource interface {
	ListSince(ctx context.Context, userID int64, since time.Time) ([]strava.Activity, error)
}

// RecoverySource supplies synced recovery scores.
type RecoverySource interface {
	ListSince(ctx context.Context, userID int64, sinceDate string) ([]whoop.Recovery, error)
}

// WorkoutSource supplies synced workouts.
type WorkoutSource interface {
	ListSince(ctx context.Context, userID int64, since time.Time) ([]whoop.Workout, error)
}

// GoalSource supplies the user's active goals.
type GoalSource interface {
	ListActive(ctx context.Context, userID int64) ([]goals.Goal, error)
}

// Profile is the read-only profile view used for prompt construction.
type Profile struct {
	Age         int            `json:"age"`
	Gender      string         `json:"gender"`
	Height      int            `json:"height"`
	Weight      int            `json:"weight"`
	Units       string         `json:"units"`
	Preferences map[string]any `json:"preferences"`
}

// ActivitySummary is one recent activity, distance already unit-converted.
type ActivitySummary struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Distance    string `json:"distance"`
	SufferScore int    `json:"suffer_score"`
}

// RecoverySummary is one recent recovery sample.
type RecoverySummary struct {
	Date             string `json:"date"`
	RecoveryScore    int    `json:"recovery_score"`
	HRV              int    `json:"hrv"`
	RestingHR        int    `json:"resting_hr"`
	SleepPerformance *int   `json:"sleep_performance,omitempty"`
}

// WorkoutSummary is one recent synced workout.
type WorkoutSummary struct {
	Date       string  `json:"date"`
	Sport      string  `json:"sport"`
	Strain     float64 `json:"strain"`
	AvgHR      int     `json:"avg_hr"`
	MaxHR      int     `json:"max_hr"`
	Kilojoules float64 `json:"kilojoules"`
}

// DatedGoal is an active goal with a target date.
type DatedGoal struct {
	Description string `json:"description"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

// UndatedGoal is an active preference-style goal.
type UndatedGoal struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

// GoalSummary splits active goals into dated events and undated preferences.
type GoalSummary struct {
	Events      []DatedGoal   `json:"events"`
	Preferences []UndatedGoal `json:"preferences"`
}

// Context is the snapshot of recent user data assembled for prompt
// construction. Rebuilt fresh on every invocation, never cached.
type Context struct {
	Profile    Profile           `json:"profile"`
	Activities []ActivitySummary `json:"activities"`
	Recoveries []RecoverySummary `json:"recoveries"`
	Workouts   []WorkoutSummary  `json:"whoop_workouts"`
	Goals      GoalSummary       `json:"goals"`
}

// ContextBuilder assembles Context snapshots from the data stores.
type ContextBuilder struct {
	profiles   ProfileSource
	activities ActivitySource
	recoveries RecoverySource
	workouts   WorkoutSource
	goals      GoalSource
}

// NewContextBuilder creates a new ContextBuilder.
func NewContextBuilder(
	profiles ProfileSource,
	activities ActivitySource,
	recoveries RecoverySource,
	workouts WorkoutSource,
	goalSource GoalSource,
) *ContextBuilder {
	return &ContextBuilder{
		profiles:   profiles,
		activities: activities,
		recoveries: recoveries,
		workouts:   workouts,
		goals:      goalSource,
	}
}

// Build assembles a Context for the user as of now. It never fails: any
// source error degrades that section to empty data so generation can still
// proceed with whatever context is available.
func (b *ContextBuilder) Build(ctx context.Context, userID int64, now time.Time) Context {
	snapshot := Context{
		Activities: []ActivitySummary{},
		Recoveries: []RecoverySummary{},
		Workouts:   []WorkoutSummary{},
		Goals:      GoalSummary{Events: []DatedGoal{}, Preferences: []UndatedGoal{}},
	}

	profile, err := b.profiles.Profile(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to load profile for user %d: %v", userID, err)
		profile = Profile{Units: "imperial", Preferences: map[string]any{}}
	}
	if profile.Units == "" {
		profile.Units = "imperial"
	}
	snapshot.Profile = profile

	activities, err := b.activities.ListSince(ctx, userID, now.AddDate(0, 0, -activityWindowDays))
	if err != nil {
		log.Printf("Warning: failed to load activities for user %d: %v", userID, err)
		activities = nil
	}
	for _, act := range activities {
		snapshot.Activities = append(snapshot.Activities, ActivitySummary{
			Date:        act.StartDate.Format(dateLayout),
			Type:        act.Type,
			Distance:    convertDistance(act.Distance, profile.Units),
			SufferScore: act.SufferScore,
		})
	}

	recoveryCutoff := now.AddDate(0, 0, -recoveryWindowDays).Format(dateLayout)
	recoveries, err := b.recoveries.ListSince(ctx, userID, recoveryCutoff)
	if err != nil {
		log.Printf("Warning: failed to load recoveries for user %d: %v", userID, err)
		recoveries = nil
	}
	for _, rec := range recoveries {
		snapshot.Recoveries = append(snapshot.Recoveries, RecoverySummary{
			Date:             rec.Date,
			RecoveryScore:    rec.RecoveryScore,
			HRV:              rec.HRV,
			RestingHR:        rec.RestingHeartRate,
			SleepPerformance: rec.SleepPerformance,
		})
	}
	sort.Slice(snapshot.Recoveries, func(i, j int) bool {
		return snapshot.Recoveries[i].Date < snapshot.Recoveries[j].Date
	})

	workouts, err := b.workouts.ListSince(ctx, userID, now.AddDate(0, 0, -workoutWindowDays))
	if err != nil {
		log.Printf("Warning: failed to load workouts for user %d: %v", userID, err)
		workouts = nil
	}
	for _, w := range workouts {
		snapshot.Workouts = append(snapshot.Workouts, WorkoutSummary{
			Date:       w.Start.Format(dateLayout),
			Sport:      w.SportName,
			Strain:     w.Strain,
			AvgHR:      w.AverageHeartRate,
			MaxHR:      w.MaxHeartRate,
			Kilojoules: w.Kilojoules,
		})
	}

	activeGoals, err := b.goals.ListActive(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to load goals for user %d: %v", userID, err)
		activeGoals = nil
	}
	for _, g := range activeGoals {
		if g.TargetDate != nil {
			snapshot.Goals.Events = append(snapshot.Goals.Events, DatedGoal{
				Description: g.Description,
				Date:        g.TargetDate.Format(dateLayout),
				Type:        g.Type,
			})
		} else {
			snapshot.Goals.Preferences = append(snapshot.Goals.Preferences, UndatedGoal{
				Description: g.Description,
				Type:        g.Type,
			})
		}
	}
	sort.Slice(snapshot.Goals.Events, func(i, j int) bool {
		return snapshot.Goals.Events[i].Date < snapshot.Goals.Events[j].Date
	})

	return snapshot
}

// LatestRecovery returns the most recent recovery sample, or nil.
func (c Context) LatestRecovery() *RecoverySummary {
	if len(c.Recoveries) == 0 {
		return nil
	}
	return &c.Recoveries[len(c.Recoveries)-1]
}

// convertDistance renders a distance in meters as miles or kilometers,
// rounded to 2 decimal places, according to the unit preference.
func convertDistance(meters float64, units string) string {
	if units == "metric" {
		return strconv.FormatFloat(meters/1000, 'f', 2, 64) + " km"
	}
	return strconv.FormatFloat(meters/1609.34, 'f', 2, 64) + " mi"
}

// lastN returns at most the final n elements of a slice.
func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
