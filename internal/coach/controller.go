package coach

import (
	"context"
	"fmt"
)

// RollingPlanResult is the two-day plan returned to callers, plus the outcome
// of the external-data sync that preceded it.
type RollingPlanResult struct {
	Today    DayPlan     `json:"today"`
	Tomorrow DayPlan     `json:"tomorrow"`
	Sync     SyncSummary `json:"sync"`
}

// GetOrGenerateRollingPlan returns the rolling two-day plan for the user,
// deciding per invocation whether the cached plans are still valid, need
// partial regeneration, should roll forward by one day, or must be rebuilt
// from scratch. The cache commit is the single state-transition point: on any
// fatal error no mutation becomes visible.
func (c *Coach) GetOrGenerateRollingPlan(ctx context.Context, userID int64) (RollingPlanResult, error) {
	defer c.lockUser(userID)()

	result := RollingPlanResult{Sync: c.syncExternal(ctx, userID)}

	now := c.now()
	today := now.Format(dateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	cctx := c.contexts.Build(ctx, userID, now)

	todayBlock, err := c.schedule.BlockFor(ctx, userID, today)
	if err != nil {
		return result, fmt.Errorf("failed to resolve schedule block for %s: %w", today, err)
	}
	tomorrowBlock, err := c.schedule.BlockFor(ctx, userID, tomorrow)
	if err != nil {
		return result, fmt.Errorf("failed to resolve schedule block for %s: %w", tomorrow, err)
	}

	cache, err := c.cache.Load(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to load plan cache: %w", err)
	}

	// 1. Current: cache was validated today and both slots are present.
	// Each slot is valid iff its date matches the expected calendar date and
	// its block type matches the schedule; only invalid slots regenerate.
	if cache.LastPlanDate == today && cache.PlanToday != nil && cache.PlanTomorrow != nil {
		todayValid := slotValid(cache.PlanToday, today, todayBlock.Type)
		tomorrowValid := slotValid(cache.PlanTomorrow, tomorrow, tomorrowBlock.Type)

		if todayValid && tomorrowValid {
			result.Today = *cache.PlanToday
			result.Tomorrow = *cache.PlanTomorrow
			return result, nil
		}

		if !todayValid {
			plan, err := c.generateDay(ctx, userID, today, cctx)
			if err != nil {
				return result, err
			}
			cache.PlanToday = &plan
		}
		if !tomorrowValid {
			plan, err := c.generateDay(ctx, userID, tomorrow, cctx)
			if err != nil {
				return result, err
			}
			cache.PlanTomorrow = &plan
		}

		if err := c.cache.Commit(ctx, userID, cache); err != nil {
			return result, fmt.Errorf("failed to commit plan cache: %w", err)
		}
		result.Today = *cache.PlanToday
		result.Tomorrow = *cache.PlanTomorrow
		return result, nil
	}

	// 2. Rollover: yesterday's "tomorrow" becomes today's "today". If the
	// schedule changed underneath it, the carried plan is discarded and
	// regenerated; otherwise it is refined against the latest recovery.
	if cache.LastPlanDate == yesterday && cache.PlanTomorrow != nil {
		carried := *cache.PlanTomorrow
		carried.Date = today

		var newToday DayPlan
		if carried.BlockType != todayBlock.Type {
			newToday, err = c.generateDay(ctx, userID, today, cctx)
			if err != nil {
				return result, err
			}
		} else {
			newToday = c.refineDay(ctx, carried, cctx)
		}
		newToday.Date = today

		newTomorrow, err := c.generateDay(ctx, userID, tomorrow, cctx)
		if err != nil {
			return result, err
		}

		cache = RollingCache{PlanToday: &newToday, PlanTomorrow: &newTomorrow, LastPlanDate: today}
		if err := c.cache.Commit(ctx, userID, cache); err != nil {
			return result, fmt.Errorf("failed to commit plan cache: %w", err)
		}
		result.Today = newToday
		result.Tomorrow = newTomorrow
		return result, nil
	}

	// 3. Fresh generation. Also the fallthrough for any indeterminate cache
	// state (stale last_plan_date, missing slots).
	planToday, err := c.generateDay(ctx, userID, today, cctx)
	if err != nil {
		return result, err
	}
	planTomorrow, err := c.generateDay(ctx, userID, tomorrow, cctx)
	if err != nil {
		return result, err
	}

	cache = RollingCache{PlanToday: &planToday, PlanTomorrow: &planTomorrow, LastPlanDate: today}
	if err := c.cache.Commit(ctx, userID, cache); err != nil {
		return result, fmt.Errorf("failed to commit plan cache: %w", err)
	}
	result.Today = planToday
	result.Tomorrow = planTomorrow
	return result, nil
}

// slotValid checks a cached slot against the expected date and scheduled
// block type. The date is checked first: a date mismatch alone invalidates
// the slot regardless of block type.
func slotValid(plan *DayPlan, expectedDate, expectedBlockType string) bool {
	if plan.Date != expectedDate {
		return false
	}
	return plan.BlockType == expectedBlockType
}
