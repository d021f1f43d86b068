package coach

import (
	"context"
	"log"
	"sync"
	"time"

	"ai-personal-trainer/internal/llm"
	"ai-personal-trainer/internal/schedule"
	"ai-personal-trainer/internal/shared"
)

// ScheduleSource resolves the authoritative planned block for a date. Dates
// without a block resolve to the implicit rest default.
type ScheduleSource interface {
	BlockFor(ctx context.Context, userID int64, date string) (schedule.Block, error)
}

// CacheStore persists the per-user rolling plan cache. Commit must be atomic:
// no partial cache state may become visible.
type CacheStore interface {
	Load(ctx context.Context, userID int64) (RollingCache, error)
	Commit(ctx context.Context, userID int64, cache RollingCache) error
}

// Syncer refreshes externally synced data before planning. Sync failures are
// reported in the summary, never as errors.
type Syncer interface {
	SyncAll(ctx context.Context, userID int64) SyncSummary
}

// MetricsRecorder records model call usage. Recording failures are logged
// and ignored.
type MetricsRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// SyncSummary reports the outcome of one external-data sync pass.
type SyncSummary struct {
	Strava ServiceSync `json:"strava"`
	Whoop  ServiceSync `json:"whoop"`
}

// ServiceSync is the per-service sync outcome.
type ServiceSync struct {
	Synced int    `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// Coach owns the rolling two-day plan cache: deciding when cached plans are
// still valid, generating and refining day plans through the model, and
// applying conversational edits.
type Coach struct {
	textGen  llm.TextGenerator
	chatGen  llm.ChatGenerator
	schedule ScheduleSource
	cache    CacheStore
	contexts *ContextBuilder
	syncer   Syncer
	metrics  MetricsRecorder

	now func() time.Time

	// Cache invocations are serialized per user: the read-validate-commit
	// sequence is not safe under interleaved writers.
	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewCoach creates a new Coach. syncer and metrics may be nil.
func NewCoach(
	textGen llm.TextGenerator,
	chatGen llm.ChatGenerator,
	scheduleSource ScheduleSource,
	cacheStore CacheStore,
	contexts *ContextBuilder,
	syncer Syncer,
	metrics MetricsRecorder,
) *Coach {
	return &Coach{
		textGen:   textGen,
		chatGen:   chatGen,
		schedule:  scheduleSource,
		cache:     cacheStore,
		contexts:  contexts,
		syncer:    syncer,
		metrics:   metrics,
		now:       time.Now,
		userLocks: map[int64]*sync.Mutex{},
	}
}

func (c *Coach) lockUser(userID int64) func() {
	c.mu.Lock()
	lock, ok := c.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.userLocks[userID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (c *Coach) syncExternal(ctx context.Context, userID int64) SyncSummary {
	if c.syncer == nil {
		return SyncSummary{}
	}
	return c.syncer.SyncAll(ctx, userID)
}

func (c *Coach) recordUsage(agent string, usage shared.TokenUsage, latency time.Duration) {
	if c.metrics == nil {
		return
	}
	err := c.metrics.RecordMeta(shared.AgentMeta{AgentName: agent, Usage: usage, Latency: latency})
	if err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", agent, err)
	}
}
