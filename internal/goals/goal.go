package goals

import "time"

// Goal is a user training goal: a dated event, a preference, or a short or
// long term objective.
type Goal struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Description string     `json:"description"`
	Type        string     `json:"type"` // 'short_term', 'long_term', 'preference', 'event', 'other'
	Status      string     `json:"status"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
}
