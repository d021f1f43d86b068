package whoop

import "time"

// Recovery is a synced recovery score from the WHOOP API, joined with that
// cycle's sleep performance where available.
type Recovery struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
	WhoopID          string `json:"whoop_id"`
	Date             string `json:"date"` // YYYY-MM-DD
	RecoveryScore    int    `json:"recovery_score"`
	RestingHeartRate int    `json:"resting_hr"`
	HRV              int    `json:"hrv"`
	SleepPerformance *int   `json:"sleep_performance,omitempty"`
}

// Workout is a synced workout from the WHOOP API.
type Workout struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	WhoopID          string    `json:"whoop_id"`
	SportName        string    `json:"sport"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	TimezoneOffset   string    `json:"timezone_offset,omitempty"`
	Strain           float64   `json:"strain"`
	AverageHeartRate int       `json:"avg_hr"`
	MaxHeartRate     int       `json:"max_hr"`
	Kilojoules       float64   `json:"kilojoules"`
}

// Tokens is a WHOOP OAuth token set.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix seconds
}

// Expired reports whether the access token is past its expiry.
func (t Tokens) Expired(now time.Time) bool {
	return t.ExpiresAt != 0 && t.ExpiresAt < now.Unix()
}
