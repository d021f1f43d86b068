package strava

import "time"

// Activity is a synced activity from the Strava API.
type Activity struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	StravaID         int64     `json:"strava_id"`
	Name             string    `json:"name"`
	Distance         float64   `json:"distance"` // meters
	MovingTime       int       `json:"moving_time"` // seconds
	ElevationGain    float64   `json:"total_elevation_gain"` // meters
	Type             string    `json:"type"`
	StartDate        time.Time `json:"start_date"`
	AverageHeartrate float64   `json:"average_heartrate"`
	SufferScore      int       `json:"suffer_score"`
}

// Tokens is a Strava OAuth token set.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix seconds
}

// Expired reports whether the access token is past its expiry.
func (t Tokens) Expired(now time.Time) bool {
	return t.ExpiresAt != 0 && t.ExpiresAt < now.Unix()
}
