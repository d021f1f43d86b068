package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiURL = "https://www.strava.com/api/v3"
const tokenURL = "https://www.strava.com/oauth/token"

// Client talks to the Strava API.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient creates a new Strava API client.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizeURL builds the OAuth authorization redirect URL.
func (c *Client) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", redirectURI)
	q.Set("approval_prompt", "force")
	q.Set("scope", "read,activity:read_all")
	q.Set("state", state)
	return "https://www.strava.com/oauth/authorize?" + q.Encode()
}

// ExchangeCode exchanges an OAuth authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	return c.tokenRequest(ctx, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	})
}

// Refresh exchanges a refresh token for a fresh token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	return c.tokenRequest(ctx, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Tokens{}, fmt.Errorf("strava token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Tokens{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	return Tokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    payload.ExpiresAt,
	}, nil
}

// activityPayload mirrors the Strava activity JSON shape.
type activityPayload struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Distance           float64 `json:"distance"`
	MovingTime         int     `json:"moving_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	Type               string  `json:"type"`
	StartDateLocal     string  `json:"start_date_local"`
	AverageHeartrate   float64 `json:"average_heartrate"`
	SufferScore        int     `json:"suffer_score"`
}

// FetchActivities retrieves the athlete's most recent activities.
func (c *Client) FetchActivities(ctx context.Context, accessToken string, limit int) ([]Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/athlete/activities?per_page="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strava activities endpoint returned status %d", resp.StatusCode)
	}

	var payloads []activityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("failed to decode activities response: %w", err)
	}

	activities := make([]Activity, 0, len(payloads))
	for _, p := range payloads {
		startDate, err := time.Parse("2006-01-02T15:04:05Z", p.StartDateLocal)
		if err != nil {
			continue
		}
		activities = append(activities, Activity{
			StravaID:         p.ID,
			Name:             p.Name,
			Distance:         p.Distance,
			MovingTime:       p.MovingTime,
			ElevationGain:    p.TotalElevationGain,
			Type:             p.Type,
			StartDate:        startDate,
			AverageHeartrate: p.AverageHeartrate,
			SufferScore:      p.SufferScore,
		})
	}
	return activities, nil
}
