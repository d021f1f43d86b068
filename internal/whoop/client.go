package whoop

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

const apiURL = "https://api.prod.whoop.com/developer/v2"
const tokenURL = "https://api.prod.whoop.com/oauth/oauth2/token"
const authorizeURL = "https://api.prod.whoop.com/oauth/oauth2/auth"
const oauthScope = "read:recovery read:cycles read:workout read:sleep read:profile offline"

// Client talks to the WHOOP API.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// NewClient creates a new WHOOP API client.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizeURL builds the OAuth authorization redirect URL.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", oauthScope)
	q.Set("state", state)
	return authorizeURL + "?" + q.Encode()
}

// ExchangeCode exchanges an OAuth authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	return c.tokenRequest(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURI},
	})
}

// Refresh exchanges a refresh token for a fresh token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	return c.tokenRequest(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {oauthScope},
		"redirect_uri":  {c.redirectURI},
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
		return Tokens{}, fmt.Errorf("whoop token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Tokens{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	expiresAt := time.Now().Unix() + payload.ExpiresIn
	if payload.ExpiresIn == 0 {
		expiresAt = time.Now().Unix() + 3600
	}
	return Tokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, limit int) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path+"?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.httpClient.Do(req)
}

type recordsPayload struct {
	Records []json.RawMessage `json:"records"`
}

func decodeRecords(resp *http.Response, endpoint string) ([]json.RawMessage, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whoop %s endpoint returned status %d", endpoint, resp.StatusCode)
	}
	var payload recordsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return payload.Records, nil
}

type recoveryRecord struct {
	CycleID   int64  `json:"cycle_id"`
	CreatedAt string `json:"created_at"`
	Score     *struct {
		RecoveryScore    float64 `json:"recovery_score"`
		RestingHeartRate float64 `json:"resting_heart_rate"`
		HRVRmssdMilli    float64 `json:"hrv_rmssd_milli"`
	} `json:"score"`
}

type sleepRecord struct {
	CycleID int64 `json:"cycle_id"`
	Score   struct {
		SleepPerformancePercentage *float64 `json:"sleep_performance_percentage"`
	} `json:"score"`
}

// FetchRecoveries retrieves recent recovery records joined with sleep
// performance by cycle id. Sleep fetch failures degrade to recoveries without
// sleep data rather than failing the sync.
func (c *Client) FetchRecoveries(ctx context.Context, accessToken string, limit int) ([]Recovery, error) {
	recoveryResp, err := c.get(ctx, accessToken, "/recovery", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recoveries: %w", err)
	}
	records, err := decodeRecords(recoveryResp, "recovery")
	if err != nil {
		return nil, err
	}

	sleepByCycle := map[int64]*int{}
	if sleepResp, err := c.get(ctx, accessToken, "/activity/sleep", limit); err == nil {
		if sleepRecords, err := decodeRecords(sleepResp, "sleep"); err == nil {
			for _, raw := range sleepRecords {
				var s sleepRecord
				if err := json.Unmarshal(raw, &s); err != nil || s.CycleID == 0 {
					continue
				}
				if s.Score.SleepPerformancePercentage != nil {
					perf := int(*s.Score.SleepPerformancePercentage)
					sleepByCycle[s.CycleID] = &perf
				}
			}
		}
	}

	var recoveries []Recovery
	for _, raw := range records {
		var rec recoveryRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Score == nil {
			continue
		}
		date := ""
		if idx := strings.Index(rec.CreatedAt, "T"); idx > 0 {
			date = rec.CreatedAt[:idx]
		}
		recoveries = append(recoveries, Recovery{
			WhoopID:          strconv.FormatInt(rec.CycleID, 10),
			Date:             date,
			RecoveryScore:    int(rec.Score.RecoveryScore),
			RestingHeartRate: int(rec.Score.RestingHeartRate),
			HRV:              int(rec.Score.HRVRmssdMilli),
			SleepPerformance: sleepByCycle[rec.CycleID],
		})
	}
	return recoveries, nil
}

type workoutRecord struct {
	ID             any    `json:"id"`
	SportName      string `json:"sport_name"`
	Start          string `json:"start"`
	End            string `json:"end"`
	TimezoneOffset string `json:"timezone_offset"`
	Score          struct {
		Strain           float64 `json:"strain"`
		AverageHeartRate float64 `json:"average_heart_rate"`
		MaxHeartRate     float64 `json:"max_heart_rate"`
		Kilojoule        float64 `json:"kilojoule"`
	} `json:"score"`
}

// FetchWorkouts retrieves recent workout records.
func (c *Client) FetchWorkouts(ctx context.Context, accessToken string, limit int) ([]Workout, error) {
	resp, err := c.get(ctx, accessToken, "/activity/workout", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workouts: %w", err)
	}
	records, err := decodeRecords(resp, "workout")
	if err != nil {
		return nil, err
	}

	var workouts []Workout
	for _, raw := range records {
		var rec workoutRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, rec.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, rec.End)
		if err != nil {
			continue
		}
		workouts = append(workouts, Workout{
			WhoopID:          fmt.Sprint(rec.ID),
			SportName:        rec.SportName,
			Start:            start,
			End:              end,
			TimezoneOffset:   rec.TimezoneOffset,
			Strain:           rec.Score.Strain,
			AverageHeartRate: int(rec.Score.AverageHeartRate),
			MaxHeartRate:     int(rec.Score.MaxHeartRate),
			Kilojoules:       rec.Score.Kilojoule,
		})
	}
	return workouts, nil
}
