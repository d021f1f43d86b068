package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when no user row matches.
var ErrUserNotFound = errors.New("user not found")

// User is the core user record: profile, settings, OAuth tokens. The cached
// rolling plan lives in the same row but is accessed through the cache store
// methods in cache.go.
type User struct {
	ID       int64          `json:"id"`
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Age      int            `json:"age"`
	Gender   string         `json:"gender"`
	HeightCM int            `json:"height"`
	WeightKG int            `json:"weight"`
	Model    string         `json:"model"`
	Settings map[string]any `json:"settings"`

	StravaAccessToken  string `json:"-"`
	StravaRefreshToken string `json:"-"`
	StravaExpiresAt    int64  `json:"-"`
	WhoopAccessToken   string `json:"-"`
	WhoopRefreshToken  string `json:"-"`
	WhoopExpiresAt     int64  `json:"-"`
}

// Units returns the user's preferred unit system, defaulting to imperial.
func (u *User) Units() string {
	if units, ok := u.Settings["units"].(string); ok && units != "" {
		return units
	}
	return "imperial"
}

// Repository is a database-backed store for users.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, name, age, gender, height_cm, weight_kg, model, settings,
	strava_access_token, strava_refresh_token, strava_expires_at,
	whoop_access_token, whoop_refresh_token, whoop_expires_at`

// First returns the first user in the database. The deployment is single-user,
// so this is how the request layer resolves "the" user.
func (r *Repository) First(ctx context.Context) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT 1`)
	return scanUser(row)
}

// Get returns a user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// Create inserts a new user with the given email and empty settings.
func (r *Repository) Create(ctx context.Context, email string) (*User, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (email) VALUES (?)`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, _ := res.LastInsertId()
	return r.Get(ctx, id)
}

// FirstOrCreate returns the first user, creating a default one if none exists.
func (r *Repository) FirstOrCreate(ctx context.Context, email string) (*User, error) {
	u, err := r.First(ctx)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return r.Create(ctx, email)
}

// ProfileUpdate carries optional profile field updates.
type ProfileUpdate struct {
	Name     *string        `json:"name"`
	Age      *int           `json:"age"`
	Gender   *string        `json:"gender"`
	HeightCM *int           `json:"height"`
	WeightKG *int           `json:"weight"`
	Model    *string        `json:"model"`
	Settings map[string]any `json:"settings"`
}

// UpdateProfile applies the non-nil fields of upd and returns the updated user.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.Gender != nil {
		u.Gender = *upd.Gender
	}
	if upd.HeightCM != nil {
		u.HeightCM = *upd.HeightCM
	}
	if upd.WeightKG != nil {
		u.WeightKG = *upd.WeightKG
	}
	if upd.Model != nil {
		u.Model = *upd.Model
	}
	if upd.Settings != nil {
		u.Settings = upd.Settings
	}

	settingsJSON, err := json.Marshal(u.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET name = ?, age = ?, gender = ?, height_cm = ?, weight_kg = ?, model = ?, settings = ?
		WHERE id = ?
	`, u.Name, u.Age, u.Gender, u.HeightCM, u.WeightKG, u.Model, string(settingsJSON), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return u, nil
}

// SaveSettings replaces the user's settings map.
func (r *Repository) SaveSettings(ctx context.Context, id int64, settings map[string]any) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `UPDATE users SET settings = ? WHERE id = ?`, string(settingsJSON), id)
	if err != nil {
		return fmt.Errorf("failed to save settings for user %d: %w", id, err)
	}
	return nil
}

// SaveStravaTokens stores the user's Strava OAuth tokens.
func (r *Repository) SaveStravaTokens(ctx context.Context, id int64, access, refresh string, expiresAt int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET strava_access_token = ?, strava_refresh_token = ?, strava_expires_at = ?
		WHERE id = ?
	`, access, refresh, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to save strava tokens for user %d: %w", id, err)
	}
	return nil
}

// SaveWhoopTokens stores the user's WHOOP OAuth tokens.
func (r *Repository) SaveWhoopTokens(ctx context.Context, id int64, access, refresh string, expiresAt int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET whoop_access_token = ?, whoop_refresh_token = ?, whoop_expires_at = ?
		WHERE id = ?
	`, access, refresh, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to save whoop tokens for user %d: %w", id, err)
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var settingsJSON string
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Age, &u.Gender, &u.HeightCM, &u.WeightKG, &u.Model, &settingsJSON,
		&u.StravaAccessToken, &u.StravaRefreshToken, &u.StravaExpiresAt,
		&u.WhoopAccessToken, &u.WhoopRefreshToken, &u.WhoopExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Settings = map[string]any{}
	if settingsJSON != "" {
		if err := json.Unmarshal([]byte(settingsJSON), &u.Settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings for user %d: %w", u.ID, err)
		}
	}
	return &u, nil
}
