package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	HTTPAddr     string
	FrontendURL  string

	GeminiAPIKey string
	GeminiModel  string

	// OAuth integrations
	StravaClientID     string
	StravaClientSecret string
	WhoopClientID      string
	WhoopClientSecret  string
	OAuthStateSecret   string

	// Telegram Config
	TelegramBotToken    string
	TelegramAllowUserID int64

	// Cron spec for the daily external-data sync.
	SyncSchedule string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash"
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/trainer.db"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8000"
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	stateSecret := os.Getenv("OAUTH_STATE_SECRET")
	if stateSecret == "" && (os.Getenv("STRAVA_CLIENT_ID") != "" || os.Getenv("WHOOP_CLIENT_ID") != "") {
		return nil, fmt.Errorf("OAUTH_STATE_SECRET environment variable not set")
	}

	syncSchedule := os.Getenv("SYNC_SCHEDULE")
	if syncSchedule == "" {
		syncSchedule = "0 6 * * *"
	}

	// Telegram Config (Optional for API server, required for Bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramAllowUserIDStr := os.Getenv("TELEGRAM_ALLOW_USER_ID")
	var telegramAllowUserID int64
	if telegramAllowUserIDStr != "" {
		fmt.Sscanf(telegramAllowUserIDStr, "%d", &telegramAllowUserID)
	}

	return &Config{
		DatabasePath:        databasePath,
		HTTPAddr:            httpAddr,
		FrontendURL:         frontendURL,
		GeminiAPIKey:        geminiAPIKey,
		GeminiModel:         geminiModel,
		StravaClientID:      os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret:  os.Getenv("STRAVA_CLIENT_SECRET"),
		WhoopClientID:       os.Getenv("WHOOP_CLIENT_ID"),
		WhoopClientSecret:   os.Getenv("WHOOP_CLIENT_SECRET"),
		OAuthStateSecret:    stateSecret,
		TelegramBotToken:    telegramBotToken,
		TelegramAllowUserID: telegramAllowUserID,
		SyncSchedule:        syncSchedule,
	}, nil
}
