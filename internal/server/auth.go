package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ai-personal-trainer/internal/user"
)

const defaultUserEmail = "user@example.com"

// makeState signs a short-lived OAuth state token naming the service, so the
// callback can verify the flow originated here without storing anything.
func (s *Server) makeState(service string) (string, error) {
	claims := jwt.MapClaims{
		"svc": service,
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.OAuthStateSecret))
}

func (s *Server) verifyState(state, service string) error {
	token, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.OAuthStateSecret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid state token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["svc"] != service {
		return fmt.Errorf("state token does not match service %s", service)
	}
	return nil
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "No authenticated user found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "No authenticated user found")
		return
	}

	var upd user.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), u.ID, upd)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// --- Strava OAuth ---

func (s *Server) stravaRedirectURI() string {
	return "http://localhost" + s.cfg.HTTPAddr + "/auth/strava/callback"
}

func (s *Server) handleStravaLogin(w http.ResponseWriter, r *http.Request) {
	if s.stravaAPI == nil {
		respondError(w, http.StatusServiceUnavailable, "Strava integration not configured")
		return
	}
	state, err := s.makeState("strava")
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.Redirect(w, r, s.stravaAPI.AuthorizeURL(s.stravaRedirectURI(), state), http.StatusFound)
}

func (s *Server) handleStravaCallback(w http.ResponseWriter, r *http.Request) {
	if s.stravaAPI == nil {
		respondError(w, http.StatusServiceUnavailable, "Strava integration not configured")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "No code received from Strava")
		return
	}
	if err := s.verifyState(r.URL.Query().Get("state"), "strava"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := s.stravaAPI.ExchangeCode(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to retrieve Strava token")
		return
	}

	u, err := s.users.FirstOrCreate(r.Context(), defaultUserEmail)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.users.SaveStravaTokens(r.Context(), u.ID, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.Redirect(w, r, s.cfg.FrontendURL+"/settings?status=success&service=strava", http.StatusFound)
}

// --- WHOOP OAuth ---

func (s *Server) handleWhoopLogin(w http.ResponseWriter, r *http.Request) {
	if s.whoopAPI == nil {
		respondError(w, http.StatusServiceUnavailable, "WHOOP integration not configured")
		return
	}
	state, err := s.makeState("whoop")
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.Redirect(w, r, s.whoopAPI.AuthorizeURL(state), http.StatusFound)
}

func (s *Server) handleWhoopCallback(w http.ResponseWriter, r *http.Request) {
	if s.whoopAPI == nil {
		respondError(w, http.StatusServiceUnavailable, "WHOOP integration not configured")
		return
	}
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Redirect(w, r, s.cfg.FrontendURL+"/settings?status=error&service=whoop&msg="+errMsg, http.StatusFound)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "No code received from WHOOP")
		return
	}
	if err := s.verifyState(r.URL.Query().Get("state"), "whoop"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := s.whoopAPI.ExchangeCode(r.Context(), code)
	if err != nil {
		http.Redirect(w, r, s.cfg.FrontendURL+"/settings?status=error&service=whoop&msg=token_failed", http.StatusFound)
		return
	}

	u, err := s.users.FirstOrCreate(r.Context(), defaultUserEmail)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.users.SaveWhoopTokens(r.Context(), u.ID, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.Redirect(w, r, s.cfg.FrontendURL+"/settings?status=success&service=whoop", http.StatusFound)
}
