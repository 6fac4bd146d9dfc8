package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the credential under the session
// strategy.
const SessionCookieName = "rosterd_session"

type Server struct {
	authService *AuthService
	creds       Credentials
	aggregator  *Aggregator
	groups      GroupStore
	config      *Config
	logger      *slog.Logger
	validate    *validator.Validate
}

func NewServer(authService *AuthService, creds Credentials, aggregator *Aggregator, groups GroupStore, config *Config, logger *slog.Logger) *Server {
	return &Server{
		authService: authService,
		creds:       creds,
		aggregator:  aggregator,
		groups:      groups,
		config:      config,
		logger:      logger,
		validate:    validator.New(),
	}
}

// Routes registers the server's handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/auth/login", s.HandleLogin)
	mux.HandleFunc("/callback", s.HandleCallback)
	mux.HandleFunc("/api/profile", s.HandleProfile)
	mux.HandleFunc("/api/groups", s.HandleGroups)
	mux.HandleFunc("/auth/logout", s.HandleLogout)
	mux.HandleFunc("/health", s.HandleHealth)
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	authURL, err := s.authService.BeginLogin(r.Context())
	if err != nil {
		s.logger.Error("failed to begin login", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "Authentication failed")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	artifact, err := s.authService.CompleteLogin(r.Context(), code, state)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			// Generic message: the expected state is never echoed back.
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		s.logger.Error("callback failed", "error", err)
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		return
	}

	redirect := s.config.PostLoginRedirect
	if s.config.Strategy == StrategySession {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    artifact,
			Path:     "/",
			MaxAge:   s.config.CredentialTTL,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	} else {
		// The token strategy has no cookie: the artifact rides in the URL
		// fragment for the frontend to pick up and store.
		redirect = redirect + "?token=" + artifact
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	cred, err := s.verifyRequest(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	snapshot, err := s.aggregator.Aggregate(r.Context(), cred.AccessToken)
	if err != nil {
		s.logger.Error("profile aggregation failed", "subject", cred.Subject, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch profile")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) HandleGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateGroup(w, r)
	case http.MethodGet:
		s.handleListGroups(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	cred, err := s.verifyRequest(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var group Group
	if !decodeJSON(w, r, &group) {
		return
	}

	if err := s.validate.Struct(&group); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Missing required fields")
		return
	}

	group.ID = uuid.New()
	group.CreatedAt = time.Now()

	if err := s.groups.CreateGroup(r.Context(), &group); err != nil {
		s.logger.Error("failed to create group", "subject", cred.Subject, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to create group")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Group created",
		"id":      group.ID.String(),
	})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifyRequest(r); err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	groups, err := s.groups.ListGroups(r.Context())
	if err != nil {
		s.logger.Error("failed to list groups", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to list groups")
		return
	}

	respondJSON(w, http.StatusOK, groups)
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	if artifact := s.extractArtifact(r); artifact != "" {
		if err := s.authService.Logout(r.Context(), artifact); err != nil {
			s.logger.Error("failed to revoke credential on logout", "error", err)
		}
	}

	if s.config.Strategy == StrategySession {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, s.config.LogoutRedirect, http.StatusFound)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Helper functions

// extractArtifact pulls the credential artifact from the configured
// transport: the session cookie, or the bearer header for the token strategy.
func (s *Server) extractArtifact(r *http.Request) string {
	if s.config.Strategy == StrategySession {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			return ""
		}
		return cookie.Value
	}

	token, err := extractBearerToken(r)
	if err != nil {
		return ""
	}
	return token
}

func (s *Server) verifyRequest(r *http.Request) (*Credential, error) {
	artifact := s.extractArtifact(r)
	if artifact == "" {
		return nil, ErrInvalidToken
	}
	return s.creds.Verify(r.Context(), artifact)
}

func validateMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	respondJSON(w, statusCode, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
