package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/auth"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore defines the store methods needed by auth handlers.
// Satisfied by *store.Postgres and *store.Memory.
type AuthStore interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

// AuthHandler handles admin login and hands out the CSRF token.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
	csrfToken string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, jwtSecret, csrfToken string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret, csrfToken: csrfToken}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Get("/csrf", h.CSRF)
}

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
}

// --- Handlers ---

// Login handles username + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Geçersiz kullanıcı adı veya şifre."})
			return
		}
		log.Error().Err(err).Msg("get user for login")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Geçersiz kullanıcı adı veya şifre."})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, user.ID, user.Username, auth.TokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("generate token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	log.Info().Str("username", user.Username).Msg("admin logged in")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, CSRFToken: h.csrfToken})
}

// CSRF handles GET /csrf.
func (h *AuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": h.csrfToken})
}
