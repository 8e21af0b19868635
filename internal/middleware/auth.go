package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/auth"
)

type contextKey string

const staffKey contextKey = "staff"

// Authenticate admits staff requests carrying a valid bearer token from
// POST /login. A token must name the staff member it was issued to.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "admin session required")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, raw)
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				unauthorized(w, "admin session expired, log in again")
				return
			case err != nil:
				log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("rejected staff token")
				unauthorized(w, "invalid admin session")
				return
			case claims.Username == "":
				unauthorized(w, "invalid admin session")
				return
			}

			ctx := context.WithValue(r.Context(), staffKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the staff member admitted by Authenticate.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(staffKey).(*auth.Claims)
	return claims
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tableside"`)
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
