package middleware

import (
	"crypto/subtle"
	"net/http"
)

// CSRFHeader carries the anti-forgery token on mutating requests.
const CSRFHeader = "X-CSRFToken"

// RequireCSRF rejects mutating requests whose X-CSRFToken header does not
// match token. Safe methods pass through.
func RequireCSRF(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(CSRFHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "CSRF token missing or incorrect"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
