package middleware

import (
	"crypto/subtle"
	"net/http"
)

// adminSecretHeader authenticates roster admin calls.
const adminSecretHeader = "X-Admin-Secret"

// AdminSecret rejects requests whose shared secret does not match. An empty
// configured secret disables the route entirely rather than leaving it open.
func AdminSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin routes are disabled", http.StatusForbidden)
				return
			}
			provided := r.Header.Get(adminSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				http.Error(w, "invalid admin secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
