package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"setlist/internal/app/auth"
)

// SessionVerifier turns a bearer token into a session.
type SessionVerifier interface {
	Verify(token string) (auth.Session, error)
}

// RequireSession rejects requests without a valid bearer token and stores
// the verified session on the request context.
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := verifier.Verify(BearerToken(r))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="setlist"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": auth.ErrUnauthorized.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// BearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on EventSource, so the access_token query parameter is
// accepted as well.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
