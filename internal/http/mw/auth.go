package mw

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmylchreest/leadchat-api/internal/auth"
)

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(r *http.Request) string {
	return parseBearer(r.Header.Get("Authorization"))
}

func parseBearer(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// OptionalAuth attaches the caller identity when a valid bearer token is
// present. Missing or invalid tokens leave the request anonymous.
func OptionalAuth(v *auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" || !v.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			id, err := v.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "ignoring invalid bearer token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
