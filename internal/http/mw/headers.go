// Package mw provides HTTP middleware for the chat API.
package mw

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/leadchat-api/internal/version"
)

// ResponseHeaders stamps every response with the build version and echoes
// the request ID assigned by middleware.RequestID, so widget bug reports
// can be matched to server logs.
func ResponseHeaders() func(http.Handler) http.Handler {
	apiVersion := version.Get().Short()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-API-Version", apiVersion)
			if id := middleware.GetReqID(r.Context()); id != "" {
				h.Set(middleware.RequestIDHeader, id)
			}
			next.ServeHTTP(w, r)
		})
	}
}
