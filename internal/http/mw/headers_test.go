package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestResponseHeaders(t *testing.T) {
	h := middleware.RequestID(ResponseHeaders()(okHandler()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-API-Version") == "" {
		t.Error("X-API-Version header missing")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("request ID not echoed")
	}
}

func TestResponseHeaders_KeepsClientRequestID(t *testing.T) {
	h := middleware.RequestID(ResponseHeaders()(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "widget-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "widget-42" {
		t.Errorf("X-Request-Id = %q, want widget-42", got)
	}
}
