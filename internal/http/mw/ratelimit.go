package mw

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/jmylchreest/leadchat-api/internal/logging"
	"github.com/jmylchreest/leadchat-api/internal/metrics"
	"github.com/jmylchreest/leadchat-api/internal/ratelimit"
)

// ClientIP returns the request IP without the port.
// Assumes middleware.RealIP has already been applied.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RejectionBody is the JSON body of a 429 response.
type RejectionBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// Admission returns a middleware that runs every request through the
// windowed admission limiter, keyed by client IP.
func Admission(l *ratelimit.Limiter, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ctx := logging.WithClientIP(r.Context(), ip)

			d := l.Admit(ctx, ip)
			m.ObserveAdmission(d.Allowed, string(d.Reason))
			setRateLimitHeaders(w, d)

			if !d.Allowed {
				logger.InfoContext(ctx, "chat request rejected",
					"reason", d.Reason,
					"retry_after", d.RetryAfter,
				)
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
				writeJSON(w, http.StatusTooManyRequests, RejectionBody{
					Error:      d.Reason.Message(),
					RetryAfter: d.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	if d.Limit == 0 {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}

// FloodGuard returns a coarse per-IP limiter across all routes. It sits in
// front of the admission limiter and only trips on abusive traffic.
func FloodGuard(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			retry := 60
			if v, err := strconv.Atoi(w.Header().Get("Retry-After")); err == nil && v > 0 {
				retry = v
			} else {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
			}
			writeJSON(w, http.StatusTooManyRequests, RejectionBody{
				Error:      "Too many requests.",
				RetryAfter: retry,
			})
		}),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
