package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// TimeoutConfig defines timeout behavior for different path prefixes.
type TimeoutConfig struct {
	// Default timeout for most endpoints
	Default time.Duration
	// Extended timeout for paths that wait on the language model
	Extended time.Duration
	// Path prefixes that get the extended timeout (e.g. "/chat")
	ExtendedPrefixes []string
	// Path prefixes with no timeout
	SkipPrefixes []string
}

// Timeout returns a middleware that bounds the request context. Handlers
// run on the request goroutine and are expected to honor cancellation; if
// the deadline passes before anything was written, a 504 is sent.
func Timeout(cfg TimeoutConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, cfg.SkipPrefixes) || cfg.Default <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			timeout := cfg.Default
			if cfg.Extended > 0 && hasAnyPrefix(r.URL.Path, cfg.ExtendedPrefixes) {
				timeout = cfg.Extended
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &trackingWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			if !tw.wroteHeader && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				w.WriteHeader(http.StatusGatewayTimeout)
			}
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *trackingWriter) WriteHeader(code int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(b)
}

func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
