package mw

import (
	"net/http"
	"strings"
)

// CachePolicy defines caching behavior for a route prefix.
type CachePolicy struct {
	Prefix       string
	CacheControl string
}

// CacheConfig holds the cache middleware configuration.
type CacheConfig struct {
	// Policies are matched in order; first match wins.
	Policies []CachePolicy
	// DefaultPolicy is applied when no policy matches (empty = no header set).
	DefaultPolicy string
}

// DefaultCacheConfig keeps lead data and probes out of every cache and lets
// CDNs hold build info briefly.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultPolicy: "private, no-cache",
		Policies: []CachePolicy{
			{Prefix: "/api/v1/version", CacheControl: "public, max-age=300"},
			{Prefix: "/api/v1/health", CacheControl: "no-store"},
			{Prefix: "/healthz", CacheControl: "no-store"},
			{Prefix: "/api/v1/leads", CacheControl: "private, no-store"},
			{Prefix: "/metrics", CacheControl: "no-store"},
		},
	}
}

// Cache returns middleware that sets Cache-Control headers by path prefix.
// Non-GET/HEAD requests always get "no-store".
func Cache(cfg CacheConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Cache-Control", "no-store")
				next.ServeHTTP(w, r)
				return
			}

			value := cfg.DefaultPolicy
			for _, p := range cfg.Policies {
				if strings.HasPrefix(r.URL.Path, p.Prefix) {
					value = p.CacheControl
					break
				}
			}
			if value != "" {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
