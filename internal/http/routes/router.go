package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/leadchat-api/internal/auth"
	"github.com/jmylchreest/leadchat-api/internal/http/handlers"
	"github.com/jmylchreest/leadchat-api/internal/http/mw"
	"github.com/jmylchreest/leadchat-api/internal/metrics"
	"github.com/jmylchreest/leadchat-api/internal/ratelimit"
)

// Timeout for everything except /chat, which gets RouterConfig.ChatTimeout.
const apiTimeout = 15 * time.Second

// RouterConfig holds everything the HTTP surface is built from.
type RouterConfig struct {
	BaseURL      string
	CORSOrigins  []string
	MaxBodyBytes int64
	ChatTimeout  time.Duration
	FloodLimit   int

	Limiter   *ratelimit.Limiter
	Verifier  *auth.Verifier
	Blocklist *mw.IPBlocklist // optional
	Chat      *handlers.ChatHandler
	Handlers  *Handlers

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewRouter assembles the middleware chain, the raw chat endpoint and the
// Huma API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	if cfg.Blocklist != nil {
		// Early in the chain to reject bad actors quickly
		router.Use(cfg.Blocklist.Middleware())
	}
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(mw.Timeout(mw.TimeoutConfig{
		Default:          apiTimeout,
		Extended:         cfg.ChatTimeout,
		ExtendedPrefixes: []string{"/chat"},
		SkipPrefixes:     []string{"/metrics"},
	}))
	if cfg.MaxBodyBytes > 0 {
		router.Use(middleware.RequestSize(cfg.MaxBodyBytes))
	}
	router.Use(mw.FloodGuard(cfg.FloodLimit))
	router.Use(mw.ResponseHeaders())
	router.Use(mw.Cache(mw.DefaultCacheConfig()))

	exposed := []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}

	// Public chat endpoint. Preflight is answered by our own handler so the
	// allowed methods and headers are exactly what the widget needs.
	router.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:     cfg.CORSOrigins,
			AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders:     []string{"Content-Type", "Authorization"},
			ExposedHeaders:     exposed,
			MaxAge:             300,
			OptionsPassthrough: true,
		}))
		r.Use(mw.OptionalAuth(cfg.Verifier, logger))

		r.Options("/chat", handlers.Preflight)
		r.With(mw.Admission(cfg.Limiter, cfg.Metrics, logger)).Post("/chat", cfg.Chat.Chat)
	})

	// Huma API with OpenAPI docs
	router.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   exposed,
			AllowCredentials: true,
			MaxAge:           300,
		}))

		api := humachi.New(r, NewHumaConfig(cfg.BaseURL))
		api.UseMiddleware(mw.HumaAuth(api, cfg.Verifier))
		Register(api, cfg.Handlers)
	})

	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return router
}
