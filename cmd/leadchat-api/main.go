// Package main is the entry point for the leadchat-api server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/leadchat-api/internal/auth"
	"github.com/jmylchreest/leadchat-api/internal/chat"
	"github.com/jmylchreest/leadchat-api/internal/clock"
	"github.com/jmylchreest/leadchat-api/internal/config"
	"github.com/jmylchreest/leadchat-api/internal/crypto"
	"github.com/jmylchreest/leadchat-api/internal/http/handlers"
	"github.com/jmylchreest/leadchat-api/internal/http/mw"
	"github.com/jmylchreest/leadchat-api/internal/http/routes"
	"github.com/jmylchreest/leadchat-api/internal/leads"
	"github.com/jmylchreest/leadchat-api/internal/llm"
	"github.com/jmylchreest/leadchat-api/internal/logging"
	"github.com/jmylchreest/leadchat-api/internal/metrics"
	"github.com/jmylchreest/leadchat-api/internal/ratelimit"
	"github.com/jmylchreest/leadchat-api/internal/shutdown"
	"github.com/jmylchreest/leadchat-api/internal/storage"
	"github.com/jmylchreest/leadchat-api/internal/validate"
	"github.com/jmylchreest/leadchat-api/internal/version"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting leadchat-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Admission windows
	var (
		store     ratelimit.Store = ratelimit.NewMemoryStore()
		readiness readyChecks
	)
	if cfg.RateLimitRedisURL != "" {
		opts, err := redis.ParseURL(cfg.RateLimitRedisURL)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		store = ratelimit.NewRedisStore(rdb)
		readiness = append(readiness, redisPinger{rdb})
		logger.Info("rate limit windows shared via redis", "addr", opts.Addr)
	} else {
		logger.Info("rate limit windows kept in process; limits apply per instance")
	}
	limiter := ratelimit.New(store,
		ratelimit.WithWindows(cfg.RateLimitWindows()),
		ratelimit.WithSweepProbability(cfg.RateLimitSweepProbability),
		ratelimit.WithLogger(logger),
	)

	validator, err := validate.New(cfg.MessageMaxLength, cfg.MessageDenyPatterns...)
	if err != nil {
		return err
	}

	rules := leads.DefaultRules()
	if cfg.LeadRulesFile != "" {
		if rules, err = leads.LoadRules(cfg.LeadRulesFile); err != nil {
			return err
		}
		logger.Info("lead rules loaded", "file", cfg.LeadRulesFile)
	}
	analyzer := leads.NewAnalyzer(rules)
	sessions := leads.NewSessions(cfg.SessionTTL, clock.Real{})

	// Object storage: lead archive and IP blocklist
	objects, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if objects.IsEnabled() {
		readiness = append(readiness, objects)
	}

	archive := leads.NewArchive(nil, "", nil, nil, logger)
	if cfg.ArchiveEnabled() {
		sealer, err := crypto.NewFieldCipher(cfg.LeadEncryptionKey)
		if err != nil {
			return err
		}
		archive = leads.NewArchive(objects.Client(), objects.Bucket(), sealer, clock.Real{}, logger)
		logger.Info("escalated leads archived", "bucket", objects.Bucket())
	} else if objects.IsEnabled() {
		logger.Warn("LEAD_ENCRYPTION_SECRET not set - escalated leads will only be logged")
	}

	var blocklist *mw.IPBlocklist
	if objects.IsEnabled() && cfg.BlocklistBucket != "" {
		blocklist = mw.NewIPBlocklist(config.NewS3Loader(config.S3LoaderConfig{
			Client: objects.Client(),
			Bucket: cfg.BlocklistBucket,
			Key:    cfg.BlocklistKey,
			Logger: logger,
		}), logger)
		logger.Info("IP blocklist enabled", "bucket", cfg.BlocklistBucket, "key", cfg.BlocklistKey)
	}

	// Language model
	var client llm.Client
	if cfg.LLMConfigured() {
		client, err = llm.New(ctx, cfg.LLMConfig(), logger)
		if err != nil {
			return err
		}
		model := cfg.LLMModel
		if model == "" {
			model = llm.DefaultModel(cfg.LLMProvider)
		}
		logger.Info("language model configured", "provider", cfg.LLMProvider, "model", model)
	} else {
		logger.Warn("LLM_API_KEY not set - /chat will return 500")
	}

	svc := chat.NewService(chat.ServiceConfig{
		Validator:    validator,
		Analyzer:     analyzer,
		Sessions:     sessions,
		Archive:      archive,
		Orchestrator: chat.NewOrchestrator(client, cfg.LLMTimeout, m, logger),
		Configured:   cfg.LLMConfigured(),
		Metrics:      m,
		Logger:       logger,
	})

	verifier := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer)
	if !verifier.Enabled() {
		logger.Warn("AUTH_JWT_SECRET not set - admin routes are unreachable and /chat is anonymous")
	}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		gatherer = reg
	}

	router := routes.NewRouter(routes.RouterConfig{
		BaseURL:      cfg.BaseURL,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		ChatTimeout:  cfg.RequestTimeout,
		FloodLimit:   cfg.IPFloodLimit,
		Limiter:      limiter,
		Verifier:     verifier,
		Blocklist:    blocklist,
		Chat:         handlers.NewChatHandler(svc, m, logger),
		Handlers: &routes.Handlers{
			HealthCheck: handlers.NewHealthHandler(cfg.LLMConfigured()).HealthCheck,
			Version:     handlers.GetVersion,
			Livez:       handlers.Livez,
			Readyz:      handlers.NewReadyzHandler(readiness).Readyz,
			Leads:       handlers.NewLeadsHandler(sessions, analyzer),
		},
		Gatherer: gatherer,
		Metrics:  m,
		Logger:   logger,
	})

	// Sessions live in memory, so the machine stays up while any is live.
	idle := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout:      cfg.IdleTimeout,
		ExcludePaths: []string{"/healthz", "/readyz", "/metrics"},
		Busy:         func() bool { return sessions.Len() > 0 },
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           idle.Middleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sessions.RunSweeper(gctx, cfg.SessionSweepInterval, func(removed, remaining int) {
			m.SetActiveSessions(remaining)
			if removed > 0 {
				logger.Debug("expired sessions swept", "removed", removed, "remaining", remaining)
			}
		})
	})

	g.Go(func() error {
		return idle.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, shutdown.ErrIdle) {
		return err
	}
	return nil
}

// readyChecks passes when every dependency answers.
type readyChecks []handlers.Pinger

func (c readyChecks) Ping(ctx context.Context) error {
	for _, p := range c {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
