// Package config handles application configuration.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/leadchat-api/internal/crypto"
	"github.com/jmylchreest/leadchat-api/internal/llm"
	"github.com/jmylchreest/leadchat-api/internal/ratelimit"
)

// WindowConfig is one admission window's ceiling and length.
type WindowConfig struct {
	Limit  int
	Window time.Duration
}

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port           int
	BaseURL        string
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MetricsEnabled bool          // Serve /metrics
	IdleTimeout    time.Duration // Scale-to-zero; 0 disables

	// Admission windows, checked in this order
	RateLimitBurst  WindowConfig
	RateLimitMinute WindowConfig
	RateLimitHourly WindowConfig
	RateLimitDaily  WindowConfig
	RateLimitGlobal WindowConfig

	RateLimitSweepProbability float64
	RateLimitRedisURL         string // Shared window store; empty keeps counters in process
	IPFloodLimit              int    // Coarse per-IP requests per minute across all routes

	// Message validation
	MessageMaxLength    int
	MessageDenyPatterns []string

	// Language model
	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMTimeout  time.Duration

	// Lead qualification
	LeadRulesFile        string // Optional YAML rule table; embedded defaults otherwise
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Optional bearer tokens from the website
	AuthJWTSecret string
	AuthIssuer    string

	// Object Storage (Tigris/S3-compatible)
	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3 for Tigris
	StorageAccessKey string // AWS_ACCESS_KEY_ID
	StorageSecretKey string // AWS_SECRET_ACCESS_KEY
	StorageBucket    string // Escalated lead archive
	StorageRegion    string
	BlocklistBucket  string // Defaults to StorageBucket
	BlocklistKey     string

	// 32-byte AES-256-GCM key sealing archived emails
	LeadEncryptionKey []byte
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigins:    getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 64*1024)),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		IdleTimeout:    getEnvDuration("IDLE_TIMEOUT", 0),

		RateLimitBurst: WindowConfig{
			Limit:  getEnvInt("RATE_LIMIT_BURST", 5),
			Window: getEnvDuration("RATE_LIMIT_BURST_WINDOW", 10*time.Second),
		},
		RateLimitMinute: WindowConfig{
			Limit:  getEnvInt("RATE_LIMIT_MINUTE", 15),
			Window: getEnvDuration("RATE_LIMIT_MINUTE_WINDOW", time.Minute),
		},
		RateLimitHourly: WindowConfig{
			Limit:  getEnvInt("RATE_LIMIT_HOURLY", 100),
			Window: getEnvDuration("RATE_LIMIT_HOURLY_WINDOW", time.Hour),
		},
		RateLimitDaily: WindowConfig{
			Limit:  getEnvInt("RATE_LIMIT_DAILY", 500),
			Window: getEnvDuration("RATE_LIMIT_DAILY_WINDOW", 24*time.Hour),
		},
		RateLimitGlobal: WindowConfig{
			Limit:  getEnvInt("RATE_LIMIT_GLOBAL", 60),
			Window: getEnvDuration("RATE_LIMIT_GLOBAL_WINDOW", time.Minute),
		},
		RateLimitSweepProbability: getEnvFloat("RATE_LIMIT_SWEEP_PROBABILITY", 0.01),
		RateLimitRedisURL:         getEnv("RATE_LIMIT_REDIS_URL", ""),
		IPFloodLimit:              getEnvInt("IP_FLOOD_LIMIT", 300),

		MessageMaxLength:    getEnvInt("MESSAGE_MAX_LENGTH", 2000),
		MessageDenyPatterns: getEnvSlice("MESSAGE_DENY_PATTERNS", nil),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", llm.ProviderOpenAI)),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		LLMTimeout:  getEnvDuration("LLM_TIMEOUT", 20*time.Second),

		LeadRulesFile:        getEnv("LEAD_RULES_FILE", ""),
		SessionTTL:           getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthIssuer:    getEnv("AUTH_ISSUER", ""),

		// Fly's standard env vars, as set by `fly storage create`
		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),
		BlocklistKey:     getEnv("BLOCKLIST_KEY", "config/blocklist.json"),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""
	cfg.BlocklistBucket = getEnv("BLOCKLIST_BUCKET", cfg.StorageBucket)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Sealing key: explicit base64 key, else derived from the secret
	if encKey := getEnv("LEAD_ENCRYPTION_KEY", ""); encKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKey)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("LEAD_ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.LeadEncryptionKey = decoded
	} else if secret := getEnv("LEAD_ENCRYPTION_SECRET", ""); secret != "" {
		key, err := crypto.DeriveKey(secret, "lead-archive")
		if err != nil {
			return nil, fmt.Errorf("failed to derive lead encryption key: %w", err)
		}
		cfg.LeadEncryptionKey = key
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	for name, w := range map[string]WindowConfig{
		"BURST":  c.RateLimitBurst,
		"MINUTE": c.RateLimitMinute,
		"HOURLY": c.RateLimitHourly,
		"DAILY":  c.RateLimitDaily,
		"GLOBAL": c.RateLimitGlobal,
	} {
		if w.Limit < 0 {
			return fmt.Errorf("RATE_LIMIT_%s must not be negative", name)
		}
		if w.Window <= 0 {
			return fmt.Errorf("RATE_LIMIT_%s_WINDOW must be positive", name)
		}
	}
	if c.RateLimitSweepProbability < 0 || c.RateLimitSweepProbability > 1 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_PROBABILITY must be between 0 and 1")
	}
	if c.MessageMaxLength <= 0 {
		return fmt.Errorf("MESSAGE_MAX_LENGTH must be positive")
	}
	switch c.LLMProvider {
	case llm.ProviderOpenAI, llm.ProviderOpenRouter, llm.ProviderAnthropic, llm.ProviderOllama, llm.ProviderGemini:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	return nil
}

// RateLimitWindows returns the admission windows in check order.
func (c *Config) RateLimitWindows() []ratelimit.Window {
	return []ratelimit.Window{
		{Reason: ratelimit.ReasonBurst, Limit: c.RateLimitBurst.Limit, Duration: c.RateLimitBurst.Window},
		{Reason: ratelimit.ReasonMinute, Limit: c.RateLimitMinute.Limit, Duration: c.RateLimitMinute.Window},
		{Reason: ratelimit.ReasonHourly, Limit: c.RateLimitHourly.Limit, Duration: c.RateLimitHourly.Window},
		{Reason: ratelimit.ReasonDaily, Limit: c.RateLimitDaily.Limit, Duration: c.RateLimitDaily.Window},
		{Reason: ratelimit.ReasonGlobal, Limit: c.RateLimitGlobal.Limit, Duration: c.RateLimitGlobal.Window, Shared: true},
	}
}

// LLMConfig returns the model client settings.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider: c.LLMProvider,
		Model:    c.LLMModel,
		APIKey:   c.LLMAPIKey,
		BaseURL:  c.LLMBaseURL,
	}
}

// LLMConfigured reports whether model credentials are present. Ollama runs
// locally and needs none.
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey != "" || c.LLMProvider == llm.ProviderOllama
}

// AuthEnabled returns true if bearer tokens can be verified.
func (c *Config) AuthEnabled() bool {
	return c.AuthJWTSecret != ""
}

// ArchiveEnabled returns true if escalated leads are written to storage.
func (c *Config) ArchiveEnabled() bool {
	return c.StorageEnabled && len(c.LeadEncryptionKey) == 32
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}
