// Package llm talks to the language model providers that generate chat
// replies.
package llm

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

import (
	"context"
	"fmt"
	"log/slog"
)

// Supported providers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
	ProviderGemini     = "gemini"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation call.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Response is the model output.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	// FinishReason is normalized to OpenAI values ("stop", "length", ...).
	FinishReason string
}

// Client generates a reply for a conversation.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Config selects and authenticates a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOllama:
		return "llama3.2"
	case ProviderOpenRouter:
		return "openai/gpt-4o-mini"
	default:
		return "gpt-4o-mini"
	}
}

// New creates the client for cfg.Provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic, ProviderOllama:
		return NewHTTPClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}
