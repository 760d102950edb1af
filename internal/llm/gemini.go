package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient generates replies with the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini client. An API key is required.
func NewGeminiClient(ctx context.Context, cfg Config, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(ProviderGemini)
	}
	return &GeminiClient{client: client, model: model, logger: logger}, nil
}

// Generate sends one GenerateContent call.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Temperature == 0 {
		req.Temperature = defaultTemperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}

	contents := geminiContents(req.Messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	c.logger.Debug("making Gemini request", "model", c.model, "messages", len(contents))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		status := 0
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.Code
		}
		return nil, ClassifyError(err, ProviderGemini, c.model, status)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ClassifyError(ErrEmptyResponse, ProviderGemini, c.model, 0)
	}

	out := &Response{Text: text, Model: c.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = geminiFinishReason(resp.Candidates[0].FinishReason)
	}
	return out, nil
}

// geminiContents maps conversation turns onto Gemini roles. Gemini calls
// the assistant "model".
func geminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// geminiFinishReason normalizes to the OpenAI-style names the HTTP
// providers report.
func geminiFinishReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonMaxTokens:
		return "length"
	case genai.FinishReasonStop:
		return "stop"
	default:
		return strings.ToLower(string(r))
	}
}
