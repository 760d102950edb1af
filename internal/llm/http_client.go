package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmylchreest/leadchat-api/internal/version"
)

const (
	defaultTemperature = 0.4
	defaultMaxTokens   = 800
	maxErrorBody       = 2048
	maxResponseBody    = 4 << 20
)

// HTTPClient calls OpenAI-compatible, Ollama and Anthropic chat endpoints
// directly over HTTP. It sets no client timeout; callers bound each call
// through the context.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates a client for cfg.
func NewHTTPClient(cfg Config, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{cfg: cfg, http: &http.Client{}, logger: logger}
}

// WithHTTPClient replaces the transport client.
func (c *HTTPClient) WithHTTPClient(hc *http.Client) *HTTPClient {
	c.http = hc
	return c
}

// Generate sends one chat request.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if c.cfg.APIKey == "" && c.cfg.Provider != ProviderOllama {
		return nil, &Error{
			Err:      fmt.Errorf("no API key configured"),
			Provider: c.cfg.Provider,
			Model:    c.cfg.Model,
			Category: CategoryAuth,
		}
	}
	if req.Temperature == 0 {
		req.Temperature = defaultTemperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(c.buildBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := c.apiURL()
	c.logger.Debug("making LLM API request",
		"provider", c.cfg.Provider,
		"model", c.cfg.Model,
		"api_url", apiURL,
		"messages", len(req.Messages),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	c.setAuthHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, ClassifyError(fmt.Errorf("request failed: %w", err), c.cfg.Provider, c.cfg.Model, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err == nil && len(respBody) > maxResponseBody {
		err = fmt.Errorf("response exceeds %d bytes", maxResponseBody)
	}
	if err != nil {
		return nil, ClassifyError(fmt.Errorf("failed to read response: %w", err), c.cfg.Provider, c.cfg.Model, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := respBody
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, ClassifyError(
			fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(snippet)),
			c.cfg.Provider, c.cfg.Model, resp.StatusCode,
		)
	}

	out, err := c.parseResponse(respBody)
	if err != nil {
		return nil, ClassifyError(err, c.cfg.Provider, c.cfg.Model, resp.StatusCode)
	}
	if strings.TrimSpace(out.Text) == "" {
		return nil, ClassifyError(ErrEmptyResponse, c.cfg.Provider, c.cfg.Model, resp.StatusCode)
	}
	out.Model = c.cfg.Model
	return out, nil
}

func (c *HTTPClient) buildBody(req Request) map[string]any {
	messages := make([]map[string]string, 0, len(req.Messages)+1)

	if c.cfg.Provider == ProviderAnthropic {
		for _, m := range req.Messages {
			messages = append(messages, map[string]string{"role": string(m.Role), "content": m.Content})
		}
		body := map[string]any{
			"model":       c.cfg.Model,
			"messages":    messages,
			"temperature": req.Temperature,
			"max_tokens":  req.MaxTokens,
		}
		if req.System != "" {
			body["system"] = req.System
		}
		return body
	}

	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, map[string]string{"role": string(m.Role), "content": m.Content})
	}

	if c.cfg.Provider == ProviderOllama {
		return map[string]any{
			"model":    c.cfg.Model,
			"messages": messages,
			"stream":   false,
			"options": map[string]any{
				"temperature": req.Temperature,
				"num_predict": req.MaxTokens,
			},
		}
	}

	return map[string]any{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}
}

func (c *HTTPClient) apiURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	switch c.cfg.Provider {
	case ProviderAnthropic:
		if base == "" {
			base = "https://api.anthropic.com"
		}
		return base + "/v1/messages"
	case ProviderOllama:
		if base == "" {
			base = "http://localhost:11434"
		}
		return base + "/api/chat"
	case ProviderOpenRouter:
		if base == "" {
			base = "https://openrouter.ai/api"
		}
		return base + "/v1/chat/completions"
	default:
		if base == "" {
			base = "https://api.openai.com"
		}
		return base + "/v1/chat/completions"
	}
}

func (c *HTTPClient) setAuthHeaders(req *http.Request) {
	switch c.cfg.Provider {
	case ProviderAnthropic:
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	case ProviderOllama:
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
	case ProviderOpenRouter:
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("X-Title", "leadchat")
	default:
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

func (c *HTTPClient) parseResponse(body []byte) (*Response, error) {
	switch c.cfg.Provider {
	case ProviderAnthropic:
		return parseAnthropic(body)
	case ProviderOllama:
		return parseOllama(body)
	default:
		return parseOpenAI(body)
	}
}

func parseAnthropic(body []byte) (*Response, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	finish := resp.StopReason
	switch resp.StopReason {
	case "max_tokens":
		finish = "length"
	case "end_turn", "stop_sequence":
		finish = "stop"
	}

	return &Response{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		FinishReason: finish,
	}, nil
}

func parseOllama(body []byte) (*Response, error) {
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		DoneReason      string `json:"done_reason"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}
	return &Response{
		Text:         resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		FinishReason: resp.DoneReason,
	}, nil
}

func parseOpenAI(body []byte) (*Response, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return &Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}
