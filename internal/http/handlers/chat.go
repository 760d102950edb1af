package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/auth"
	"github.com/jmylchreest/leadchat-api/internal/chat"
	"github.com/jmylchreest/leadchat-api/internal/llm"
	"github.com/jmylchreest/leadchat-api/internal/metrics"
)

// ChatRequest is the JSON body of POST /chat.
type ChatRequest struct {
	Message   string        `json:"message"`
	History   []llm.Message `json:"history,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

// ChatResponse is the JSON body of a successful POST /chat.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// ChatHandler serves the public chat endpoint. Admission has already run
// in middleware by the time a request gets here.
type ChatHandler struct {
	svc     *chat.Service
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(svc *chat.Service, m *metrics.Metrics, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{svc: svc, metrics: m, logger: logger}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		h.metrics.ObserveValidationFailure("bad_json")
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	reply, err := h.svc.Handle(ctx, chat.Request{
		Message:   req.Message,
		History:   req.History,
		SessionID: req.SessionID,
		Identity:  auth.FromContext(ctx),
	})
	if err != nil {
		info := ExtractErrorInfo(err)
		if info.StatusCode >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "chat request failed", "error", err)
		} else {
			h.logger.InfoContext(ctx, "chat request refused", "error", err)
		}
		writeError(w, info.StatusCode, info.UserMessage)
		return
	}

	h.logger.InfoContext(ctx, "chat reply sent",
		"source", reply.Outcome.Source,
		"category", reply.Qualification.Category,
		"latency_ms", reply.Outcome.Latency.Milliseconds(),
	)
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  reply.Response,
		SessionID: reply.SessionID,
	})
}

// Preflight answers OPTIONS /chat. CORS origin headers are added by the
// cors middleware running in passthrough mode.
func Preflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusNoContent)
}

// ChatDocInput documents the POST /chat request.
type ChatDocInput struct {
	Body ChatRequest
}

// ChatDocOutput documents the POST /chat response.
type ChatDocOutput struct {
	Body ChatResponse
}

// RegisterChatDocs adds POST /chat to the OpenAPI document. The endpoint
// itself is served by a raw chi handler so it can set rate limit headers
// and the flat error shape; this registration is for documentation only.
func RegisterChatDocs(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/chat",
		Summary:     "Send a chat message",
		Description: `Answers a visitor message and updates the session's lead qualification.

Requests are admitted per client IP against burst (5/10s), minute (15/min), hourly (100/h) and daily (500/day) windows plus a shared global window. Rejections return 429 with ` + "`{error, retryAfter}`" + ` and a Retry-After header.

Model failures still return 200 with a canned reply.`,
		Tags:   []string{"Chat"},
		Errors: []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError},
	}, func(ctx context.Context, input *ChatDocInput) (*ChatDocOutput, error) {
		return nil, huma.Error501NotImplemented("documentation only")
	})
}
