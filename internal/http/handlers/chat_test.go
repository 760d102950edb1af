package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jmylchreest/leadchat-api/internal/auth"
	"github.com/jmylchreest/leadchat-api/internal/chat"
	"github.com/jmylchreest/leadchat-api/internal/clock"
	"github.com/jmylchreest/leadchat-api/internal/leads"
	"github.com/jmylchreest/leadchat-api/internal/llm"
	"github.com/jmylchreest/leadchat-api/internal/llm/mocks"
	"github.com/jmylchreest/leadchat-api/internal/validate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChatHandler(t *testing.T, configured bool) (*ChatHandler, *mocks.MockClient, *chat.Service) {
	t.Helper()
	client := mocks.NewMockClient(gomock.NewController(t))

	v, err := validate.New(0)
	require.NoError(t, err)

	c := clock.NewManual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := chat.NewService(chat.ServiceConfig{
		Validator:    v,
		Analyzer:     leads.NewAnalyzer(leads.DefaultRules()),
		Sessions:     leads.NewSessions(time.Hour, c),
		Archive:      leads.NewArchive(nil, "", nil, c, discardLogger()),
		Orchestrator: chat.NewOrchestrator(client, time.Second, nil, discardLogger()),
		Configured:   configured,
		Logger:       discardLogger(),
	})
	return NewChatHandler(svc, nil, discardLogger()), client, svc
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestChat_ModelReply(t *testing.T) {
	h, client, _ := newTestChatHandler(t, true)

	client.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.Request) (*llm.Response, error) {
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "earlier", req.Messages[0].Content)
			return &llm.Response{Text: "We build RAG systems."}, nil
		})

	rec := postChat(h, `{"message":"Tell me about RAG","history":[{"role":"user","content":"earlier"},{"role":"system","content":"ignored"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody[ChatResponse](t, rec)
	assert.Equal(t, "We build RAG systems.", body.Response)
	assert.NotEmpty(t, body.SessionID)
}

func TestChat_SessionIDRoundTrip(t *testing.T) {
	h, client, svc := newTestChatHandler(t, true)
	client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(&llm.Response{Text: "ok"}, nil).Times(2)

	first := decodeBody[ChatResponse](t, postChat(h, `{"message":"my email is ada@example.com"}`))
	second := decodeBody[ChatResponse](t, postChat(h, `{"message":"we are a startup","sessionId":"`+first.SessionID+`"}`))

	assert.Equal(t, first.SessionID, second.SessionID)
	sess, ok := svc.Sessions().Get(first.SessionID)
	require.True(t, ok)
	lead := sess.Qualifier().Lead()
	assert.Equal(t, "ada@example.com", lead.Email)
	assert.Equal(t, leads.SizeSmall, lead.CompanySize)
}

func TestChat_UpstreamFailuresStill200(t *testing.T) {
	h, client, _ := newTestChatHandler(t, true)
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("upstream 502")).
		Times(3)

	for i := 0; i < 3; i++ {
		rec := postChat(h, `{"message":"What does it cost?"}`)
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
		body := decodeBody[ChatResponse](t, rec)
		assert.Equal(t, chat.Fallback("What does it cost?").Text, body.Response)
	}
}

func TestChat_ClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		body       string
		wantStatus int
	}{
		{"bad json", true, `{"message":`, http.StatusBadRequest},
		{"wrong type", true, `{"message":42}`, http.StatusBadRequest},
		{"empty message", true, `{"message":"   "}`, http.StatusBadRequest},
		{"too long", true, `{"message":"` + strings.Repeat("a", validate.DefaultMaxLength+1) + `"}`, http.StatusBadRequest},
		{"script tag", true, `{"message":"<script>alert(1)</script>"}`, http.StatusBadRequest},
		{"not configured", false, `{"message":"hello"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The mock has no expectations: any model call fails the test.
			h, _, _ := newTestChatHandler(t, tt.configured)

			rec := postChat(h, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody[ErrorBody](t, rec)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestChat_NotConfiguredMessageIsGeneric(t *testing.T) {
	h, _, _ := newTestChatHandler(t, false)
	rec := postChat(h, `{"message":"hello"}`)
	body := decodeBody[ErrorBody](t, rec)
	assert.Equal(t, msgNotConfigured, body.Error)
}

func TestChat_BodyTooLarge(t *testing.T) {
	h, _, _ := newTestChatHandler(t, true)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"`+strings.Repeat("x", 2048)+`"}`))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 64)
	h.Chat(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestChat_IdentityEmailMerged(t *testing.T) {
	h, client, svc := newTestChatHandler(t, true)
	client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(&llm.Response{Text: "hi"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{Subject: "u1", Email: "grace@example.com"}))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[ChatResponse](t, rec)
	sess, ok := svc.Sessions().Get(body.SessionID)
	require.True(t, ok)
	assert.Equal(t, "grace@example.com", sess.Qualifier().Lead().Email)
}

func TestExtractErrorInfo_Typed(t *testing.T) {
	verr := &validate.ValidationError{Reason: validate.ReasonEmpty, Message: "Please enter a message."}
	info := ExtractErrorInfo(verr)
	assert.Equal(t, http.StatusBadRequest, info.StatusCode)
	assert.Equal(t, verr.Message, info.UserMessage)

	info = ExtractErrorInfo(errors.Join(errors.New("wrapped"), chat.ErrNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, info.StatusCode)
	assert.Equal(t, msgNotConfigured, info.UserMessage)
}

func TestPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	Preflight(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, rec.Body.String())
}

func decodeJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
