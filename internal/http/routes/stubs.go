package routes

import (
	"context"

	"github.com/jmylchreest/leadchat-api/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// Huma only needs the function signatures to build the OpenAPI document.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: stubHealthCheck,
		Version:     handlers.GetVersion,
		Livez:       handlers.Livez,
		Readyz:      stubReadyz,
		Leads:       &stubLeadHandlers{},
		RawDocs:     handlers.RegisterChatDocs,
	}
}

func stubHealthCheck(_ context.Context, _ *struct{}) (*handlers.HealthCheckOutput, error) {
	return nil, nil
}

func stubReadyz(_ context.Context, _ *struct{}) (*handlers.ReadyzOutput, error) {
	return nil, nil
}

type stubLeadHandlers struct{}

func (s *stubLeadHandlers) GetLead(_ context.Context, _ *handlers.GetLeadInput) (*handlers.GetLeadOutput, error) {
	return nil, nil
}

func (s *stubLeadHandlers) AnalyzeLead(_ context.Context, _ *handlers.AnalyzeLeadInput) (*handlers.AnalyzeLeadOutput, error) {
	return nil, nil
}
