package routes

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/http/handlers"
)

// LeadHandlers defines the interface for operator lead operations.
type LeadHandlers interface {
	GetLead(ctx context.Context, input *handlers.GetLeadInput) (*handlers.GetLeadOutput, error)
	AnalyzeLead(ctx context.Context, input *handlers.AnalyzeLeadInput) (*handlers.AnalyzeLeadOutput, error)
}

// Handlers aggregates the Huma handlers for route registration.
// For the server, pass real implementations.
// For OpenAPI generation, pass StubHandlers().
type Handlers struct {
	// Public endpoints
	HealthCheck func(ctx context.Context, input *struct{}) (*handlers.HealthCheckOutput, error)
	Version     func(ctx context.Context, input *struct{}) (*handlers.VersionOutput, error)

	// Kubernetes probes (hidden from docs)
	Livez  func(ctx context.Context, input *struct{}) (*handlers.LivezOutput, error)
	Readyz func(ctx context.Context, input *struct{}) (*handlers.ReadyzOutput, error)

	// Admin endpoints
	Leads LeadHandlers

	// RawDocs documents endpoints served outside Huma. Nil on the server,
	// where the raw handlers own those paths.
	RawDocs func(api huma.API)
}
