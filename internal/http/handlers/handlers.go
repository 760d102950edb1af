// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/version"
)

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status        string `json:"status" example:"healthy"`
		Version       string `json:"version"`
		LLMConfigured bool   `json:"llmConfigured" doc:"Whether model credentials are present"`
	}
}

// HealthHandler reports service health.
type HealthHandler struct {
	llmConfigured bool
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(llmConfigured bool) *HealthHandler {
	return &HealthHandler{llmConfigured: llmConfigured}
}

// HealthCheck returns the health status of the API. A missing model key
// does not make the service unhealthy: /chat still answers with 500 and
// the rest of the API keeps working.
func (h *HealthHandler) HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Short()
	out.Body.LLMConfigured = h.llmConfigured
	return out, nil
}

// VersionOutput represents the build information response.
type VersionOutput struct {
	Body version.Info
}

// GetVersion returns build information.
func GetVersion(ctx context.Context, input *struct{}) (*VersionOutput, error) {
	return &VersionOutput{Body: version.Get()}, nil
}

// LivezOutput represents the liveness probe response.
type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez reports that the process is up.
func Livez(ctx context.Context, input *struct{}) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzOutput represents the readiness probe response.
type ReadyzOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// ReadyzHandler reports readiness based on backing dependencies (window
// store, object storage).
type ReadyzHandler struct {
	store Pinger
}

// NewReadyzHandler creates a readiness handler. A nil store means nothing
// external is in use and the service is always ready.
func NewReadyzHandler(store Pinger) *ReadyzHandler {
	return &ReadyzHandler{store: store}
}

// Readyz returns 503 when the shared store is unreachable.
func (h *ReadyzHandler) Readyz(ctx context.Context, input *struct{}) (*ReadyzOutput, error) {
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable("dependency unavailable")
		}
	}
	out := &ReadyzOutput{}
	out.Body.Status = "ok"
	return out, nil
}
