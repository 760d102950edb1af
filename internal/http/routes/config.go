// Package routes provides shared route registration for the lead chat API.
// Both the server and the OpenAPI generator use these definitions so the
// published document always matches what is served.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/http/mw"
	"github.com/jmylchreest/leadchat-api/internal/version"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("Lead Chat API", version.Get().Short())
	cfg.Info.Description = "Rate-limited chat endpoint for the website assistant, with lead qualification and operator lookups."

	// Keep $schema out of responses; the chat widget parses them directly.
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "HS256 token issued by the site's identity service. Optional on /chat, required with the admin claim on lead routes.",
		},
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Chat", Description: "Visitor chat", Extensions: map[string]any{"x-displayName": "Chat"}},
		{Name: "Leads", Description: "Lead qualification for operators", Extensions: map[string]any{"x-displayName": "Leads"}},
		{Name: "Health", Description: "System health and status", Extensions: map[string]any{"x-displayName": "Health"}},
	}

	return cfg
}
