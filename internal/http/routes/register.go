package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/http/mw"
)

// Register registers all Huma routes with the given API instance.
func Register(api huma.API, h *Handlers) {
	mw.Get(api, "/api/v1/health", mw.Public, mw.Doc{
		ID:      "healthCheck",
		Summary: "Health check",
		Tags:    []string{"Health"},
	}, h.HealthCheck)

	mw.Get(api, "/api/v1/version", mw.Public, mw.Doc{
		ID:      "getVersion",
		Summary: "Build information",
		Tags:    []string{"Health"},
	}, h.Version)

	mw.Get(api, "/healthz", mw.Probe, mw.Doc{ID: "livez"}, h.Livez)
	mw.Get(api, "/readyz", mw.Probe, mw.Doc{ID: "readyz"}, h.Readyz)

	// Lead inspection is for operators only.
	mw.Get(api, "/api/v1/leads/{sessionId}", mw.Admin, mw.Doc{
		ID:          "getLead",
		Summary:     "Get session lead",
		Description: "Returns the lead collected in a live chat session with its current qualification.",
		Tags:        []string{"Leads"},
	}, h.Leads.GetLead)

	mw.Post(api, "/api/v1/leads/analyze", mw.Admin, mw.Doc{
		ID:          "analyzeLead",
		Summary:     "Analyze message",
		Description: "Runs lead signal extraction on a message without touching any session.",
		Tags:        []string{"Leads"},
	}, h.Leads.AnalyzeLead)

	if h.RawDocs != nil {
		h.RawDocs(api)
	}
}
