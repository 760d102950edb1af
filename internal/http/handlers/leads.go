package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/leads"
)

// LeadsHandler exposes session leads to operators.
type LeadsHandler struct {
	sessions *leads.Sessions
	analyzer *leads.Analyzer
}

// NewLeadsHandler creates a leads handler.
func NewLeadsHandler(sessions *leads.Sessions, analyzer *leads.Analyzer) *LeadsHandler {
	return &LeadsHandler{sessions: sessions, analyzer: analyzer}
}

// GetLeadInput represents a lead lookup.
type GetLeadInput struct {
	SessionID string `path:"sessionId" minLength:"1" doc:"Chat session ID"`
}

// GetLeadOutput represents the lead of one session.
type GetLeadOutput struct {
	Body struct {
		SessionID     string                    `json:"sessionId"`
		CreatedAt     time.Time                 `json:"createdAt"`
		Escalated     bool                      `json:"escalated" doc:"Whether the lead has been handed to a human"`
		Lead          leads.LeadInfo            `json:"lead"`
		Qualification leads.QualificationResult `json:"qualification"`
		NextQuestion  string                    `json:"nextQuestion,omitempty"`
	}
}

// GetLead returns the current qualification of a live session. The lookup
// leaves the session's idle timer alone.
func (h *LeadsHandler) GetLead(ctx context.Context, input *GetLeadInput) (*GetLeadOutput, error) {
	sess, ok := h.sessions.Peek(input.SessionID)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}

	q := sess.Qualifier()
	out := &GetLeadOutput{}
	out.Body.SessionID = sess.ID
	out.Body.CreatedAt = sess.CreatedAt
	out.Body.Escalated = sess.Escalated()
	out.Body.Lead = q.Lead()
	out.Body.Qualification = q.Qualify()
	out.Body.NextQuestion = q.NextQuestion()
	return out, nil
}

// AnalyzeLeadInput represents a dry-run analysis request.
type AnalyzeLeadInput struct {
	Body struct {
		Text string `json:"text" minLength:"1" maxLength:"10000" doc:"Message text to analyze"`
	}
}

// AnalyzeLeadOutput represents the analysis of a single message.
type AnalyzeLeadOutput struct {
	Body struct {
		Analysis      leads.MessageAnalysis     `json:"analysis"`
		Qualification leads.QualificationResult `json:"qualification" doc:"Qualification of the extracted fields alone"`
	}
}

// AnalyzeLead runs the signal extractor on text without touching any
// session.
func (h *LeadsHandler) AnalyzeLead(ctx context.Context, input *AnalyzeLeadInput) (*AnalyzeLeadOutput, error) {
	analysis := h.analyzer.Analyze(input.Body.Text)

	out := &AnalyzeLeadOutput{}
	out.Body.Analysis = analysis
	out.Body.Qualification = leads.Qualify(analysis.Extracted)
	return out, nil
}
