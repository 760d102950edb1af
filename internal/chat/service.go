// Package chat runs a validated message through lead qualification and the
// language model, degrading to canned replies when the model fails.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmylchreest/leadchat-api/internal/auth"
	"github.com/jmylchreest/leadchat-api/internal/leads"
	"github.com/jmylchreest/leadchat-api/internal/llm"
	"github.com/jmylchreest/leadchat-api/internal/logging"
	"github.com/jmylchreest/leadchat-api/internal/metrics"
	"github.com/jmylchreest/leadchat-api/internal/validate"
)

// MaxHistory is the number of trailing history entries forwarded to the model.
const MaxHistory = 10

const archiveTimeout = 5 * time.Second

// ErrNotConfigured is returned when no model credentials are configured.
var ErrNotConfigured = errors.New("chat model is not configured")

// Request is one inbound chat message.
type Request struct {
	Message   string
	History   []llm.Message
	SessionID string
	Identity  *auth.Identity
}

// Reply is the outcome of handling a Request.
type Reply struct {
	Response      string
	SessionID     string
	Qualification leads.QualificationResult
	Outcome       Outcome
}

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Validator    *validate.Validator
	Analyzer     *leads.Analyzer
	Sessions     *leads.Sessions
	Archive      *leads.Archive
	Orchestrator *Orchestrator
	// Configured is false when the model API key is missing.
	Configured bool
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Service handles chat messages after admission.
type Service struct {
	validator    *validate.Validator
	analyzer     *leads.Analyzer
	sessions     *leads.Sessions
	archive      *leads.Archive
	orchestrator *Orchestrator
	configured   bool
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewService creates a service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		validator:    cfg.Validator,
		analyzer:     cfg.Analyzer,
		sessions:     cfg.Sessions,
		archive:      cfg.Archive,
		orchestrator: cfg.Orchestrator,
		configured:   cfg.Configured,
		metrics:      cfg.Metrics,
		logger:       logger,
	}
}

// Sessions returns the session store.
func (s *Service) Sessions() *leads.Sessions {
	return s.sessions
}

// Analyzer returns the message analyzer.
func (s *Service) Analyzer() *leads.Analyzer {
	return s.analyzer
}

// Handle validates and answers req. Validation failures are returned as
// *validate.ValidationError; model failures never produce an error.
func (s *Service) Handle(ctx context.Context, req Request) (*Reply, error) {
	if err := s.validator.Validate(req.Message); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ObserveValidationFailure(string(verr.Reason))
		}
		return nil, err
	}

	if !s.configured {
		return nil, ErrNotConfigured
	}

	sess, created := s.sessions.GetOrCreate(req.SessionID)
	ctx = logging.WithSessionID(ctx, sess.ID)
	if created {
		s.logger.DebugContext(ctx, "session started")
	}

	q := sess.Qualifier()
	if req.Identity != nil && req.Identity.Email != "" {
		q.Update(leads.LeadInfo{Email: req.Identity.Email})
	}

	analysis := s.analyzer.Analyze(req.Message)
	q.Update(analysis.Extracted)
	result := q.Qualify()
	escalate := q.ShouldEscalateToHuman()

	s.metrics.ObserveQualification(string(result.Category))
	s.logger.DebugContext(ctx, "message analyzed",
		"intent", analysis.Intent,
		"topics", analysis.Topics,
		"score", result.Score,
		"category", result.Category,
	)

	text, outcome := s.orchestrator.Respond(ctx, req.Message, LeadContext{
		Qualification: result,
		NextQuestion:  q.NextQuestion(),
		Escalate:      escalate,
		Identity:      req.Identity,
	}, TruncateHistory(req.History, MaxHistory))

	if escalate && sess.MarkEscalated() {
		s.metrics.IncEscalations()
		s.archiveLead(ctx, sess.ID, req.Identity, q.Lead(), req.Message)
	}

	return &Reply{
		Response:      text,
		SessionID:     sess.ID,
		Qualification: result,
		Outcome:       outcome,
	}, nil
}

func (s *Service) archiveLead(ctx context.Context, sessionID string, id *auth.Identity, lead leads.LeadInfo, message string) {
	if !s.archive.IsEnabled() {
		s.logger.InfoContext(ctx, "lead escalated", "company", lead.Company)
		return
	}

	subject := ""
	if id != nil {
		subject = id.Subject
	}

	// The record must be written even if the client has gone away.
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := s.archive.Store(archiveCtx, sessionID, subject, lead, message); err != nil {
		s.logger.ErrorContext(ctx, "failed to archive escalated lead", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "lead escalated and archived", "company", lead.Company)
}

// TruncateHistory keeps the last max entries of history and drops entries
// with an unknown role or no content.
func TruncateHistory(history []llm.Message, max int) []llm.Message {
	if len(history) > max {
		history = history[len(history)-max:]
	}
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
