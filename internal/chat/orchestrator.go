package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmylchreest/leadchat-api/internal/auth"
	"github.com/jmylchreest/leadchat-api/internal/leads"
	"github.com/jmylchreest/leadchat-api/internal/llm"
	"github.com/jmylchreest/leadchat-api/internal/metrics"
)

// DefaultModelTimeout bounds the single model call per message.
const DefaultModelTimeout = 20 * time.Second

// Reply sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

const basePrompt = `You are the assistant on the website of an AI consultancy. You answer questions about
knowledge retrieval, language model applications, workflow automation and AI strategy.
Be concise and friendly, answer in the language the visitor writes in, and never invent prices.
When it fits the conversation, ask for missing contact details one at a time.`

// LeadContext is what the orchestrator knows about the visitor.
type LeadContext struct {
	Qualification leads.QualificationResult
	NextQuestion  string
	Escalate      bool
	Identity      *auth.Identity
}

// Outcome describes how a reply was produced.
type Outcome struct {
	Source   string        `json:"source"`
	Category llm.Category  `json:"category,omitempty"`
	Topic    string        `json:"topic,omitempty"`
	Lang     string        `json:"lang,omitempty"`
	Latency  time.Duration `json:"-"`
}

// Orchestrator turns a message into a reply with one model call, falling
// back to a canned answer on any failure.
type Orchestrator struct {
	client  llm.Client
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator. A timeout of zero or less uses
// DefaultModelTimeout.
func NewOrchestrator(client llm.Client, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:  client,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Respond returns the reply text for message. It never returns empty text.
func (o *Orchestrator) Respond(ctx context.Context, message string, lc LeadContext, history []llm.Message) (string, Outcome) {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Generate(callCtx, llm.Request{
		System:   SystemPrompt(lc),
		Messages: messages,
	})
	took := time.Since(start)

	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		category := llm.ClassifyError(err, "", "", 0).Category
		fb := Fallback(message)

		o.logger.WarnContext(ctx, "model call failed, serving fallback",
			"error", err,
			"category", category,
			"topic", fb.Topic,
			"lang", fb.Lang,
			"duration_ms", took.Milliseconds(),
		)
		o.metrics.ObserveModelCall(SourceFallback, string(category), took)
		o.metrics.ObserveFallback(fb.Topic, fb.Lang)

		return fb.Text, Outcome{
			Source:   SourceFallback,
			Category: category,
			Topic:    fb.Topic,
			Lang:     fb.Lang,
			Latency:  took,
		}
	}

	o.logger.DebugContext(ctx, "model reply",
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"duration_ms", took.Milliseconds(),
	)
	o.metrics.ObserveModelCall(SourceModel, "", took)

	return strings.TrimSpace(resp.Text), Outcome{Source: SourceModel, Latency: took}
}

// SystemPrompt renders the instructions for the model from the lead context.
func SystemPrompt(lc LeadContext) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nVisitor profile:\n")

	if lc.Identity != nil && lc.Identity.Name != "" {
		fmt.Fprintf(&b, "- Name: %s (signed in)\n", lc.Identity.Name)
	}
	q := lc.Qualification
	fmt.Fprintf(&b, "- Lead score: %d (%s)\n", q.Score, q.Category)
	if len(q.MissingInfo) > 0 {
		fmt.Fprintf(&b, "- Still unknown: %s\n", strings.Join(q.MissingInfo, ", "))
	}
	if lc.NextQuestion != "" {
		fmt.Fprintf(&b, "- A good next question: %q\n", lc.NextQuestion)
	}
	if lc.Escalate {
		b.WriteString("- This visitor is a strong fit. Offer to schedule a call with a senior consultant.\n")
	}
	return b.String()
}
