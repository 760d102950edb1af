// Package metrics exposes Prometheus instrumentation for the chat pipeline.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Admissions         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	ModelCalls         *prometheus.CounterVec
	ModelLatency       prometheus.Histogram
	FallbackResponses  *prometheus.CounterVec
	Qualifications     *prometheus.CounterVec
	Escalations        prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Admissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadchat_admissions_total",
			Help: "Chat admission decisions by result and rejecting window",
		}, []string{"result", "reason"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadchat_validation_failures_total",
			Help: "Messages rejected by content validation",
		}, []string{"reason"}),
		ModelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadchat_model_calls_total",
			Help: "Language model calls by outcome and failure category",
		}, []string{"outcome", "category"}),
		ModelLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadchat_model_latency_seconds",
			Help:    "Language model call latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		FallbackResponses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadchat_fallback_responses_total",
			Help: "Canned replies served instead of model output",
		}, []string{"topic", "lang"}),
		Qualifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadchat_lead_qualifications_total",
			Help: "Lead category after each message",
		}, []string{"category"}),
		Escalations: f.NewCounter(prometheus.CounterOpts{
			Name: "leadchat_lead_escalations_total",
			Help: "Sessions escalated to a human",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "leadchat_active_sessions",
			Help: "Chat sessions held in memory after the last sweep",
		}),
	}
}

func (m *Metrics) ObserveAdmission(allowed bool, reason string) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	m.Admissions.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) ObserveValidationFailure(reason string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveModelCall(outcome, category string, took time.Duration) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(outcome, category).Inc()
	m.ModelLatency.Observe(took.Seconds())
}

func (m *Metrics) ObserveFallback(topic, lang string) {
	if m == nil {
		return
	}
	m.FallbackResponses.WithLabelValues(topic, lang).Inc()
}

func (m *Metrics) ObserveQualification(category string) {
	if m == nil {
		return
	}
	m.Qualifications.WithLabelValues(category).Inc()
}

func (m *Metrics) IncEscalations() {
	if m == nil {
		return
	}
	m.Escalations.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
