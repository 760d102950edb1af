package leads

import (
	"regexp"
	"strings"
)

// Intent is how close a message suggests the sender is to buying.
type Intent string

const (
	IntentHigh   Intent = "high"
	IntentMedium Intent = "medium"
	IntentLow    Intent = "low"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// MessageAnalysis is the per-message result of Analyze.
type MessageAnalysis struct {
	Intent    Intent   `json:"intent"`
	Topics    []string `json:"topics"`
	Extracted LeadInfo `json:"extracted"`
}

// Analyzer scans messages against a rule table. It holds no mutable state
// and is safe for concurrent use.
type Analyzer struct {
	rules Rules
}

// NewAnalyzer creates an analyzer for rules.
func NewAnalyzer(rules Rules) *Analyzer {
	return &Analyzer{rules: rules}
}

// Rules returns the active rule table.
func (a *Analyzer) Rules() Rules {
	return a.rules
}

// Analyze classifies intent and topics and extracts lead fields from text.
func (a *Analyzer) Analyze(text string) MessageAnalysis {
	lower := strings.ToLower(text)

	topics := make([]string, 0)
	for _, t := range a.rules.Topics {
		if containsAny(lower, t.Keywords) {
			topics = append(topics, t.Tag)
		}
	}

	intent := IntentLow
	switch {
	case containsAny(lower, a.rules.HighIntent):
		intent = IntentHigh
	case len(topics) > 0:
		intent = IntentMedium
	}

	extracted := LeadInfo{
		Email:       emailPattern.FindString(text),
		Timeline:    firstBucket(lower, a.rules.Timeline),
		CompanySize: firstBucket(lower, a.rules.CompanySize),
	}
	if len(topics) > 0 {
		extracted.Needs = append([]string(nil), topics...)
	}

	return MessageAnalysis{Intent: intent, Topics: topics, Extracted: extracted}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func firstBucket(s string, rules []BucketRule) string {
	for _, r := range rules {
		if containsAny(s, r.Keywords) {
			return r.Value
		}
	}
	return ""
}
