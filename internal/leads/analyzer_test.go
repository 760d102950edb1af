package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultRules())
}

func TestAnalyze_HighIntentEnterprise(t *testing.T) {
	got := newAnalyzer().Analyze("I need this implemented ASAP for my enterprise")

	assert.Equal(t, IntentHigh, got.Intent)
	assert.Equal(t, SizeEnterprise, got.Extracted.CompanySize)
	assert.Equal(t, TimelineImmediate, got.Extracted.Timeline)
}

func TestAnalyze_WhatIsRAG(t *testing.T) {
	got := newAnalyzer().Analyze("What is RAG?")

	assert.Contains(t, got.Topics, "knowledge-retrieval")
	assert.Equal(t, IntentMedium, got.Intent)
	assert.Contains(t, got.Extracted.Needs, "knowledge-retrieval")
}

func TestAnalyze_LowIntent(t *testing.T) {
	got := newAnalyzer().Analyze("Hello there, nice website")

	assert.Equal(t, IntentLow, got.Intent)
	assert.Empty(t, got.Topics)
	assert.Equal(t, LeadInfo{}, got.Extracted)
}

func TestAnalyze_MultipleTopics(t *testing.T) {
	got := newAnalyzer().Analyze("Can a chatbot search our knowledge base and automate n8n workflows?")

	assert.ElementsMatch(t,
		[]string{"knowledge-retrieval", "language-model", "automation", "workflow-platform"},
		got.Topics,
	)
}

func TestAnalyze_EmailKeptVerbatim(t *testing.T) {
	got := newAnalyzer().Analyze("Reach me at Jane.Doe@Example.COM or jd@other.org")
	assert.Equal(t, "Jane.Doe@Example.COM", got.Extracted.Email)
}

func TestAnalyze_FirstBucketRuleWins(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		timeline string
		size     string
	}{
		{"immediate beats month", "we need it immediately, within a month", TimelineImmediate, ""},
		{"month beats quarter", "next quarter or in a month", TimelineMonths, ""},
		{"quarter", "sometime this quarter", TimelineQuarter, ""},
		{"enterprise beats small", "small team inside a large enterprise", "", SizeEnterprise},
		{"fortune", "we are a Fortune 500 company", "", SizeEnterprise},
		{"startup", "early stage startup", "", SizeSmall},
		{"none", "just curious", "", ""},
	}

	a := newAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			assert.Equal(t, tt.timeline, got.Extracted.Timeline)
			assert.Equal(t, tt.size, got.Extracted.CompanySize)
		})
	}
}

func TestAnalyze_IsPure(t *testing.T) {
	a := newAnalyzer()
	first := a.Analyze("We want a RAG pilot next month, mail ops@acme.io")
	second := a.Analyze("We want a RAG pilot next month, mail ops@acme.io")
	require.Equal(t, first, second)
}

func TestAnalyze_CustomRules(t *testing.T) {
	rules, err := ParseRules([]byte(`
high_intent: [SIGN TODAY]
topics:
  - tag: crm
    keywords: [Salesforce]
timeline: []
company_size: []
`))
	require.NoError(t, err)

	a := NewAnalyzer(rules)
	assert.Equal(t, IntentHigh, a.Analyze("ready to sign today").Intent)
	got := a.Analyze("we use salesforce")
	assert.Equal(t, IntentMedium, got.Intent)
	assert.Equal(t, []string{"crm"}, got.Topics)
}
