package leads

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()

	assert.Contains(t, r.HighIntent, "budget approved")
	assert.Contains(t, r.HighIntent, "decision maker")

	tags := make([]string, 0, len(r.Topics))
	for _, topic := range r.Topics {
		require.NotEmpty(t, topic.Keywords, "topic %s has no keywords", topic.Tag)
		tags = append(tags, topic.Tag)
	}
	assert.Equal(t, []string{"knowledge-retrieval", "language-model", "automation", "workflow-platform", "advisory"}, tags)

	require.Len(t, r.Timeline, 3)
	assert.Equal(t, TimelineImmediate, r.Timeline[0].Value)
	require.Len(t, r.CompanySize, 2)
	assert.Equal(t, SizeEnterprise, r.CompanySize[0].Value)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "topics: [unterminated"},
		{"topic without tag", "topics:\n  - keywords: [x]\n"},
		{"bucket without value", "timeline:\n  - keywords: [soon]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_RoundTripsThroughYAML(t *testing.T) {
	data, err := DefaultRules().YAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), loaded)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
