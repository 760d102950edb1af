package leads

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// TopicRule maps a topic tag to its keywords.
type TopicRule struct {
	Tag      string   `yaml:"tag" json:"tag"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// BucketRule maps keywords to a bucket value. Rules are evaluated in order.
type BucketRule struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
	Value    string   `yaml:"value" json:"value"`
}

// Rules is the keyword table driving Analyzer.
type Rules struct {
	HighIntent  []string     `yaml:"high_intent" json:"high_intent"`
	Topics      []TopicRule  `yaml:"topics" json:"topics"`
	Timeline    []BucketRule `yaml:"timeline" json:"timeline"`
	CompanySize []BucketRule `yaml:"company_size" json:"company_size"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic("leads: embedded rules are invalid: " + err.Error())
	}
	return r
}

// LoadRules reads a rule table from a YAML file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and normalizes a YAML rule table. Keywords are
// lower-cased so matching only has to fold the message.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules: %w", err)
	}

	r.HighIntent = normalize(r.HighIntent)
	for i := range r.Topics {
		if r.Topics[i].Tag == "" {
			return Rules{}, fmt.Errorf("topic %d has no tag", i)
		}
		r.Topics[i].Keywords = normalize(r.Topics[i].Keywords)
	}
	for _, set := range [][]BucketRule{r.Timeline, r.CompanySize} {
		for i := range set {
			if set[i].Value == "" {
				return Rules{}, fmt.Errorf("bucket rule %v has no value", set[i].Keywords)
			}
			set[i].Keywords = normalize(set[i].Keywords)
		}
	}
	return r, nil
}

// YAML encodes the rule table.
func (r Rules) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
